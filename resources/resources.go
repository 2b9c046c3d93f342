package resources

import (
	"github.com/jrsteele09/backoffice-console/api"
	"github.com/jrsteele09/backoffice-console/session"
)

// Collection paths
const (
	PathCommandes    = "/commandes"
	PathFournisseurs = "/fournisseurs"
	PathRetours      = "/retours"
	PathProduits     = "/produits"
)

// Resources groups the feature clients of the console
type Resources struct {
	Clients       *Clients
	Commandes     *Collection[Commande]
	Fournisseurs  *Collection[Fournisseur]
	Produits      *Collection[Produit]
	Retours       *Collection[Retour]
	Users         *Users
	Notifications *Notifications
	Stats         *Stats
}

// New builds every feature client on client. repo keeps the notification
// read state.
func New(client *api.Client, repo session.Repo) *Resources {
	return &Resources{
		Clients:       NewClients(client),
		Commandes:     NewCollection[Commande](client, PathCommandes),
		Fournisseurs:  NewCollection[Fournisseur](client, PathFournisseurs),
		Produits:      NewCollection[Produit](client, PathProduits),
		Retours:       NewCollection[Retour](client, PathRetours),
		Users:         NewUsers(client),
		Notifications: NewNotifications(client, repo),
		Stats:         NewStats(client),
	}
}
