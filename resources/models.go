package resources

import (
	"time"

	"github.com/jrsteele09/backoffice-console/internal/utils"
	"github.com/jrsteele09/backoffice-console/profile"
)

type ClientStatus string

const (
	ClientActive      ClientStatus = "ACTIVE"
	ClientBlacklisted ClientStatus = "BLACKLISTED"
)

type Client struct {
	ID              utils.ID     `json:"id"`
	Nom             string       `json:"nom"`
	Prenom          string       `json:"prenom"`
	Adresse         string       `json:"adresse,omitempty"`
	Email           string       `json:"email"`
	NumeroTelephone string       `json:"numeroTelephone"`
	Statut          ClientStatus `json:"statut,omitempty"`
}

// ClientInput is the payload of a client create or update
type ClientInput struct {
	Nom             string `json:"nom,omitempty"`
	Prenom          string `json:"prenom,omitempty"`
	Adresse         string `json:"adresse,omitempty"`
	Email           string `json:"email,omitempty"`
	NumeroTelephone string `json:"numeroTelephone,omitempty"`
}

type LigneCommande struct {
	ProduitID    utils.ID `json:"produitId"`
	Quantite     int      `json:"quantite"`
	PrixUnitaire float64  `json:"prixUnitaire,omitempty"`
}

type Commande struct {
	ID           utils.ID        `json:"id"`
	DateCommande time.Time       `json:"dateCommande,omitzero"`
	ClientID     utils.ID        `json:"clientId,omitempty"`
	Client       *Client         `json:"client,omitempty"`
	Statut       string          `json:"statut,omitempty"`
	Total        float64         `json:"total,omitempty"`
	Lignes       []LigneCommande `json:"lignes,omitempty"`
}

type Fournisseur struct {
	ID        utils.ID `json:"id"`
	Nom       string   `json:"nom"`
	Email     string   `json:"email,omitempty"`
	Telephone string   `json:"telephone,omitempty"`
	Adresse   string   `json:"adresse,omitempty"`
}

type Produit struct {
	ID    utils.ID `json:"idProduit"`
	Nom   string   `json:"nom"`
	Prix  float64  `json:"prix"`
	Stock int      `json:"stock"`
}

type Retour struct {
	ID         utils.ID  `json:"id"`
	DateRetour time.Time `json:"dateRetour,omitzero"`
	CommandeID utils.ID  `json:"commandeId,omitempty"`
	Raison     string    `json:"raison,omitempty"`
	Statut     string    `json:"statut,omitempty"`
}

// User is a console account as managed from the users view
type User struct {
	ID          utils.ID              `json:"id"`
	Name        string                `json:"name"`
	Email       string                `json:"email"`
	Phone       string                `json:"phone,omitempty"`
	Role        profile.Role          `json:"role"`
	Permissions profile.PermissionSet `json:"permissions"`
}

type NotificationType string

const (
	NotificationOutOfStock NotificationType = "OUT_OF_STOCK"
	NotificationLowStock   NotificationType = "LOW_STOCK"
	NotificationOther      NotificationType = "OTHER"
)

type Notification struct {
	ID        utils.ID         `json:"id"`
	ProduitID utils.ID         `json:"produitId,omitempty"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt,omitzero"`
	Resolved  bool             `json:"resolved"`
}
