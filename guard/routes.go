package guard

import "github.com/jrsteele09/backoffice-console/profile"

// Console view paths
const (
	PathLogin         = "/login"
	PathUnauthorized  = "/unauthorized"
	PathDashboard     = profile.LandingDashboard
	PathClients       = profile.LandingClients
	PathCommandes     = profile.LandingCommandes
	PathFournisseurs  = profile.LandingFournisseurs
	PathUtilisateurs  = "/utilisateurs"
	PathRetours       = "/retours"
	PathListeNoire    = "/liste-noire"
	PathNotifications = "/notifications"
)

// Route is a guarded console view. It is reachable when any entry of Access
// allows the profile; an empty Access admits every authenticated user.
type Route struct {
	Path   string
	Title  string
	Access []Requirement
}

var adminOnly = Requirement{Roles: []profile.Role{profile.RoleAdmin}}

func managerWith(perms ...profile.Permission) Requirement {
	return Requirement{Roles: []profile.Role{profile.RoleManager}, Permissions: perms}
}

// Routes is the console route table, in sidebar order
var Routes = []Route{
	{Path: PathDashboard, Title: "Dashboard"},
	{Path: PathFournisseurs, Title: "Fournisseurs", Access: []Requirement{adminOnly, managerWith(profile.PermAgentDeStock)}},
	{Path: PathUtilisateurs, Title: "Utilisateurs", Access: []Requirement{adminOnly}},
	{Path: PathCommandes, Title: "Commandes", Access: []Requirement{adminOnly, managerWith(profile.PermConfirmateur)}},
	{Path: PathClients, Title: "Clients", Access: []Requirement{adminOnly, managerWith(profile.PermSAV, profile.PermConfirmateur)}},
	{Path: PathRetours, Title: "Retours", Access: []Requirement{adminOnly, managerWith(profile.PermSAV)}},
	{Path: PathListeNoire, Title: "Liste noire", Access: []Requirement{adminOnly, managerWith(profile.PermSAV, profile.PermConfirmateur)}},
	{Path: PathNotifications, Title: "Notifications"},
}

// Decide returns Allow when any requirement of the route allows p. When
// none does, the first denial is returned.
func (r Route) Decide(p *profile.Profile) Decision {
	if len(r.Access) == 0 {
		return Check(p, Requirement{})
	}
	denied := RedirectUnauthorized
	for i, req := range r.Access {
		d := Check(p, req)
		if d == Allow {
			return Allow
		}
		if i == 0 {
			denied = d
		}
	}
	return denied
}

// Restricted reports whether the route limits roles or permissions
func (r Route) Restricted() bool {
	return len(r.Access) > 0
}

// Find looks up a route by path
func Find(path string) (Route, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Visible returns the routes p may open, for the sidebar
func Visible(p *profile.Profile) []Route {
	var out []Route
	for _, r := range Routes {
		if r.Decide(p) == Allow {
			out = append(out, r)
		}
	}
	return out
}
