package profile

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jrsteele09/backoffice-console/internal/utils"
	"github.com/rs/zerolog/log"
)

// Role is the coarse authorization category of a console user
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
)

// Permission is a fine-grained capability granted within a role
type Permission string

const (
	PermAgentDeStock Permission = "AGENT_DE_STOCK" // suppliers and stock
	PermConfirmateur Permission = "CONFIRMATEUR"   // order confirmation
	PermSAV          Permission = "SAV"            // after-sales: clients and returns
)

// Roles lists every known role
var Roles = []Role{RoleAdmin, RoleManager}

// Permissions lists every known permission
var Permissions = []Permission{PermAgentDeStock, PermConfirmateur, PermSAV}

// ParseRole maps the backend's role string onto a Role
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleManager:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// ParsePermission maps the backend's permission string onto a Permission
func ParsePermission(s string) (Permission, error) {
	switch p := Permission(strings.ToUpper(strings.TrimSpace(s))); p {
	case PermAgentDeStock, PermConfirmateur, PermSAV:
		return p, nil
	default:
		return "", fmt.Errorf("unknown permission %q", s)
	}
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	role, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// PermissionSet is the set of permissions held by a profile.
// Unknown permissions sent by the backend are dropped when decoding.
type PermissionSet []Permission

func (ps *PermissionSet) UnmarshalJSON(b []byte) error {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	set := make(PermissionSet, 0, len(raw))
	for _, s := range raw {
		p, err := ParsePermission(s)
		if err != nil {
			log.Warn().Str("permission", s).Msg("ignoring unknown permission")
			continue
		}
		if !slices.Contains(set, p) {
			set = append(set, p)
		}
	}
	*ps = set
	return nil
}

// Has reports whether p is in the set
func (ps PermissionSet) Has(p Permission) bool {
	return slices.Contains(ps, p)
}

// HasAny reports whether the set intersects perms
func (ps PermissionSet) HasAny(perms ...Permission) bool {
	for _, p := range perms {
		if ps.Has(p) {
			return true
		}
	}
	return false
}

// Profile is the authenticated user's identity as returned by GET /auth/profile
type Profile struct {
	ID            utils.ID      `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone,omitempty"`
	Role          Role          `json:"role"`
	Permissions   PermissionSet `json:"permissions"`
	EmailVerified bool          `json:"emailVerified,omitempty"`
	CreatedAt     time.Time     `json:"createdAt,omitzero"`
	UpdatedAt     time.Time     `json:"updatedAt,omitzero"`
}

// IsAdmin returns true if the profile has the ADMIN role
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// HasRole checks if the profile's role is one of roles
func (p *Profile) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	return slices.Contains(roles, p.Role)
}

// HasAnyPermission checks if the profile holds at least one of perms
func (p *Profile) HasAnyPermission(perms ...Permission) bool {
	if p == nil {
		return false
	}
	return p.Permissions.HasAny(perms...)
}

// Landing routes picked after login
const (
	LandingDashboard    = "/dashboard"
	LandingFournisseurs = "/fournisseurs"
	LandingCommandes    = "/commandes"
	LandingClients      = "/clients"
)

// LandingRoute returns the first view a user is sent to after login.
// Managers land on the view of their first permission, in stock, confirmation,
// after-sales order.
func (p *Profile) LandingRoute() string {
	if p == nil {
		return LandingDashboard
	}
	switch p.Role {
	case RoleAdmin:
		return LandingDashboard
	case RoleManager:
		switch {
		case p.Permissions.Has(PermAgentDeStock):
			return LandingFournisseurs
		case p.Permissions.Has(PermConfirmateur):
			return LandingCommandes
		case p.Permissions.Has(PermSAV):
			return LandingClients
		}
	}
	return LandingDashboard
}

// Clone returns a deep copy so cached profiles are never shared mutably
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Permissions = slices.Clone(p.Permissions)
	return &c
}
