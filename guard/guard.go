// Package guard decides whether the current identity may open a console view.
package guard

import (
	"slices"

	"github.com/jrsteele09/backoffice-console/profile"
)

// Decision is the outcome of a guard check
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	}
	return "unknown"
}

// Requirement restricts a view. An empty Roles or Permissions places no
// constraint of that kind; Permissions is satisfied by any one of its members.
type Requirement struct {
	Roles       []profile.Role
	Permissions []profile.Permission
}

// Check evaluates p against req. A nil profile is never authenticated, so it
// always goes to login and never to the unauthorized view.
func Check(p *profile.Profile, req Requirement) Decision {
	if p == nil {
		return RedirectLogin
	}
	if len(req.Roles) > 0 && !slices.Contains(req.Roles, p.Role) {
		return RedirectUnauthorized
	}
	if len(req.Permissions) > 0 && !p.HasAnyPermission(req.Permissions...) {
		return RedirectUnauthorized
	}
	return Allow
}
