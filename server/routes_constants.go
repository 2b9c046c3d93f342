package server

import "github.com/jrsteele09/backoffice-console/guard"

// Route path constants
// All gateway routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteLogin          = guard.PathLogin
	RouteUnauthorized   = guard.PathUnauthorized
	RouteAuthLogin      = "/auth/login"
	RouteAuthLogout     = "/auth/logout"
	RouteForgotPassword = "/auth/forgot-password"
	RouteProfile        = "/auth/profile"

	// API Routes
	RouteAPINav    = "/api/nav"
	RouteAPIHealth = "/api/health"

	// Views
	RouteDashboard     = guard.PathDashboard
	RouteClients       = guard.PathClients
	RouteCommandes     = guard.PathCommandes
	RouteFournisseurs  = guard.PathFournisseurs
	RouteUtilisateurs  = guard.PathUtilisateurs
	RouteRetours       = guard.PathRetours
	RouteListeNoire    = guard.PathListeNoire
	RouteNotifications = guard.PathNotifications

	// View actions
	RouteClientBlacklist      = "/clients/{id}/blacklist"
	RouteUserPermissions      = "/utilisateurs/{id}/permissions"
	RouteNotificationRead     = "/notifications/{id}/read"
	RouteNotificationsReadAll = "/notifications/read-all"
	RouteNotificationItem     = "/notifications/{id}"
)
