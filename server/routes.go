package server

import (
	"net/http"

	"github.com/jrsteele09/backoffice-console/guard"
	"github.com/jrsteele09/backoffice-console/resources"
	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.IndexHandler(), s.APIMiddleware()...))

	// CORS preflight, answered by CorsMiddleware
	s.RegisterRouteFunc("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	// LOGIN
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteUnauthorized, ChainMiddleware(s.UnauthorizedHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireSession)...))
	s.RegisterRouteFunc("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware(s.RequireSession)...))
	s.RegisterRouteFunc("PATCH "+RouteProfile, ChainMiddleware(s.UpdateProfileHandler(), s.APIMiddleware(s.RequireSession)...))

	// API routes
	s.RegisterRouteFunc("GET "+RouteAPIHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAPINav, ChainMiddleware(s.NavHandler(), s.APIMiddleware(s.RequireSession)...))

	// Guarded views
	views := map[string]http.HandlerFunc{
		RouteDashboard:     s.DashboardHandler(),
		RouteClients:       listHandler[resources.Client](s.resources.Clients),
		RouteCommandes:     listHandler[resources.Commande](s.resources.Commandes),
		RouteFournisseurs:  listHandler[resources.Fournisseur](s.resources.Fournisseurs),
		RouteUtilisateurs:  listHandler[resources.User](s.resources.Users),
		RouteRetours:       listHandler[resources.Retour](s.resources.Retours),
		RouteListeNoire:    s.ListeNoireHandler(),
		RouteNotifications: s.NotificationsHandler(),
	}
	for _, route := range guard.Routes {
		handler, ok := views[route.Path]
		if !ok {
			log.Warn().Str("path", route.Path).Msg("no handler for console view")
			continue
		}
		s.RegisterRouteFunc("GET "+route.Path, ChainMiddleware(handler, s.ViewMiddleware(route)...))
	}

	// View actions share the guard of their view
	s.registerAction("POST "+RouteClients, RouteClients, s.CreateClientHandler())
	s.registerAction("POST "+RouteClientBlacklist, RouteClients, s.BlacklistClientHandler())
	s.registerAction("PATCH "+RouteUserPermissions, RouteUtilisateurs, s.UpdateUserPermissionsHandler())
	s.registerAction("POST "+RouteNotificationsReadAll, RouteNotifications, s.MarkAllNotificationsReadHandler())
	s.registerAction("POST "+RouteNotificationRead, RouteNotifications, s.MarkNotificationReadHandler())
	s.registerAction("DELETE "+RouteNotificationItem, RouteNotifications, s.DeleteNotificationHandler())
}

func (s *Server) registerAction(pattern, view string, handler http.HandlerFunc) {
	route, ok := guard.Find(view)
	if !ok {
		log.Warn().Str("pattern", pattern).Str("view", view).Msg("action for unknown console view")
		return
	}
	s.RegisterRouteFunc(pattern, ChainMiddleware(handler, s.ViewMiddleware(route)...))
}
