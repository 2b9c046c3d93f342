// Package server is the console gateway: a local HTTP server holding one
// operator session and exposing the dashboard views as guarded JSON endpoints.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/backoffice-console/auth"
	"github.com/jrsteele09/backoffice-console/internal/config"
	"github.com/jrsteele09/backoffice-console/resources"
	"github.com/jrsteele09/backoffice-console/session"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env       string // Environment (e.g. "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	store     *session.Store
	auth      *auth.Service
	resources *resources.Resources
}

func New(config config.Config, store *session.Store, authService *auth.Service, res *resources.Resources) *Server {
	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		store:     store,
		auth:      authService,
		resources: res,
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
