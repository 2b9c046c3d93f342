package server

import (
	"net/http"
)

// RequireSession is middleware for JSON routes that need a logged in
// operator. Unlike the view guard it answers 401 instead of redirecting.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.store.Authenticated() {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "Please log in.")
			return
		}
		next(w, r)
	}
}
