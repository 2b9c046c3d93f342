package server

import (
	"net/http"

	"github.com/jrsteele09/backoffice-console/auth"
	"github.com/jrsteele09/backoffice-console/guard"
	apperrors "github.com/jrsteele09/backoffice-console/internal/errors"
	"github.com/jrsteele09/backoffice-console/profile"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Redirect string           `json:"redirect"`
	Profile  *profile.Profile `json:"profile"`
}

type navItem struct {
	Path       string `json:"path"`
	Title      string `json:"title"`
	Restricted bool   `json:"restricted"`
}

func isValidationErr(err error) bool {
	return apperrors.Is(err, auth.ErrEmailRequired) ||
		apperrors.Is(err, auth.ErrInvalidEmail) ||
		apperrors.Is(err, auth.ErrPasswordRequired) ||
		apperrors.Is(err, auth.ErrEmptyUpdate)
}

// LoginPageHandler describes the login entry point. An operator who is
// already logged in is pointed at their landing view.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"appName":        s.config.GetAppName(),
			"authenticated":  s.store.Authenticated(),
			"loginEndpoint":  RouteAuthLogin,
			"forgotEndpoint": RouteForgotPassword,
		}
		if p := s.store.CachedProfile(); p != nil {
			data["redirect"] = p.LandingRoute()
		}
		writeData(w, http.StatusOK, data)
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}

		landing, err := s.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials", auth.LoginMessage(err))
				return
			}
			writeBackendError(w, err)
			return
		}
		writeData(w, http.StatusOK, loginResponse{Redirect: landing, Profile: s.store.CachedProfile()})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Logout(r.Context()); err != nil {
			writeBackendError(w, err)
			return
		}
		writeData(w, http.StatusOK, map[string]string{"redirect": RouteLogin})
	}
}

func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}

		err := s.auth.ForgotPassword(r.Context(), req.Email)
		switch {
		case err == nil:
			writeMessage(w, "A reset email has been sent.")
		case apperrors.Is(err, apperrors.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found", "User not found.")
		case isValidationErr(err):
			writeError(w, http.StatusBadRequest, "invalid email", err.Error())
		default:
			writeBackendError(w, err)
		}
	}
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.store.Profile(r.Context())
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeData(w, http.StatusOK, p)
	}
}

func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update auth.ProfileUpdate
		if err := decodeBody(r, &update); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		p, err := s.auth.UpdateProfile(r.Context(), update)
		if err != nil {
			if isValidationErr(err) {
				writeError(w, http.StatusBadRequest, "invalid profile", err.Error())
				return
			}
			writeBackendError(w, err)
			return
		}
		writeData(w, http.StatusOK, p)
	}
}

// UnauthorizedHandler is where the guard sends operators without access
func (s *Server) UnauthorizedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "unauthorized", "You are not allowed to open this page.")
	}
}

// NavHandler lists the views the operator may open, for the sidebar
func (s *Server) NavHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.store.Profile(r.Context())
		if err != nil {
			writeBackendError(w, err)
			return
		}
		items := []navItem{}
		for _, route := range guard.Visible(p) {
			items = append(items, navItem{Path: route.Path, Title: route.Title, Restricted: route.Restricted()})
		}
		writeData(w, http.StatusOK, items)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"authenticated": s.store.Authenticated(),
		})
	}
}

// IndexHandler sends the operator to their landing view, or to login
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := RouteLogin
		if s.store.Authenticated() {
			if p, err := s.store.Profile(r.Context()); err == nil {
				target = p.LandingRoute()
			}
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// PreflightHandler is reached by OPTIONS requests without an Origin
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", s.config.GetAllowedMethods())
		w.WriteHeader(http.StatusNoContent)
	}
}
