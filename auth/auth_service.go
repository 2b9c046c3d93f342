// Package auth implements the console's account flows on top of the backend:
// login, logout, profile loading and update, and password recovery.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/backoffice-console/api"
	apperrors "github.com/jrsteele09/backoffice-console/internal/errors"
	"github.com/jrsteele09/backoffice-console/profile"
	"github.com/jrsteele09/backoffice-console/session"
	"github.com/rs/zerolog/log"
)

// Backend paths
const (
	PathLogin          = "/auth/login"
	PathProfile        = "/auth/profile"
	PathForgotPassword = "/auth/forgot-password"
)

const defaultLoginMessage = "Login failed. Check your credentials."

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Service struct {
	client    *api.Client
	store     *session.Store
	validator *Validator
}

// NewService creates the auth service and registers it as the store's
// profile fetcher.
func NewService(client *api.Client, store *session.Store) *Service {
	s := &Service{
		client:    client,
		store:     store,
		validator: NewValidator(),
	}
	store.UseProfileFetcher(s)
	return s
}

// Login authenticates against the backend, starts a session and loads the
// profile. It returns the route the user should land on.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if err := s.validator.ValidateCredentials(email, password); err != nil {
		return "", fmt.Errorf("[Service Login] %w: %w", apperrors.ErrInvalidCredentials, err)
	}

	resp, err := s.client.Do(ctx, api.Request{
		Method:    http.MethodPost,
		Path:      PathLogin,
		Body:      credentials{Email: email, Password: password},
		NoRefresh: true,
	})
	if err != nil {
		switch apperrors.StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return "", fmt.Errorf("[Service Login] %w: %w", apperrors.ErrInvalidCredentials, err)
		}
		return "", fmt.Errorf("[Service Login] %w", err)
	}

	var tokens session.Tokens
	if err := resp.DecodeData(&tokens); err != nil {
		return "", fmt.Errorf("[Service Login] %w", err)
	}
	if tokens.AccessToken == "" {
		return "", fmt.Errorf("[Service Login] %w", ErrNoAccessToken)
	}
	if err := s.store.SetSession(ctx, tokens); err != nil {
		return "", fmt.Errorf("[Service Login] %w", err)
	}

	p, err := s.store.Profile(ctx)
	if err != nil {
		return "", fmt.Errorf("[Service Login] load profile: %w", err)
	}

	landing := p.LandingRoute()
	log.Info().Str("user_id", p.ID.String()).Str("role", string(p.Role)).Str("landing", landing).Msg("logged in")
	return landing, nil
}

// LoginMessage is the text to show for a failed login
func LoginMessage(err error) string {
	return apperrors.Message(err, defaultLoginMessage)
}

// Logout ends the session. Persisted tokens and the cached profile are erased.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("[Service Logout] %w", err)
	}
	log.Info().Msg("logged out")
	return nil
}

// FetchProfile loads the profile of the session's token. The backend wraps
// it in a {data: ...} envelope; a bare profile is accepted too.
func (s *Service) FetchProfile(ctx context.Context) (*profile.Profile, error) {
	resp, err := s.client.Get(ctx, PathProfile, nil)
	if err != nil {
		return nil, fmt.Errorf("[Service FetchProfile] %w", err)
	}
	var p profile.Profile
	if err := resp.DecodeData(&p); err != nil {
		return nil, fmt.Errorf("[Service FetchProfile] %w", err)
	}
	if p.Role == "" {
		return nil, fmt.Errorf("[Service FetchProfile] profile has no role")
	}
	return &p, nil
}

// UpdateProfile sends u to the backend. The session's profile only changes
// once the backend has accepted the update.
func (s *Service) UpdateProfile(ctx context.Context, u ProfileUpdate) (*profile.Profile, error) {
	if err := s.validator.ValidateProfileUpdate(u); err != nil {
		return nil, fmt.Errorf("[Service UpdateProfile] %w", err)
	}
	current, err := s.store.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Service UpdateProfile] %w", err)
	}

	resp, err := s.client.Patch(ctx, PathProfile, u.Trimmed())
	if err != nil {
		return nil, fmt.Errorf("[Service UpdateProfile] %w", err)
	}

	// The response may hold only the changed fields, so decode over the current profile
	updated := current.Clone()
	if err := resp.DecodeData(updated); err != nil {
		return nil, fmt.Errorf("[Service UpdateProfile] %w", err)
	}
	s.store.SetProfile(updated)
	return updated, nil
}

// ForgotPassword asks the backend to send a reset email
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if err := s.validator.ValidateEmail(email); err != nil {
		return fmt.Errorf("[Service ForgotPassword] %w", err)
	}
	_, err := s.client.Do(ctx, api.Request{
		Method:    http.MethodPost,
		Path:      PathForgotPassword,
		Body:      map[string]string{"email": email},
		NoRefresh: true,
	})
	if err != nil {
		if apperrors.StatusCode(err) == http.StatusNotFound {
			return fmt.Errorf("[Service ForgotPassword] %w", apperrors.ErrUserNotFound)
		}
		return fmt.Errorf("[Service ForgotPassword] %w", err)
	}
	return nil
}
