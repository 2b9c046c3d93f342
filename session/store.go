package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/backoffice-console/internal/errors"
	"github.com/jrsteele09/backoffice-console/profile"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Tokens is the credential pair of a session. RefreshToken is empty when the
// backend keeps the refresh credential in a cookie.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ProfileFetcher loads the authenticated profile from the backend
type ProfileFetcher interface {
	FetchProfile(ctx context.Context) (*profile.Profile, error)
}

type Option func(*Store)

// WithKeySet makes the store reject access tokens whose signature does not
// verify against ks. oidc.NewRemoteKeySet gives a JWKS backed key set.
func WithKeySet(ks oidc.KeySet) Option {
	return func(s *Store) {
		s.keySet = ks
	}
}

// WithProfileFetcher sets the fetcher used by Profile
func WithProfileFetcher(f ProfileFetcher) Option {
	return func(s *Store) {
		s.fetcher = f
	}
}

// profileCall is an in-flight profile fetch shared by concurrent callers
type profileCall struct {
	done    chan struct{}
	profile *profile.Profile
	err     error
}

// Store is the in-memory authority on the current session. It is created at
// startup with Open, mirrors every change into its Repo, and is torn down
// with Close. All methods are safe for concurrent use.
type Store struct {
	repo    Repo
	keySet  oidc.KeySet
	fetcher ProfileFetcher

	// writeMu serializes session writes so a repo write and the matching
	// memory update are never interleaved with another session change.
	writeMu sync.Mutex
	mu      sync.RWMutex
	tokens  Tokens
	profile *profile.Profile
	fetch   *profileCall
	// generation changes whenever the identity changes (login, logout) so a
	// fetch that started under an older identity never lands.
	generation uint64
	closed     bool
}

func New(repo Repo, opts ...Option) *Store {
	s := &Store{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UseProfileFetcher attaches the fetcher after construction. The auth service
// needs the store to build its HTTP client, so it registers itself here.
func (s *Store) UseProfileFetcher(f ProfileFetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetcher = f
}

// Repo returns the durable repo backing the store
func (s *Store) Repo() Repo {
	return s.repo
}

// Open loads the persisted tokens into memory
func (s *Store) Open(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	access, _, err := s.repo.Get(ctx, KeyAccessToken)
	if err != nil {
		return fmt.Errorf("[Store Open] load access token: %w", err)
	}
	refresh, _, err := s.repo.Get(ctx, KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("[Store Open] load refresh token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{AccessToken: access, RefreshToken: refresh}
	s.profile = nil
	s.fetch = nil
	s.closed = false
	s.generation++

	log.Debug().Bool("authenticated", access != "").Msg("session restored")
	return nil
}

// Close tears the store down. Persisted tokens are kept for the next Open.
func (s *Store) Close() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tokens = Tokens{}
	s.profile = nil
	s.fetch = nil
	s.generation++
}

// SetSession starts a new session with t, dropping any cached profile
func (s *Store) SetSession(ctx context.Context, t Tokens) error {
	if t.AccessToken == "" {
		return fmt.Errorf("[Store SetSession] %w: empty access token", apperrors.ErrInvalidToken)
	}
	if err := s.verify(ctx, t.AccessToken); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.persist(ctx, t, true); err != nil {
		return apperrors.Wrapf(err, "[Store SetSession]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
	s.profile = nil
	s.fetch = nil
	s.generation++
	return nil
}

// Generation identifies the current session. It changes on every login,
// logout, Open and Close.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// UpdateTokens replaces the tokens of the current session. The cached profile
// is kept; an empty RefreshToken keeps the stored one.
func (s *Store) UpdateTokens(ctx context.Context, t Tokens) error {
	return s.UpdateTokensIf(ctx, s.Generation(), t)
}

// UpdateTokensIf is UpdateTokens for a refresh started under generation. It
// fails with ErrSessionChanged, writing nothing, when the session was
// cleared or replaced since.
func (s *Store) UpdateTokensIf(ctx context.Context, generation uint64, t Tokens) error {
	if t.AccessToken == "" {
		return fmt.Errorf("[Store UpdateTokens] %w: empty access token", apperrors.ErrInvalidToken)
	}
	if err := s.verify(ctx, t.AccessToken); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.holds(generation) {
		return fmt.Errorf("[Store UpdateTokens] %w", apperrors.ErrSessionChanged)
	}
	if err := s.persist(ctx, t, false); err != nil {
		return apperrors.Wrapf(err, "[Store UpdateTokens]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens.AccessToken = t.AccessToken
	if t.RefreshToken != "" {
		s.tokens.RefreshToken = t.RefreshToken
	}
	return nil
}

// SetAccessToken stores a new access token, keeping the refresh token and profile
func (s *Store) SetAccessToken(ctx context.Context, token string) error {
	return s.UpdateTokens(ctx, Tokens{AccessToken: token})
}

// ClearSession erases tokens and profile from memory and from the repo.
// Memory is cleared first so no request picks up the old token meanwhile.
func (s *Store) ClearSession(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.clear(ctx)
}

// ClearSessionIf clears the session only while generation is still current,
// so a failure seen by an old session never ends a newer one.
func (s *Store) ClearSessionIf(ctx context.Context, generation uint64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.Generation() != generation {
		return nil
	}
	return s.clear(ctx)
}

// clear must be called with writeMu held
func (s *Store) clear(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.profile = nil
	s.fetch = nil
	s.generation++
	s.mu.Unlock()

	return errors.Join(
		s.repo.Delete(ctx, KeyAccessToken),
		s.repo.Delete(ctx, KeyRefreshToken),
	)
}

// holds reports whether generation is current and still has a credential
func (s *Store) holds(generation uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation == generation && (s.tokens.AccessToken != "" || s.tokens.RefreshToken != "")
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken
}

// Authenticated reports whether an access token is held
func (s *Store) Authenticated() bool {
	return s.AccessToken() != ""
}

// Token returns the access token as an oauth2 token, or nil without a session.
// Expiry comes from the JWT exp claim and is zero for opaque tokens.
func (s *Store) Token() *oauth2.Token {
	s.mu.RLock()
	t := s.tokens
	s.mu.RUnlock()

	if t.AccessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       tokenExpiry(t.AccessToken),
	}
}

// CachedProfile returns the loaded profile without fetching, or nil
func (s *Store) CachedProfile() *profile.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// SetProfile replaces the cached profile, e.g. after a successful update
func (s *Store) SetProfile(p *profile.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens.AccessToken == "" {
		return
	}
	s.profile = p.Clone()
}

// Profile returns the cached profile or fetches it. Concurrent callers share
// one fetch. A failed fetch clears the session and yields ErrUnauthenticated:
// stale profile data is never served past a failure.
func (s *Store) Profile(ctx context.Context) (*profile.Profile, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, apperrors.ErrSessionClosed
	}
	if s.profile != nil {
		p := s.profile.Clone()
		s.mu.Unlock()
		return p, nil
	}
	if s.tokens.AccessToken == "" && s.tokens.RefreshToken == "" {
		s.mu.Unlock()
		return nil, apperrors.ErrUnauthenticated
	}
	if s.fetcher == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("[Store Profile] %w: no profile fetcher", apperrors.ErrUnauthenticated)
	}
	if call := s.fetch; call != nil {
		s.mu.Unlock()
		return waitProfile(ctx, call)
	}

	call := &profileCall{done: make(chan struct{})}
	s.fetch = call
	generation := s.generation
	fetcher := s.fetcher
	s.mu.Unlock()

	p, err := fetcher.FetchProfile(ctx)

	s.mu.Lock()
	if s.fetch == call {
		s.fetch = nil
	}
	current := generation == s.generation
	switch {
	case err == nil && p == nil:
		err = fmt.Errorf("[Store Profile] empty profile")
		fallthrough
	case err != nil:
		call.err = fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err)
	case !current:
		call.err = apperrors.ErrUnauthenticated
	default:
		s.profile = p.Clone()
		call.profile = p.Clone()
	}
	s.mu.Unlock()
	close(call.done)

	// An abandoned request says nothing about the session
	if err != nil && current && ctx.Err() == nil {
		log.Warn().Err(err).Msg("profile fetch failed, clearing session")
		if clearErr := s.ClearSessionIf(context.WithoutCancel(ctx), generation); clearErr != nil {
			log.Error().Err(clearErr).Msg("failed to clear session")
		}
	}
	if call.err != nil {
		return nil, call.err
	}
	return call.profile.Clone(), nil
}

func waitProfile(ctx context.Context, call *profileCall) (*profile.Profile, error) {
	select {
	case <-call.done:
		if call.err != nil {
			return nil, call.err
		}
		return call.profile.Clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return apperrors.ErrSessionClosed
	}
	return nil
}

func (s *Store) verify(ctx context.Context, token string) error {
	if s.keySet == nil {
		return nil
	}
	if _, err := s.keySet.VerifySignature(ctx, token); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}
	return nil
}

// persist writes t to the repo. With replaceRefresh an empty refresh token
// deletes the stored one; otherwise it is left untouched.
func (s *Store) persist(ctx context.Context, t Tokens, replaceRefresh bool) error {
	if err := s.repo.Set(ctx, KeyAccessToken, t.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	switch {
	case t.RefreshToken != "":
		if err := s.repo.Set(ctx, KeyRefreshToken, t.RefreshToken); err != nil {
			return fmt.Errorf("store refresh token: %w", err)
		}
	case replaceRefresh:
		if err := s.repo.Delete(ctx, KeyRefreshToken); err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature. The
// backend is the authority on validity; this only feeds oauth2.Token.Expiry.
func tokenExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
