package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/backoffice-console/api"
	apperrors "github.com/jrsteele09/backoffice-console/internal/errors"
	"github.com/jrsteele09/backoffice-console/session"
	fakesessionrepo "github.com/jrsteele09/backoffice-console/session/repofake"
	"github.com/stretchr/testify/require"
)

// fakeBackend accepts exactly one access token on /protected and issues a
// new one on /auth/refresh.
type fakeBackend struct {
	srv *httptest.Server

	mu            sync.Mutex
	validToken    string
	nextToken     string
	refreshStatus int
	refreshDelay  time.Duration
	refreshBodies []map[string]string
	authHeaders   []string
	rejectAll     bool
	dropRefresh   bool

	protectedCalls atomic.Int32
	refreshCalls   atomic.Int32
}

func newFakeBackend(t *testing.T, validToken string) *fakeBackend {
	t.Helper()
	b := &fakeBackend{validToken: validToken, nextToken: "token-2", refreshStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /protected", func(w http.ResponseWriter, r *http.Request) {
		b.protectedCalls.Add(1)
		header := r.Header.Get("Authorization")
		b.mu.Lock()
		b.authHeaders = append(b.authHeaders, header)
		valid := header == "Bearer "+b.validToken && !b.rejectAll
		b.mu.Unlock()
		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"ok": true}})
	})
	mux.HandleFunc("GET /public", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.authHeaders = append(b.authHeaders, r.Header.Get("Authorization"))
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("GET /fail", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	})
	mux.HandleFunc("POST /validate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": []string{"name is required", "email must be an email"}})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		b.mu.Lock()
		b.refreshBodies = append(b.refreshBodies, body)
		delay, status, next, drop := b.refreshDelay, b.refreshStatus, b.nextToken, b.dropRefresh
		b.mu.Unlock()

		if drop {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		time.Sleep(delay)
		if status != http.StatusOK {
			writeJSON(w, status, map[string]any{"message": "invalid refresh token"})
			return
		}
		b.mu.Lock()
		b.validToken = next
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"accessToken": next, "refreshToken": "refresh-2"})
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) headers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authHeaders...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testFixture struct {
	backend *fakeBackend
	repo    *fakesessionrepo.FakeSessionRepo
	store   *session.Store
	client  *api.Client
}

func setupTestFixture(t *testing.T, tokens session.Tokens, validToken string) *testFixture {
	t.Helper()
	ctx := context.Background()

	backend := newFakeBackend(t, validToken)
	repo := fakesessionrepo.NewFakeSessionRepo()
	store := session.New(repo)
	require.NoError(t, store.Open(ctx))
	if tokens.AccessToken != "" {
		require.NoError(t, store.SetSession(ctx, tokens))
	}
	return &testFixture{
		backend: backend,
		repo:    repo,
		store:   store,
		client:  api.New(backend.srv.URL, store),
	}
}

func TestClient_AuthorizationHeader(t *testing.T) {
	ctx := context.Background()

	t.Run("no stored token sends no header", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{}, "token-1")
		_, err := f.client.Do(ctx, api.Request{
			Method: http.MethodGet,
			Path:   "/public",
			Header: http.Header{"Authorization": []string{"Bearer smuggled"}},
		})
		require.NoError(t, err)
		require.Equal(t, []string{""}, f.backend.headers())
	})

	t.Run("stored token is sent as bearer", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "token-1"}, "token-1")
		resp, err := f.client.Get(ctx, "/protected", nil)
		require.NoError(t, err)
		require.Equal(t, api.StateSuccess, resp.State)
		require.Equal(t, []string{"Bearer token-1"}, f.backend.headers())

		var out struct {
			OK bool `json:"ok"`
		}
		require.NoError(t, resp.DecodeData(&out))
		require.True(t, out.OK)
	})

	t.Run("header follows the token at send time", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "token-1"}, "token-1")
		_, err := f.client.Get(ctx, "/public", nil)
		require.NoError(t, err)
		require.NoError(t, f.store.SetAccessToken(ctx, "token-9"))
		_, err = f.client.Get(ctx, "/public", nil)
		require.NoError(t, err)
		require.Equal(t, []string{"Bearer token-1", "Bearer token-9"}, f.backend.headers())
	})
}

func TestClient_BaseURL(t *testing.T) {
	f := setupTestFixture(t, session.Tokens{AccessToken: "token-1"}, "token-1")
	client := api.New(f.backend.srv.URL+"/", f.store)
	require.Equal(t, f.backend.srv.URL, client.BaseURL())

	_, err := client.Get(context.Background(), "/protected", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Bearer token-1"}, f.backend.headers())
}

func TestClient_RefreshAndReplay(t *testing.T) {
	ctx := context.Background()

	t.Run("401 refreshes once and replays with the new token", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "expired", RefreshToken: "refresh-1"}, "token-1")
		f.backend.mu.Lock()
		f.backend.nextToken = "token-1"
		f.backend.mu.Unlock()

		resp, err := f.client.Get(ctx, "/protected", nil)
		require.NoError(t, err)
		require.Equal(t, api.StateRetriedSuccess, resp.State)
		require.Equal(t, int32(1), f.backend.refreshCalls.Load())
		require.Equal(t, int32(2), f.backend.protectedCalls.Load())
		require.Equal(t, []string{"Bearer expired", "Bearer token-1"}, f.backend.headers())

		// new tokens are persisted, the rotated refresh token too
		require.Equal(t, "token-1", f.store.AccessToken())
		stored, found, err := f.repo.Get(ctx, session.KeyAccessToken)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "token-1", stored)
		require.Equal(t, "refresh-2", f.store.RefreshToken())
		f.backend.mu.Lock()
		require.Equal(t, []map[string]string{{"refreshToken": "refresh-1"}}, f.backend.refreshBodies)
		f.backend.mu.Unlock()
	})

	t.Run("refresh failure is returned and nothing is replayed", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "expired"}, "token-1")
		f.backend.mu.Lock()
		f.backend.refreshStatus = http.StatusUnauthorized
		f.backend.mu.Unlock()

		_, err := f.client.Get(ctx, "/protected", nil)
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrRefreshFailed)

		var httpErr *apperrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
		require.Equal(t, "invalid refresh token", httpErr.Message)

		require.Equal(t, int32(1), f.backend.protectedCalls.Load())
		require.Equal(t, int32(1), f.backend.refreshCalls.Load())

		// an unrefreshable session is over
		require.False(t, f.store.Authenticated())
		require.Equal(t, 0, f.repo.Len())
	})

	t.Run("401 after the replay is terminal", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "expired"}, "token-1")
		// refresh succeeds but the endpoint keeps rejecting
		f.backend.mu.Lock()
		f.backend.rejectAll = true
		f.backend.mu.Unlock()

		_, err := f.client.Get(ctx, "/protected", nil)
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		require.NotErrorIs(t, err, apperrors.ErrRefreshFailed)
		require.Equal(t, int32(1), f.backend.refreshCalls.Load())
		require.Equal(t, int32(2), f.backend.protectedCalls.Load())
	})

	t.Run("no refresh when disabled for the request", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "expired"}, "token-1")
		_, err := f.client.Do(ctx, api.Request{Method: http.MethodGet, Path: "/protected", NoRefresh: true})
		require.Equal(t, http.StatusUnauthorized, apperrors.StatusCode(err))
		require.Equal(t, int32(0), f.backend.refreshCalls.Load())
	})
}

func TestClient_RefreshRacingSessionChange(t *testing.T) {
	ctx := context.Background()

	// startRefresh sends a request that refreshes slowly and returns once the
	// refresh is in flight
	startRefresh := func(t *testing.T, f *testFixture) <-chan error {
		t.Helper()
		f.backend.mu.Lock()
		f.backend.refreshDelay = 200 * time.Millisecond
		f.backend.mu.Unlock()

		done := make(chan error, 1)
		go func() {
			_, err := f.client.Get(ctx, "/protected", nil)
			done <- err
		}()
		require.Eventually(t, func() bool { return f.backend.refreshCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
		return done
	}

	t.Run("logout wins over a late refresh", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "expired", RefreshToken: "refresh-1"}, "token-1")
		done := startRefresh(t, f)

		require.NoError(t, f.store.ClearSession(ctx))
		err := <-done
		require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
		require.ErrorIs(t, err, apperrors.ErrSessionChanged)

		require.False(t, f.store.Authenticated())
		require.Empty(t, f.store.RefreshToken())
		_, found, err := f.repo.Get(ctx, session.KeyAccessToken)
		require.NoError(t, err)
		require.False(t, found)
		require.Equal(t, int32(1), f.backend.protectedCalls.Load())
	})

	t.Run("new login wins over a late refresh", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "expired", RefreshToken: "refresh-1"}, "token-1")
		done := startRefresh(t, f)

		require.NoError(t, f.store.SetSession(ctx, session.Tokens{AccessToken: "token-new", RefreshToken: "refresh-new"}))
		require.ErrorIs(t, <-done, apperrors.ErrSessionChanged)

		require.Equal(t, "token-new", f.store.AccessToken())
		require.Equal(t, "refresh-new", f.store.RefreshToken())
		stored, _, err := f.repo.Get(ctx, session.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "token-new", stored)
	})

	t.Run("late rejection does not end a new login", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "expired", RefreshToken: "refresh-1"}, "token-1")
		f.backend.mu.Lock()
		f.backend.refreshStatus = http.StatusUnauthorized
		f.backend.mu.Unlock()
		done := startRefresh(t, f)

		require.NoError(t, f.store.SetSession(ctx, session.Tokens{AccessToken: "token-new"}))
		require.ErrorIs(t, <-done, apperrors.ErrRefreshFailed)
		require.Equal(t, "token-new", f.store.AccessToken())
	})
}

func TestClient_RefreshUnreachable(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, session.Tokens{AccessToken: "expired", RefreshToken: "refresh-1"}, "token-1")
	f.backend.mu.Lock()
	f.backend.dropRefresh = true
	f.backend.mu.Unlock()

	_, err := f.client.Get(ctx, "/protected", nil)
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	require.ErrorIs(t, err, apperrors.ErrBackendUnreachable)
	require.Equal(t, 0, apperrors.StatusCode(err))

	// the backend never said no, so the session stays
	require.Equal(t, "expired", f.store.AccessToken())
	require.Equal(t, "refresh-1", f.store.RefreshToken())
}

func TestClient_ConcurrentRefreshIsCoalesced(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, session.Tokens{AccessToken: "expired"}, "token-1")
	f.backend.mu.Lock()
	f.backend.nextToken = "token-1"
	f.backend.refreshDelay = 50 * time.Millisecond
	f.backend.mu.Unlock()

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.client.Get(ctx, "/protected", nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), f.backend.refreshCalls.Load())
	require.Equal(t, "token-1", f.store.AccessToken())
}

func TestClient_ErrorsPassThrough(t *testing.T) {
	ctx := context.Background()

	t.Run("non-401 error keeps status and message", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "token-1"}, "token-1")
		_, err := f.client.Get(ctx, "/fail", nil)
		var httpErr *apperrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
		require.Equal(t, "boom", httpErr.Message)
		require.Equal(t, int32(0), f.backend.refreshCalls.Load())
	})

	t.Run("validation messages are joined", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "token-1"}, "token-1")
		_, err := f.client.Post(ctx, "/validate", map[string]string{})
		require.Equal(t, "name is required; email must be an email", apperrors.Message(err, ""))
	})

	t.Run("transport error is not an http error", func(t *testing.T) {
		f := setupTestFixture(t, session.Tokens{AccessToken: "token-1"}, "token-1")
		f.backend.srv.Close()
		_, err := f.client.Get(ctx, "/protected", nil)
		require.Error(t, err)
		require.Equal(t, 0, apperrors.StatusCode(err))
		require.True(t, f.store.Authenticated())
	})
}

func TestState(t *testing.T) {
	require.Equal(t, "refresh_failed", api.StateRefreshFailed.String())
	require.True(t, api.StateRetriedFailed.Terminal())
	require.False(t, api.StateRefreshing.Terminal())
}
