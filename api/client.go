// Package api is the single point of egress to the backend. It attaches the
// session's bearer token to every request and recovers from an expired token
// by refreshing it once and replaying the request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/backoffice-console/internal/errors"
	"github.com/jrsteele09/backoffice-console/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultRefreshPath = "/auth/refresh"
	DefaultTimeout     = 15 * time.Second

	headerRequestID = "X-Request-ID"
	maxResponseSize = 8 << 20
)

// TokenStore is the part of the session the client reads and writes
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	Generation() uint64
	UpdateTokensIf(ctx context.Context, generation uint64, t session.Tokens) error
	ClearSessionIf(ctx context.Context, generation uint64) error
}

var _ TokenStore = (*session.Store)(nil)

// Request describes one backend call. Body is encoded as JSON when not nil.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header

	// NoRefresh makes a 401 final. Used by calls that authenticate
	// themselves (login, forgot-password).
	NoRefresh bool
}

// Response is a fully read 2xx backend response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	State      State
}

// Decode unmarshals the body into v
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[Response Decode] %w", err)
	}
	return nil
}

// DecodeData unmarshals the "data" member of a {data: ...} envelope into v,
// or the whole body when there is no envelope.
func (r *Response) DecodeData(v any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, v); err != nil {
			return fmt.Errorf("[Response DecodeData] %w", err)
		}
		return nil
	}
	return r.Decode(v)
}

type Option func(*Client)

// WithHTTPClient replaces the underlying transport client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRefreshPath sets the refresh endpoint path
func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// WithTimeout sets the per attempt timeout of the default transport client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// refreshCall is an in-flight refresh shared by every request that hit a 401
// while it runs.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokens      TokenStore
	refreshPath string

	refreshMu  sync.Mutex
	refreshing *refreshCall
}

// New returns a client for the backend at baseURL. The default transport
// keeps cookies, so a refresh credential set as a cookie is sent back.
func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: DefaultTimeout, Jar: jar},
		tokens:      tokens,
		refreshPath: DefaultRefreshPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Do sends r with the current access token. A 401 on the first attempt
// triggers one refresh and one replay with the new token. Transport errors,
// non-401 errors and a 401 on the replay are returned unchanged; a failed
// refresh returns the refresh error and nothing is replayed.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	body, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}
	a := &attempt{req: r, body: body, requestID: uuid.NewString(), state: StateInitial}

	token := c.tokens.AccessToken()
	resp, err := c.send(ctx, a, token)
	if err != nil {
		return nil, c.finish(a, StateFailed, err)
	}
	if resp.StatusCode != http.StatusUnauthorized || r.NoRefresh {
		return c.complete(a, resp, StateSuccess, StateFailed)
	}

	a.state = StateUnauthorized
	log.Debug().Str("path", r.Path).Str("request_id", a.requestID).Msg("unauthorized, refreshing token")
	a.retried = true
	a.state = StateRefreshing
	newToken, err := c.refresh(ctx, token)
	if err != nil {
		return nil, c.finish(a, StateRefreshFailed, err)
	}

	resp, err = c.send(ctx, a, newToken)
	if err != nil {
		return nil, c.finish(a, StateRetriedFailed, err)
	}
	return c.complete(a, resp, StateRetriedSuccess, StateRetriedFailed)
}

func (c *Client) complete(a *attempt, resp *Response, ok, failed State) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		resp.State = ok
		c.finish(a, ok, nil)
		return resp, nil
	}
	return nil, c.finish(a, failed, newHTTPError(resp.StatusCode, resp.Body))
}

func (c *Client) finish(a *attempt, state State, err error) error {
	a.state = state
	evt := log.Debug()
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Str("method", a.req.Method).
		Str("path", a.req.Path).
		Str("request_id", a.requestID).
		Bool("retried", a.retried).
		Stringer("state", state).
		Msg("api request")
	return err
}

func (c *Client) send(ctx context.Context, a *attempt, token string) (*Response, error) {
	u, err := c.url(a.req.Path, a.req.Query)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if a.body != nil {
		rd = bytes.NewReader(a.body)
	}
	req, err := http.NewRequestWithContext(ctx, a.req.Method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("[Client send] build request: %w", err)
	}
	for k, vs := range a.req.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	// Only the stored token ever authorizes a request
	req.Header.Del("Authorization")
	if token != "" {
		(&oauth2.Token{AccessToken: token}).SetAuthHeader(req)
	}
	if a.body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, a.requestID)

	a.state = StateSent
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("[Client send] read body: %w", err)
	}
	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

// refresh returns a usable access token for a request that failed with
// stale. Concurrent callers share a single refresh; a caller whose token was
// already replaced gets the current one without refreshing again.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	if current := c.tokens.AccessToken(); current != "" && current != stale {
		c.refreshMu.Unlock()
		return current, nil
	}
	if call := c.refreshing; call != nil {
		c.refreshMu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	c.refreshing = call
	c.refreshMu.Unlock()

	// The refresh outlives any single waiter's cancellation
	call.token, call.err = c.doRefresh(context.WithoutCancel(ctx))

	c.refreshMu.Lock()
	c.refreshing = nil
	c.refreshMu.Unlock()
	close(call.done)

	return call.token, call.err
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// doRefresh trades the refresh credential for a new access token. The result
// only lands in the session it was started for: a logout or a new login in
// the meantime wins.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	generation := c.tokens.Generation()
	payload := map[string]string{}
	if rt := c.tokens.RefreshToken(); rt != "" {
		payload["refreshToken"] = rt
	}
	if c.tokens.Generation() != generation {
		return "", fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, apperrors.ErrSessionChanged)
	}
	body, err := encodeBody(payload)
	if err != nil {
		return "", err
	}
	a := &attempt{
		req:       Request{Method: http.MethodPost, Path: c.refreshPath},
		body:      body,
		requestID: uuid.NewString(),
	}

	resp, err := c.send(ctx, a, "")
	if err != nil {
		// Transport failure: the session may still be good
		log.Warn().Err(err).Msg("token refresh unreachable")
		return "", fmt.Errorf("%w: %w: %w", apperrors.ErrRefreshFailed, apperrors.ErrBackendUnreachable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.rejectRefresh(ctx, generation, newHTTPError(resp.StatusCode, resp.Body))
	}

	var rr refreshResponse
	if err := json.Unmarshal(resp.Body, &rr); err != nil || rr.AccessToken == "" {
		// Some backends wrap the token in a {data: ...} envelope
		if derr := resp.DecodeData(&rr); derr != nil || rr.AccessToken == "" {
			return "", c.rejectRefresh(ctx, generation, fmt.Errorf("refresh response has no access token"))
		}
	}

	err = c.tokens.UpdateTokensIf(ctx, generation, session.Tokens{AccessToken: rr.AccessToken, RefreshToken: rr.RefreshToken})
	switch {
	case apperrors.Is(err, apperrors.ErrSessionChanged):
		log.Info().Msg("session changed during refresh, discarding new token")
		return "", fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)
	case err != nil:
		return "", c.rejectRefresh(ctx, generation, err)
	}
	log.Info().Msg("access token refreshed")
	return rr.AccessToken, nil
}

// rejectRefresh ends a session the backend will not refresh
func (c *Client) rejectRefresh(ctx context.Context, generation uint64, cause error) error {
	log.Warn().Err(cause).Msg("token refresh rejected, clearing session")
	if err := c.tokens.ClearSessionIf(ctx, generation); err != nil {
		log.Error().Err(err).Msg("failed to clear session")
	}
	return fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, cause)
}

func (c *Client) url(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("[Client url] %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[Client encodeBody] %w", err)
		}
		return data, nil
	}
}

// newHTTPError builds an HTTPError, lifting the backend's "message" field.
// The field may be a string or a list of validation messages.
func newHTTPError(status int, body []byte) *apperrors.HTTPError {
	httpErr := &apperrors.HTTPError{StatusCode: status, Body: body}
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return httpErr
	}
	var single string
	var list []string
	switch {
	case json.Unmarshal(payload.Message, &single) == nil && single != "":
		httpErr.Message = single
	case json.Unmarshal(payload.Message, &list) == nil && len(list) > 0:
		httpErr.Message = strings.Join(list, "; ")
	case payload.Error != "":
		httpErr.Message = payload.Error
	}
	return httpErr
}
