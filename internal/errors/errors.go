package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the console
var (
	// Authentication errors
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// Token errors
	ErrRefreshFailed = errors.New("token refresh failed")
	ErrInvalidToken  = errors.New("invalid token")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// Session errors
	ErrSessionClosed  = errors.New("session closed")
	ErrSessionChanged = errors.New("session changed")

	// Transport errors
	ErrBackendUnreachable = errors.New("backend unreachable")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// HTTPError is a non-2xx response returned by the backend.
// Message holds the backend's "message" field when it sent one.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is maps well known status codes onto the sentinel errors so callers can
// use errors.Is(err, ErrNotFound) without unpacking the status.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not an HTTPError
func StatusCode(err error) int {
	var httpErr *HTTPError
	if As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// Message returns the backend message carried by err, falling back to fallback
func Message(err error, fallback string) string {
	var httpErr *HTTPError
	if As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return fallback
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
