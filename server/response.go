package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/backoffice-console/guard"

	apperrors "github.com/jrsteele09/backoffice-console/internal/errors"
	"github.com/rs/zerolog/log"
)

type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, errText, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: errText, Message: msg})
}

// writeBackendError maps an error from the backend or the session layer onto
// a gateway response. A lost session answers 401 so the caller goes back to
// login; backend statuses and messages are passed through.
func writeBackendError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrBackendUnreachable):
		log.Error().Err(err).Msg("backend unreachable")
		writeError(w, http.StatusBadGateway, "backend unreachable", "")
		return
	case sessionLost(err):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Session expired, please log in again.")
		return
	case apperrors.Is(err, apperrors.ErrSessionClosed):
		writeError(w, http.StatusServiceUnavailable, "session closed", "")
		return
	}

	status := apperrors.StatusCode(err)
	if status == 0 {
		log.Error().Err(err).Msg("backend unreachable")
		writeError(w, http.StatusBadGateway, "backend unreachable", "")
		return
	}
	writeError(w, status, http.StatusText(status), apperrors.Message(err, ""))
}

// writeViewError answers a guarded view. Losing the session or a backend
// refusal redirects like the guard does; anything else is a JSON error.
func writeViewError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrBackendUnreachable):
		// session is intact
	case sessionLost(err):
		http.Redirect(w, r, guard.PathLogin, http.StatusSeeOther)
		return
	case apperrors.Is(err, apperrors.ErrForbidden):
		http.Redirect(w, r, guard.PathUnauthorized, http.StatusSeeOther)
		return
	}
	writeBackendError(w, err)
}

func sessionLost(err error) bool {
	return apperrors.Is(err, apperrors.ErrRefreshFailed) || apperrors.Is(err, apperrors.ErrUnauthenticated)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
