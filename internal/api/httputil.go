package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/session"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

// httpError sends a JSON error response. The clientMsg is returned to the caller.
// Optional internalDetails are logged server-side but never sent to the client.
func httpError(w http.ResponseWriter, status int, clientMsg string, internalDetails ...string) {
	if len(internalDetails) > 0 {
		log.Error().
			Int("status", status).
			Str("clientMsg", clientMsg).
			Strs("internalDetails", internalDetails).
			Msg("HTTP error with internal details")
	}
	respondJSON(w, status, map[string]string{"error": clientMsg})
}

// statusFor maps a normalized remote failure to an HTTP status.
func statusFor(c gemini.Category) int {
	switch c {
	case gemini.CategoryRateLimited:
		return http.StatusTooManyRequests
	case gemini.CategoryConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// respondError writes err with the status its type implies. Remote failures
// carry only their category message.
func respondError(w http.ResponseWriter, err error) {
	var (
		remote *gemini.Error
		idxErr *stylist.IndexError
	)
	switch {
	case errors.Is(err, session.ErrNotFound):
		httpError(w, http.StatusNotFound, "session not found")
	case errors.As(err, &idxErr):
		httpError(w, http.StatusNotFound, idxErr.Error())
	case errors.As(err, &remote):
		httpError(w, statusFor(remote.Category), remote.Error(), remote.Category.String(), errorCause(remote))
	default:
		httpError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

func errorCause(e *gemini.Error) string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched
// when optional is true.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	if optional && errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httpError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	httpError(w, http.StatusBadRequest, "invalid request body")
	return false
}
