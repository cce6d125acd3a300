package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/middleware"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
	apperrors "github.com/drkhalidabdullah/islamwiki-sub001/pkg/errors"
)

const sessionCookie = "session_id"

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an AppError type to its HTTP status. Anything
// unclassified is logged and reported as an internal error.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		case apperrors.ErrorTypeUnavailable:
			respondWithError(w, http.StatusServiceUnavailable, appErr.Message)
			return
		}
	}

	observability.LoggerFromContext(r.Context()).Error().Err(err).
		Str("path", r.URL.Path).
		Msg("request failed")
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

// actorFromRequest reads the authenticated user id forwarded by the auth
// layer. A missing header means an anonymous caller.
func actorFromRequest(r *http.Request) (*int64, error) {
	raw := strings.TrimSpace(r.Header.Get(middleware.UserIDHeader))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.NewValidationError("invalid user id")
	}
	return &id, nil
}

func sessionFromRequest(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return r.Header.Get("X-Session-ID")
}

// queryInt parses an optional integer parameter; absent or malformed yields fallback.
func queryInt(r *http.Request, name string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return fallback
}

func queryBool(r *http.Request, name string, fallback bool) bool {
	if v, err := strconv.ParseBool(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return fallback
}

func queryInt64Ptr(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid " + name)
	}
	return &v, nil
}
