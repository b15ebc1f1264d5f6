// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/i18n"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/participation"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/Shivanand-hulikatti/eventhub/internal/service"
)

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

// formInt parses an integer form field, treating anything unparsable as 0.
func formInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		return 0
	}
	return n
}

// formBool reads an HTML checkbox.
func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(key))) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// ─── Responses ────────────────────────────────────────────────────────────────

// Responder builds localised banner messages and error envelopes.
type Responder struct {
	ttl    time.Duration
	logger *slog.Logger
}

// NewResponder constructs a Responder whose banners self-clear after ttl.
func NewResponder(ttl time.Duration, logger *slog.Logger) *Responder {
	return &Responder{ttl: ttl, logger: logger}
}

// Message returns a banner in the request's language.
func (rs *Responder) Message(r *http.Request, kind model.MessageKind, key string, args ...any) *model.Message {
	text := i18n.Printer(languageFrom(r)).Sprintf(key, args...)
	return &model.Message{Text: text, Kind: kind, DismissAfterMS: rs.ttl.Milliseconds()}
}

// Error writes an error envelope with a localised banner.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, status int, code, key string, args ...any) {
	writeJSON(w, status, model.ErrorResponse{
		Error:   code,
		Message: rs.Message(r, model.MessageError, key, args...),
	})
}

// Fail classifies err, logs it and writes the matching error response.
func (rs *Responder) Fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, key, args := classify(err)
	if status >= http.StatusInternalServerError {
		rs.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		rs.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	rs.Error(w, r, status, code, key, args...)
}

func classify(err error) (status int, code, key string, args []any) {
	switch {
	case errors.Is(err, participation.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not_authenticated", i18n.KeyLoginRequired, nil
	case errors.Is(err, participation.ErrEventFull):
		return http.StatusConflict, "event_full", i18n.KeyEventFull, nil
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found", i18n.KeyEventNotFound, nil
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden", i18n.KeyEventNotFound, nil
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid_request", i18n.KeyInvalidRequest, []any{validationDetail(err)}
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "email_taken", i18n.KeyEmailTaken, nil
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", i18n.KeyInvalidCredentials, nil
	case errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_email", i18n.KeyInvalidEmail, nil
	case errors.Is(err, auth.ErrPasswordTooShort):
		return http.StatusBadRequest, "password_too_short", i18n.KeyPasswordTooShort, []any{auth.MinPasswordLength}
	case errors.Is(err, participation.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable", i18n.KeyStoreUnavailable, nil
	default:
		return http.StatusInternalServerError, "internal", i18n.KeyInternal, nil
	}
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
