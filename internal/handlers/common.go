package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/quotedeck/quotedeck/internal/credential"
	"github.com/quotedeck/quotedeck/internal/middleware"
	"github.com/quotedeck/quotedeck/internal/models"
	"github.com/quotedeck/quotedeck/internal/slideshow"
	"github.com/quotedeck/quotedeck/internal/storage"
)

const sessionCookie = "quotedeck_session"

type Handler struct {
	sessionStore *storage.SessionStore
	service      *slideshow.Service
	newHandle    credential.Factory
	staticDir    string
}

func New(sessionStore *storage.SessionStore, service *slideshow.Service, newHandle credential.Factory, staticDir string) *Handler {
	if staticDir == "" {
		staticDir = "static"
	}
	return &Handler{
		sessionStore: sessionStore,
		service:      service,
		newHandle:    newHandle,
		staticDir:    staticDir,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	h.writeJSONStatus(w, data, http.StatusOK)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	h.writeJSONStatus(w, map[string]string{"error": message}, code)
}

// writeFailure logs err and answers with its user facing message
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	middleware.Logger(r.Context()).Error("Request failed", "path", r.URL.Path, "status", code, "err", err)
	h.writeJSONStatus(w, map[string]string{"error": models.UserMessage(err)}, code)
}

func statusFor(err error) int {
	var (
		emptyErr  *models.EmptyInputError
		credErr   *models.CredentialInitError
		genErr    *models.GenerationError
		imgErr    *models.ImageGenerationError
		layoutErr *models.LayoutError
	)
	switch {
	case errors.As(err, &emptyErr), errors.As(err, &credErr):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNoCredential):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &genErr), errors.As(err, &imgErr):
		return http.StatusBadGateway
	case errors.As(err, &layoutErr):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Session helpers

// sessionID returns the caller's session id, issuing a cookie on first contact
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			h.sessionStore.Ensure(c.Value)
			return c.Value
		}
	}

	id := uuid.NewString()
	h.sessionStore.Ensure(id)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Debug("Session started", "session_id", id)
	return id
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
