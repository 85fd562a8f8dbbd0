package handlers

import (
	"context"
	"net/http"

	"github.com/quotedeck/quotedeck/internal/models"
	"github.com/quotedeck/quotedeck/internal/storage"
)

// HandleCredential builds model clients from a pasted API key and binds them
// to the caller's session. A rejected key leaves the session without clients.
func (h *Handler) HandleCredential(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		APIKey string `json:"api_key"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	sessionID := h.sessionID(w, r)
	if session, ok := h.sessionStore.Get(sessionID); ok && session.State == storage.StateLoading {
		h.writeFailure(w, r, models.ErrBusy)
		return
	}

	// the clients outlive this request
	handle, err := h.newHandle(context.WithoutCancel(r.Context()), request.APIKey)
	if err != nil {
		if clearErr := h.sessionStore.SetHandle(sessionID, nil); clearErr != nil {
			h.writeFailure(w, r, clearErr)
			return
		}
		h.writeFailure(w, r, err)
		return
	}

	if err := h.sessionStore.SetHandle(sessionID, handle); err != nil {
		_ = handle.Close()
		h.writeFailure(w, r, err)
		return
	}

	h.writeJSON(w, map[string]string{
		"status":      "ready",
		"fingerprint": handle.Fingerprint(),
	})
}
