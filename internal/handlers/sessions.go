package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/quotedeck/quotedeck/internal/storage"
)

func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := h.sessionStore.Get(h.sessionID(w, r))
	state := storage.StateIdle
	if ok {
		state = session.State
	}
	h.writeJSON(w, map[string]any{
		"state":          state,
		"has_credential": ok && session.Handle != nil,
	})
}

// HandleDocument serves a PDF produced in the caller's session
func (h *Handler) HandleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	documentID := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	doc, ok := h.sessionStore.Document(h.sessionID(w, r), documentID)
	if !ok {
		h.writeError(w, "Document not found", http.StatusNotFound)
		return
	}

	disposition := "inline"
	if r.URL.Query().Get("download") == "1" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.Filename))
	w.Header().Set("Cache-Control", "private, no-store")
	http.ServeContent(w, r, doc.Filename, doc.CreatedAt, bytes.NewReader(doc.Bytes))
}
