package handlers

import (
	"net/http"
	"strings"

	"github.com/quotedeck/quotedeck/internal/models"
)

type generateResponse struct {
	DocumentID  string   `json:"document_id"`
	PreviewURL  string   `json:"preview_url"`
	DownloadURL string   `json:"download_url"`
	Filename    string   `json:"filename"`
	Pages       int      `json:"pages"`
	Captions    []string `json:"captions"`
}

// HandleGenerate runs the full pipeline for the posted theme. Only one
// generation or suggestion runs per session at a time.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Theme string `json:"theme"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	theme := strings.TrimSpace(request.Theme)
	if theme == "" {
		h.writeFailure(w, r, &models.EmptyInputError{Field: "theme"})
		return
	}

	sessionID := h.sessionID(w, r)
	handle, err := h.sessionStore.Begin(sessionID)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	defer h.sessionStore.Finish(sessionID)

	h.sessionStore.ClearDocuments(sessionID)

	doc, err := h.service.Generate(r.Context(), handle, theme)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.sessionStore.AddDocument(sessionID, doc)

	url := "/api/documents/" + doc.ID
	h.writeJSON(w, generateResponse{
		DocumentID:  doc.ID,
		PreviewURL:  url,
		DownloadURL: url + "?download=1",
		Filename:    doc.Filename,
		Pages:       doc.PageCount,
		Captions:    doc.Captions,
	})
}

// HandleSuggest fills in a theme for the "surprise me" action
func (h *Handler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := h.sessionID(w, r)
	handle, err := h.sessionStore.Begin(sessionID)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	defer h.sessionStore.Finish(sessionID)

	theme, err := h.service.Suggest(r.Context(), handle)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, map[string]string{"theme": theme})
}
