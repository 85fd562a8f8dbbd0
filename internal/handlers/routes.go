package handlers

import (
	"log/slog"
	"net/http"
)

// Routes registers every endpoint of the web interface
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/credential", h.HandleCredential)
	mux.HandleFunc("/api/generate", h.HandleGenerate)
	mux.HandleFunc("/api/suggest", h.HandleSuggest)
	mux.HandleFunc("/api/state", h.HandleState)
	mux.HandleFunc("/api/documents/", h.HandleDocument)
	mux.HandleFunc("/", h.HandleStatic)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}
