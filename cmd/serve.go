package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/quotedeck/quotedeck/internal/credential"
	"github.com/quotedeck/quotedeck/internal/handlers"
	"github.com/quotedeck/quotedeck/internal/middleware"
	"github.com/quotedeck/quotedeck/internal/slideshow"
	"github.com/quotedeck/quotedeck/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long: `Starts the Quotedeck web interface.

Paste a Gemini API key into the page, enter a theme (or let the model
suggest one) and download the generated slideshow. Keys are kept in memory
for the browser session only.`,
		Example: `  # Start server on default port 8888
  quotedeck serve

  # Start server on custom port
  quotedeck serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if port != "" {
				cfg.Server.Port = port
			}

			service, err := slideshow.New(cfg)
			if err != nil {
				return err
			}
			sessions := storage.New(cfg.Server.SessionTTL)
			defer sessions.Flush()

			handler := handlers.New(sessions, service, credential.NewFactory(credential.Options{}), cfg.Server.StaticDir)

			addr := ":" + cfg.Server.Port
			server := &http.Server{
				Addr: addr,
				Handler: middleware.Chain(handler.Routes(),
					middleware.WithRequestID,
					middleware.WithRequestLog,
					middleware.WithSecurityHeaders,
				),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Quotedeck interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...", "sessions", sessions.Count())
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default from config, 8888)")

	return cmd
}
