package credential

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"

	"github.com/quotedeck/quotedeck/internal/gemini"
	"github.com/quotedeck/quotedeck/internal/imagen"
	"github.com/quotedeck/quotedeck/internal/models"
	"github.com/quotedeck/quotedeck/internal/providers"
)

type Options struct {
	// ImageBaseURL overrides the image API endpoint. Empty in production.
	ImageBaseURL string
}

// Handle is an initialized pair of model clients built from one API key.
// It is passed explicitly to every generation call.
type Handle struct {
	text        providers.TextProvider
	images      providers.ImageProvider
	fingerprint string
}

// Factory builds a Handle from the raw key a user supplied
type Factory func(ctx context.Context, rawKey string) (*Handle, error)

// NewFactory returns a Factory that builds real clients with opts
func NewFactory(opts Options) Factory {
	return func(ctx context.Context, rawKey string) (*Handle, error) {
		return New(ctx, rawKey, opts)
	}
}

// New trims rawKey and builds the text and image clients from it. Either
// both clients are returned inside a Handle or neither is kept.
func New(ctx context.Context, rawKey string, opts Options) (*Handle, error) {
	key := strings.TrimSpace(rawKey)
	if key == "" {
		return nil, &models.EmptyInputError{Field: "API key"}
	}

	text, err := gemini.New(ctx, key)
	if err != nil {
		return nil, &models.CredentialInitError{Err: err}
	}

	images, err := imagen.New(ctx, key, opts.ImageBaseURL)
	if err != nil {
		if cerr := text.Close(); cerr != nil {
			slog.Warn("Failed to close text client", "err", cerr)
		}
		return nil, &models.CredentialInitError{Err: err}
	}

	h := NewHandle(key, text, images)
	slog.Info("Credential initialized", "fingerprint", h.Fingerprint())
	return h, nil
}

// NewHandle wraps already constructed providers
func NewHandle(key string, text providers.TextProvider, images providers.ImageProvider) *Handle {
	return &Handle{
		text:        text,
		images:      images,
		fingerprint: Fingerprint(key),
	}
}

func (h *Handle) Text() providers.TextProvider {
	return h.text
}

func (h *Handle) Images() providers.ImageProvider {
	return h.images
}

// Fingerprint identifies the key in logs without revealing it
func (h *Handle) Fingerprint() string {
	return h.fingerprint
}

// Close releases any provider that holds a connection
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	var firstErr error
	for _, p := range []any{h.text, h.images} {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Fingerprint returns a short stable hash of key
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:4])
}
