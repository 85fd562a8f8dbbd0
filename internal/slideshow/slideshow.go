package slideshow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quotedeck/quotedeck/internal/composer"
	"github.com/quotedeck/quotedeck/internal/concepts"
	"github.com/quotedeck/quotedeck/internal/config"
	"github.com/quotedeck/quotedeck/internal/credential"
	"github.com/quotedeck/quotedeck/internal/imagegen"
	"github.com/quotedeck/quotedeck/internal/models"
	"github.com/quotedeck/quotedeck/internal/prompts"
)

// Service runs the theme to document pipeline
type Service struct {
	concepts *concepts.Generator
	images   *imagegen.Generator
	composer *composer.Composer
}

func NewService(c *concepts.Generator, i *imagegen.Generator, comp *composer.Composer) *Service {
	return &Service{concepts: c, images: i, composer: comp}
}

// New builds a Service from configuration
func New(cfg *config.Config) (*Service, error) {
	p, err := prompts.LoadFrom(cfg.Prompts.Path)
	if err != nil {
		return nil, err
	}

	return NewService(
		concepts.NewGenerator(concepts.Options{
			Model:              cfg.Text.Model,
			Count:              cfg.Text.ConceptCount,
			Temperature:        cfg.Text.Temperature,
			SuggestTemperature: cfg.Text.SuggestTemperature,
			Prompts:            p,
		}),
		imagegen.NewGenerator(imagegen.Options{
			Model:       cfg.Image.Model,
			StyleSuffix: cfg.Image.StyleSuffix,
			MIMEType:    cfg.Image.MIMEType,
			AspectRatio: cfg.Image.AspectRatio,
			Concurrency: cfg.Image.Concurrency,
			Interval:    cfg.Image.Interval,
			Prompts:     p,
		}),
		composer.New(composer.Options{
			PageSize:      cfg.Document.PageSize,
			CaptionHeight: cfg.Document.CaptionHeight,
			CaptionMargin: cfg.Document.CaptionMargin,
			FontSize:      cfg.Document.FontSize,
			FontFamily:    cfg.Document.FontFamily,
		}),
	), nil
}

// Generate turns theme into a composed document. Images are requested only
// after every concept is known, and nothing is composed unless every image
// succeeded.
func (s *Service) Generate(ctx context.Context, h *credential.Handle, theme string) (*models.Document, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, &models.EmptyInputError{Field: "theme"}
	}
	if h == nil {
		return nil, models.ErrNoCredential
	}

	start := time.Now()
	slog.Info("Generating slideshow", "theme", theme, "credential", h.Fingerprint())

	cs, err := s.concepts.Generate(ctx, h.Text(), theme)
	if err != nil {
		return nil, err
	}

	imagePrompts := make([]string, len(cs))
	for i, c := range cs {
		imagePrompts[i] = c.ImagePrompt
	}

	images, err := s.images.Generate(ctx, h.Images(), imagePrompts)
	if err != nil {
		return nil, err
	}

	slides, err := Pair(cs, images)
	if err != nil {
		return nil, err
	}

	doc, err := s.composer.Compose(theme, slides)
	if err != nil {
		return nil, err
	}

	slog.Info("Slideshow ready",
		"theme", theme,
		"document_id", doc.ID,
		"pages", doc.PageCount,
		"duration_ms", time.Since(start).Milliseconds())
	return doc, nil
}

// Suggest asks the text model for a theme
func (s *Service) Suggest(ctx context.Context, h *credential.Handle) (string, error) {
	if h == nil {
		return "", models.ErrNoCredential
	}
	theme, err := s.concepts.Suggest(ctx, h.Text())
	if err != nil {
		return "", err
	}
	slog.Info("Theme suggested", "theme", theme)
	return theme, nil
}

// Pair joins concepts and images by position
func Pair(cs []models.Concept, images []models.GeneratedImage) ([]models.Slide, error) {
	if len(cs) != len(images) {
		return nil, &models.LayoutError{Err: fmt.Errorf("got %d images for %d concepts", len(images), len(cs))}
	}

	slides := make([]models.Slide, len(cs))
	for i := range cs {
		slides[i] = models.Slide{Concept: cs[i], Image: images[i]}
	}
	return slides, nil
}
