package imagegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quotedeck/quotedeck/internal/models"
	"github.com/quotedeck/quotedeck/internal/prompts"
	"github.com/quotedeck/quotedeck/internal/providers"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var errNoImage = errors.New("the image model returned no image")

type Options struct {
	Model       string
	StyleSuffix string
	MIMEType    string
	AspectRatio string
	// Concurrency caps simultaneous requests. Zero runs every prompt at once.
	Concurrency int
	// Interval paces request starts. Zero disables pacing.
	Interval time.Duration
	Prompts  *prompts.Prompts
}

// Generator renders one image per prompt in parallel
type Generator struct {
	opts Options
}

func NewGenerator(opts Options) *Generator {
	if opts.Prompts == nil {
		opts.Prompts = prompts.Default()
	}
	if opts.MIMEType == "" {
		opts.MIMEType = "image/jpeg"
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = "16:9"
	}
	return &Generator{opts: opts}
}

// Generate issues every request concurrently and returns the images in input
// order. The first failure cancels the remaining requests and no partial
// result is returned.
func (g *Generator) Generate(ctx context.Context, images providers.ImageProvider, imagePrompts []string) ([]models.GeneratedImage, error) {
	if len(imagePrompts) == 0 {
		return []models.GeneratedImage{}, nil
	}

	results := make([]models.GeneratedImage, len(imagePrompts))
	eg, egCtx := errgroup.WithContext(ctx)
	if g.opts.Concurrency > 0 {
		eg.SetLimit(g.opts.Concurrency)
	}

	var limiter *rate.Limiter
	if g.opts.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(g.opts.Interval), 1)
	}

	start := time.Now()
	for i, p := range imagePrompts {
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(egCtx); err != nil {
					return &models.ImageGenerationError{Index: i, Prompt: p, Err: err}
				}
			}

			img, err := g.generateOne(egCtx, images, p)
			if err != nil {
				return &models.ImageGenerationError{Index: i, Prompt: p, Err: err}
			}
			results[i] = img
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		slog.Error("Image batch failed", "count", len(imagePrompts), "err", err)
		return nil, err
	}

	slog.Info("Images generated", "count", len(results), "duration_ms", time.Since(start).Milliseconds())
	return results, nil
}

func (g *Generator) generateOne(ctx context.Context, images providers.ImageProvider, imagePrompt string) (models.GeneratedImage, error) {
	prompt, err := g.opts.Prompts.RenderImage(prompts.ImageParams{Prompt: imagePrompt, Style: g.opts.StyleSuffix})
	if err != nil {
		return models.GeneratedImage{}, fmt.Errorf("render prompt: %w", err)
	}

	out, err := images.GenerateImages(ctx, providers.ImageRequest{
		Model:       g.opts.Model,
		Prompt:      prompt,
		Count:       1,
		MIMEType:    g.opts.MIMEType,
		AspectRatio: g.opts.AspectRatio,
	})
	if err != nil {
		return models.GeneratedImage{}, err
	}
	if len(out) == 0 || len(out[0].Data) == 0 {
		return models.GeneratedImage{}, errNoImage
	}

	mimeType := out[0].MIMEType
	if mimeType == "" {
		mimeType = g.opts.MIMEType
	}
	return models.GeneratedImage{Data: out[0].Data, MIMEType: mimeType}, nil
}
