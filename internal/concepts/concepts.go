package concepts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quotedeck/quotedeck/internal/models"
	"github.com/quotedeck/quotedeck/internal/prompts"
	"github.com/quotedeck/quotedeck/internal/providers"
)

const tryDifferentTheme = "No concepts were generated for this theme. Please try a different theme."

var conceptSchema = &providers.Schema{
	Type: providers.TypeObject,
	Properties: map[string]*providers.Schema{
		"quote":        {Type: providers.TypeString, Description: "A short, powerful quote of at most 15 words"},
		"image_prompt": {Type: providers.TypeString, Description: "A detailed description of an image matching the quote"},
	},
	Required: []string{"quote", "image_prompt"},
}

var responseSchema = &providers.Schema{
	Type: providers.TypeObject,
	Properties: map[string]*providers.Schema{
		"concepts": {Type: providers.TypeArray, Items: conceptSchema},
	},
	Required: []string{"concepts"},
}

type Options struct {
	Model              string
	Count              int
	Temperature        float64
	SuggestTemperature float64
	Prompts            *prompts.Prompts
}

// Generator asks a text model for quote and image prompt pairs
type Generator struct {
	opts Options
}

func NewGenerator(opts Options) *Generator {
	if opts.Prompts == nil {
		opts.Prompts = prompts.Default()
	}
	if opts.Count < 1 {
		opts.Count = 10
	}
	return &Generator{opts: opts}
}

type response struct {
	Concepts []models.Concept `json:"concepts"`
}

// Generate returns the concepts produced for theme. The requested count is a
// hint to the model; any non-empty result is accepted.
func (g *Generator) Generate(ctx context.Context, text providers.TextProvider, theme string) ([]models.Concept, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, &models.EmptyInputError{Field: "theme"}
	}

	prompt, err := g.opts.Prompts.RenderConcepts(prompts.ConceptParams{Theme: theme, Count: g.opts.Count})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := text.GenerateText(ctx, providers.Config{
		Model:          g.opts.Model,
		Temperature:    g.opts.Temperature,
		Prompt:         prompt,
		ResponseSchema: responseSchema,
	})
	if err != nil {
		return nil, &models.GenerationError{Message: "The text model request failed. Please try again.", Err: err}
	}

	concepts, err := parse(raw)
	if err != nil {
		return nil, err
	}

	slog.Info("Concepts generated", "theme", theme, "requested", g.opts.Count, "received", len(concepts))
	return concepts, nil
}

func parse(raw string) ([]models.Concept, error) {
	var resp response
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return nil, &models.GenerationError{Message: "The text model returned a response that could not be parsed. Please try again.", Err: err}
	}
	if len(resp.Concepts) == 0 {
		return nil, &models.GenerationError{Message: tryDifferentTheme}
	}

	concepts := make([]models.Concept, 0, len(resp.Concepts))
	for i, c := range resp.Concepts {
		c.Quote = strings.TrimSpace(c.Quote)
		c.ImagePrompt = strings.TrimSpace(c.ImagePrompt)
		if c.ImagePrompt == "" {
			return nil, &models.GenerationError{
				Message: tryDifferentTheme,
				Err:     fmt.Errorf("concept %d has no image prompt", i+1),
			}
		}
		concepts = append(concepts, c)
	}
	return concepts, nil
}

// stripFences trims any markdown code block the model may wrap JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
