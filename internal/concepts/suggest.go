package concepts

import (
	"context"
	"fmt"
	"strings"

	"github.com/quotedeck/quotedeck/internal/models"
	"github.com/quotedeck/quotedeck/internal/providers"
)

// Suggest asks the text model for a short theme phrase
func (g *Generator) Suggest(ctx context.Context, text providers.TextProvider) (string, error) {
	prompt, err := g.opts.Prompts.RenderSuggest()
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	raw, err := text.GenerateText(ctx, providers.Config{
		Model:       g.opts.Model,
		Temperature: g.opts.SuggestTemperature,
		Prompt:      prompt,
	})
	if err != nil {
		return "", &models.GenerationError{Message: "Could not suggest a theme. Please try again.", Err: err}
	}

	theme := cleanTheme(raw)
	if theme == "" {
		return "", &models.GenerationError{Message: "The text model did not suggest a theme. Please try again."}
	}
	return theme, nil
}

func cleanTheme(raw string) string {
	theme := strings.TrimSpace(raw)
	if i := strings.IndexByte(theme, '\n'); i >= 0 {
		theme = strings.TrimSpace(theme[:i])
	}
	theme = strings.Trim(theme, "\"'“”*")
	theme = strings.TrimRight(theme, ".!")
	return strings.TrimSpace(theme)
}
