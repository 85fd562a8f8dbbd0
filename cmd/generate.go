package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/quotedeck/quotedeck/internal/config"
	"github.com/quotedeck/quotedeck/internal/credential"
	"github.com/quotedeck/quotedeck/internal/models"
	"github.com/quotedeck/quotedeck/internal/slideshow"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		theme    string
		out      string
		surprise bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a slideshow PDF from a theme",
		Long: `Runs the full pipeline from the terminal: quotes, images and PDF layout.

The API key is read from GEMINI_API_KEY (environment or .env).`,
		Example: `  quotedeck generate --theme "The price of chasing dreams"
  quotedeck generate --surprise --out deck.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			service, handle, err := setup(ctx, opts.cfg)
			if err != nil {
				return report(err)
			}
			defer handle.Close()

			if surprise {
				err = runWithSpinner(ctx, "Picking a theme", func(ctx context.Context) error {
					suggested, err := service.Suggest(ctx, handle)
					theme = suggested
					return err
				})
				if err != nil {
					return report(err)
				}
				if theme == "" {
					return report(errors.New("no theme was suggested"))
				}
				fmt.Println(infoStyle.Render("Theme: " + theme))
			}

			var doc *models.Document
			err = runWithSpinner(ctx, "Generating slideshow", func(ctx context.Context) error {
				generated, err := service.Generate(ctx, handle, theme)
				doc = generated
				return err
			})
			if err != nil {
				return report(err)
			}
			if doc == nil {
				return report(errors.New("no slideshow was produced"))
			}

			if out == "" {
				out = doc.Filename
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			if err := os.WriteFile(out, doc.Bytes, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			fmt.Println(titleStyle.Render(fmt.Sprintf("%d pages written to %s", doc.PageCount, out)))
			for i, caption := range doc.Captions {
				fmt.Println(infoStyle.Render(fmt.Sprintf("%2d. %s", i+1, caption)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&theme, "theme", "t", "", "Theme for the slideshow")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default derived from the theme)")
	cmd.Flags().BoolVar(&surprise, "surprise", false, "Let the text model pick the theme")
	cmd.MarkFlagsMutuallyExclusive("theme", "surprise")

	return cmd
}

func setup(ctx context.Context, cfg *config.Config) (*slideshow.Service, *credential.Handle, error) {
	service, err := slideshow.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	handle, err := credential.New(ctx, cfg.APIKey, credential.Options{})
	if err != nil {
		return nil, nil, err
	}
	return service, handle, nil
}

var errInterrupted = errors.New("interrupted before the task finished")

// spin shows a spinner titled title while action runs. It returns early when
// ctx ends or the user quits the spinner.
var spin = func(ctx context.Context, title string, action func()) error {
	return spinner.New().
		Title(title).
		Context(ctx).
		Action(action).
		Run()
}

// runWithSpinner runs fn under a spinner. fn's result only counts when it ran
// to completion; if the spinner stops first, fn is cancelled and an error is
// returned.
func runWithSpinner(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	var fnErr error
	spinErr := spin(ctx, title, func() {
		defer close(done)
		fnErr = fn(ctx)
	})

	select {
	case <-done:
	default:
		if spinErr == nil {
			spinErr = ctx.Err()
		}
		if spinErr == nil {
			spinErr = errInterrupted
		}
		return fmt.Errorf("%s: %w", strings.ToLower(title), spinErr)
	}

	if fnErr != nil {
		return fnErr
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}

// report prints the user facing message and hands err back to cobra
func report(err error) error {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+models.UserMessage(err)))
	return err
}
