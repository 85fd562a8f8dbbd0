package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Ask the text model for a slideshow theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			service, handle, err := setup(ctx, opts.cfg)
			if err != nil {
				return report(err)
			}
			defer handle.Close()

			var theme string
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

			fmt.Println(theme)
			return nil
		},
	}
}
