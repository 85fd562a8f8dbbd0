package cmd

import (
	"os"

	"github.com/quotedeck/quotedeck/internal/config"
	"github.com/quotedeck/quotedeck/internal/middleware"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "quotedeck",
		Short: "Turn a theme into an illustrated quote slideshow PDF",
		Long: `Quotedeck asks a Gemini text model for short quotes about a theme,
renders one Imagen picture per quote and lays them out as a landscape PDF.

Use the web interface (serve) or generate a deck straight from the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			opts.cfg = cfg

			// the server logs JSON, interactive commands log text
			middleware.InitLogger(os.Stderr, cfg.Log.Level, cmd.Name() == "serve")
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath, "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newSuggestCmd(opts))

	return cmd
}
