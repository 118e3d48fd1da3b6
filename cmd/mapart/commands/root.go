package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/mapart/internal/pkg/config"
	"github.com/samirrijal/mapart/internal/pkg/logging"
)

var (
	cfg      *config.Config
	logger   *slog.Logger
	logLevel string
)

func Execute() error {
	root := &cobra.Command{
		Use:          "mapart",
		Short:        "Turn a drawn area into a street map SVG",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load("mapart-cli")
			if err != nil {
				return err
			}
			cfg = c
			setupLogger(cfg.Log.Level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default from config)")

	root.AddCommand(exportCmd(), locateCmd(), geocodeCmd(), watchCmd())
	return root.Execute()
}

// setupLogger logs to stderr since stdout may carry a document.
func setupLogger(level string) {
	if logLevel != "" {
		level = logLevel
	}
	logger = logging.New(os.Stderr, level, "text")
	slog.SetDefault(logger)
}
