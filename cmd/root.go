package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vstratful/searchthatterm/internal/config"
	"github.com/vstratful/searchthatterm/internal/logging"
	"github.com/vstratful/searchthatterm/internal/page"
	"github.com/vstratful/searchthatterm/internal/relay"
	"github.com/vstratful/searchthatterm/internal/tui/reader"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "searchthatterm [url|file]",
	Short: "Read a page in the terminal and explain what you select",
	Long: `SearchThatTerm opens a web page or local HTML file in your terminal.
Select text with the mouse, click the ✦ Explain trigger, and an AI explanation
streams into a popup. Dive deeper to keep chatting about the selection.

Examples:
  searchthatterm https://en.wikipedia.org/wiki/Mitochondrion
  searchthatterm ./notes.html
  searchthatterm explain "mitochondria" --context "The mitochondria is the powerhouse of the cell."
  searchthatterm config set-key`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runReader(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default from settings)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func loadSettings() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// startLogging opens the rotating log file. A log file that cannot be
// created is reported once and logging is discarded. --log-level applies to
// this run only and is never written back to the settings file.
func startLogging(cfg *config.Config) (*slog.Logger, io.Closer) {
	logger, closer, err := logging.Init(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	if logLevel != "" {
		logging.SetLevel(logLevel)
	}
	return logger, closer
}

// ensureAPIKey runs the first-run prompt when no key is configured and saves
// the answer.
func ensureAPIKey(cfg *config.Config) error {
	if cfg.Credential() != "" {
		return nil
	}
	key, err := config.PromptForAPIKey()
	if err != nil {
		return err
	}
	cfg.APIKey = key
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save config: %v\n", err)
		return nil
	}
	if path, err := config.GetConfigPath(); err == nil {
		fmt.Printf("\nAPI key saved to %s\n\n", path)
	}
	return nil
}

func runReader(ctx context.Context, source string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if err := ensureAPIKey(cfg); err != nil {
		return err
	}

	logger, closer := startLogging(cfg)
	defer closer.Close()

	doc, err := page.Load(ctx, source)
	if err != nil {
		return err
	}
	logger.Info("page_loaded", "source", source, "blocks", len(doc.Blocks()), "title", doc.Title())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, err := config.Watch(ctx)
	if err != nil {
		logger.Warn("config_watch_unavailable", "error", err)
		updates = nil
	}

	r := relay.New(config.Load, relay.WithLogger(logger))
	defer r.Close()

	return reader.Run(reader.Config{
		Document:        doc,
		Relay:           r,
		Settings:        cfg,
		SettingsUpdates: updates,
		SaveSettings:    config.Save,
		Logger:          logger,
	})
}
