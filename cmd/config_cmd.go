package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/vstratful/searchthatterm/internal/api"
	"github.com/vstratful/searchthatterm/internal/config"
	"github.com/vstratful/searchthatterm/internal/logging"
	"github.com/vstratful/searchthatterm/internal/tui/picker"
)

const validateTimeout = 30 * time.Second

var (
	addModelLabel      string
	addModelUse        bool
	addModelNoValidate bool
)

// newValidationClient builds the client add-model checks ids with. Tests
// replace it.
var newValidationClient = func(apiKey string) api.Client {
	return api.DefaultClient(apiKey)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show or change the settings shared by every running reader.

Changes are saved to the settings file and picked up by open readers
immediately.

Examples:
  searchthatterm config show
  searchthatterm config set-key
  searchthatterm config set-model google/gemma-3-27b-it:free
  searchthatterm config scroll-with-page off
  searchthatterm config add-model anthropic/claude-3.5-haiku --label "Claude Haiku"`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		return printSettings(cmd.OutOrStdout(), cfg)
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [KEY]",
	Short: "Store your OpenRouter API key",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		var key string
		if len(args) == 1 {
			key = strings.TrimSpace(args[0])
		} else if key, err = config.PromptForAPIKey(); err != nil {
			return err
		}
		if key == "" {
			return errors.New("API key cannot be empty")
		}
		cfg.APIKey = key
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
		return nil
	},
}

var configSetModelCmd = &cobra.Command{
	Use:   "set-model [MODEL]",
	Short: "Choose the model used for explanations",
	Long: `Choose the model used for explanations and chats. MODEL may be a model
id or the label of a configured model. Without MODEL a picker opens.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return pickModel(cmd.OutOrStdout(), cfg, false)
		}
		opt, ok := findModel(cfg, args[0])
		if !ok {
			return fmt.Errorf("unknown model %q: add it first with `searchthatterm config add-model`", args[0])
		}
		return selectModel(cmd.OutOrStdout(), cfg, opt)
	},
}

var configScrollCmd = &cobra.Command{
	Use:       "scroll-with-page on|off",
	Short:     "Choose whether popups move with the page when it scrolls",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		cfg.SetFollowScroll(follow)
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scroll with page: %s\n", onOff(follow))
		return nil
	},
}

var configAddModelCmd = &cobra.Command{
	Use:   "add-model MODEL",
	Short: "Add a custom model",
	Long: `Add an OpenRouter model id to the model list. The id is checked with a
one-token request before it is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		opt, err := cfg.CheckNewModel(config.ModelOption{Value: args[0], Label: addModelLabel})
		if err != nil {
			return err
		}

		if !addModelNoValidate {
			key := cfg.Credential()
			if key == "" {
				return errors.New("API key not configured. Run `searchthatterm config set-key` first")
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Checking %s...\n", opt.Value)
			ctx, cancel := context.WithTimeout(cmd.Context(), validateTimeout)
			defer cancel()
			err := api.ValidateModel(ctx, newValidationClient(key), opt.Value)
			if errors.Is(err, api.ErrModelNotFound) {
				return fmt.Errorf("OpenRouter does not serve %s: %w", opt.Value, err)
			}
			if err != nil {
				return fmt.Errorf("model could not be used: %w", err)
			}
		}

		if err := cfg.AddCustomModel(opt); err != nil {
			return err
		}
		if addModelUse {
			cfg.Model = opt.Value
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", opt.Label, opt.Value)
		return nil
	},
}

var configRemoveModelCmd = &cobra.Command{
	Use:   "remove-model MODEL",
	Short: "Remove a custom model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		opt, ok := findModel(cfg, args[0])
		if !ok || !cfg.RemoveCustomModel(opt.Value) {
			return fmt.Errorf("%q is not a custom model", args[0])
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", opt.Value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetKeyCmd, configSetModelCmd, configScrollCmd, configAddModelCmd, configRemoveModelCmd)

	configAddModelCmd.Flags().StringVarP(&addModelLabel, "label", "l", "", "Display name (default: the model id)")
	configAddModelCmd.Flags().BoolVar(&addModelUse, "use", false, "Also make it the current model")
	configAddModelCmd.Flags().BoolVar(&addModelNoValidate, "no-validate", false, "Skip the test request")
}

func printSettings(w io.Writer, cfg *config.Config) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	key := "not set"
	switch {
	case strings.TrimSpace(os.Getenv(config.EnvAPIKey)) != "":
		key = maskKey(cfg.Credential()) + " (from " + config.EnvAPIKey + ")"
	case cfg.Credential() != "":
		key = maskKey(cfg.Credential())
	}
	model := cfg.Model
	if opt, ok := findModel(cfg, cfg.Model); ok && opt.Label != opt.Value {
		model = opt.Label + " (" + opt.Value + ")"
	}
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = logging.DefaultPath()
	}

	fmt.Fprintf(w, "Settings file:    %s\n", path)
	fmt.Fprintf(w, "API key:          %s\n", key)
	fmt.Fprintf(w, "Model:            %s\n", model)
	fmt.Fprintf(w, "Scroll with page: %s\n", onOff(cfg.FollowScroll()))
	fmt.Fprintf(w, "Log level:        %s\n", cfg.LogLevel)
	fmt.Fprintf(w, "Log file:         %s\n", logFile)
	if len(cfg.CustomModels) > 0 {
		fmt.Fprintln(w, "Custom models:")
		for _, m := range cfg.CustomModels {
			fmt.Fprintf(w, "  %-40s %s\n", m.Value, m.Label)
		}
	}
	return nil
}

// findModel looks a configured model up by id, or by label ignoring case.
func findModel(cfg *config.Config, name string) (config.ModelOption, bool) {
	name = strings.TrimSpace(name)
	for _, m := range cfg.AllModels() {
		if m.Value == name {
			return m, true
		}
	}
	for _, m := range cfg.AllModels() {
		if strings.EqualFold(m.Label, name) {
			return m, true
		}
	}
	return config.ModelOption{}, false
}

func selectModel(w io.Writer, cfg *config.Config, opt config.ModelOption) error {
	cfg.Model = opt.Value
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(w, "Model set to %s\n", opt.Label)
	return nil
}

// pickModel opens the model picker and saves the choice. With remote set it
// lists the live OpenRouter catalogue and adds the chosen model to the
// custom list when it is new.
func pickModel(w io.Writer, cfg *config.Config, remote bool) error {
	m := picker.NewOptionPicker(cfg, config.DefaultTerminalWidth, 24)
	var load tea.Cmd
	if remote {
		key := cfg.Credential()
		if key == "" {
			return errors.New("API key not configured. Run `searchthatterm config set-key` first")
		}
		m = picker.NewModelPicker(config.DefaultTerminalWidth, 24)
		load = picker.LoadModels(context.Background(), newCatalogClient(key))
	}

	item, err := picker.Run(m, load)
	if err != nil {
		return err
	}
	return saveChoice(w, cfg, item)
}

func saveChoice(w io.Writer, cfg *config.Config, item list.Item) error {
	opt, ok := picker.Choice(item)
	if !ok {
		return nil
	}
	if _, known := findModel(cfg, opt.Value); !known {
		err := cfg.AddCustomModel(opt)
		if errors.Is(err, config.ErrDuplicateLabel) {
			opt.Label = opt.Value
			err = cfg.AddCustomModel(opt)
		}
		if err != nil {
			return err
		}
	}
	return selectModel(w, cfg, opt)
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// maskKey shows only the ends of an API key.
func maskKey(key string) string {
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + "..." + key[len(key)-4:]
}
