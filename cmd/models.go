package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vstratful/searchthatterm/internal/api"
	"github.com/vstratful/searchthatterm/internal/config"
	"github.com/vstratful/searchthatterm/internal/tui/picker"
)

var (
	modelsRemote  bool
	modelsList    bool
	modelsDetails bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Pick the model used for explanations",
	Long: `Pick the model used for explanations from your model list, or from the
live OpenRouter catalogue with --remote. Choosing a catalogue model adds it to
your custom models.

Examples:
  searchthatterm models                     # Pick from your models
  searchthatterm models --remote            # Pick from every OpenRouter text model
  searchthatterm models --list              # Print your models
  searchthatterm models --remote --list --details`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().BoolVarP(&modelsRemote, "remote", "r", false, "Use the OpenRouter catalogue")
	modelsCmd.Flags().BoolVar(&modelsList, "list", false, "Print the models instead of opening the picker")
	modelsCmd.Flags().BoolVar(&modelsDetails, "details", false, "With --list --remote, show detailed model information")
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !modelsList {
		return pickModel(out, cfg, modelsRemote)
	}
	if !modelsRemote {
		printConfiguredModels(out, cfg)
		return nil
	}

	key := cfg.Credential()
	if key == "" {
		return errors.New("API key not configured. Run `searchthatterm config set-key` first")
	}
	models, err := fetchTextModels(cmd.Context(), newCatalogClient(key))
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Fprintln(out, "No models found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d models:\n\n", len(models))
	for _, m := range models {
		if modelsDetails {
			printModelDetails(out, m)
		} else {
			printModelSummary(out, m)
		}
	}
	return nil
}

// newCatalogClient builds the client used to list the catalogue. Tests
// replace it.
var newCatalogClient = func(apiKey string) api.Client {
	return api.DefaultClient(apiKey)
}

func fetchTextModels(ctx context.Context, c api.Client) ([]api.Model, error) {
	models, err := c.ListModels(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return picker.FilterTextModels(models), nil
}

func printConfiguredModels(w io.Writer, cfg *config.Config) {
	custom := make(map[string]bool, len(cfg.CustomModels))
	for _, m := range cfg.CustomModels {
		custom[m.Value] = true
	}
	for _, m := range cfg.AllModels() {
		marker := "  "
		if m.Value == cfg.Model {
			marker = "* "
		}
		label := m.Label
		if custom[m.Value] {
			label += " [custom]"
		}
		fmt.Fprintf(w, "%s%-50s %s\n", marker, m.Value, label)
	}
}

func printModelSummary(w io.Writer, m api.Model) {
	fmt.Fprintf(w, "%-50s %s\n", m.ID, m.Name)
}

func printModelDetails(w io.Writer, m api.Model) {
	fmt.Fprintf(w, "ID: %s\n", m.ID)
	fmt.Fprintf(w, "Name: %s\n", m.Name)
	if m.ContextLength != nil {
		fmt.Fprintf(w, "Context Length: %d\n", *m.ContextLength)
	}
	if m.Pricing.Prompt != "" || m.Pricing.Completion != "" {
		fmt.Fprintf(w, "Pricing: $%s/$%s per 1M tokens\n",
			picker.FormatPricePerMillion(m.Pricing.Prompt), picker.FormatPricePerMillion(m.Pricing.Completion))
	}
	if m.IsFree() {
		fmt.Fprintln(w, "Free: yes")
	}
	if len(m.Architecture.InputModalities) > 0 {
		fmt.Fprintf(w, "Input: %s\n", strings.Join(m.Architecture.InputModalities, ", "))
	}
	if m.Description != "" {
		desc := m.Description
		if len(desc) > 200 {
			desc = desc[:197] + "..."
		}
		fmt.Fprintf(w, "Description: %s\n", desc)
	}
	fmt.Fprintln(w)
}
