package picker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vstratful/searchthatterm/internal/api"
	"github.com/vstratful/searchthatterm/internal/config"
)

// FormatPricePerMillion converts a price-per-token string to a formatted price per million tokens.
func FormatPricePerMillion(pricePerToken string) string {
	price, err := strconv.ParseFloat(pricePerToken, 64)
	if err != nil || price == 0 {
		if pricePerToken == "0" {
			return "0"
		}
		return pricePerToken
	}
	pricePerMillion := price * 1_000_000
	if pricePerMillion < 0.01 {
		return fmt.Sprintf("%.4f", pricePerMillion)
	}
	return fmt.Sprintf("%.2f", pricePerMillion)
}

// OptionItem is a configured model choice.
type OptionItem struct {
	Option  config.ModelOption
	Current bool
	Custom  bool
}

func (i OptionItem) Title() string {
	return i.Option.Label
}

func (i OptionItem) Description() string {
	desc := i.Option.Value
	if i.Custom {
		desc += " | custom"
	}
	if i.Current {
		desc += " | current"
	}
	return desc
}

func (i OptionItem) FilterValue() string {
	return i.Option.Label + " " + i.Option.Value
}

// NewOptionPicker lists the configured models with the cursor on the
// current one.
func NewOptionPicker(cfg *config.Config, width, height int) Model {
	custom := make(map[string]bool, len(cfg.CustomModels))
	for _, m := range cfg.CustomModels {
		custom[m.Value] = true
	}
	current := cfg.Model
	if current == "" {
		current = config.DefaultModel
	}

	all := cfg.AllModels()
	items := make([]list.Item, len(all))
	for i, opt := range all {
		items[i] = OptionItem{Option: opt, Current: opt.Value == current, Custom: custom[opt.Value]}
	}
	m := New(Config{Title: "Select a model", Items: items, Width: width, Height: height})
	m.Select(func(item list.Item) bool {
		oi, ok := item.(OptionItem)
		return ok && oi.Current
	})
	return m
}

// ModelItem wraps a Model for display in a picker.
type ModelItem struct {
	Model api.Model
}

func (i ModelItem) Title() string {
	return i.Model.ID
}

func (i ModelItem) Description() string {
	var desc string
	if i.Model.Name != "" && i.Model.Name != i.Model.ID {
		desc = i.Model.Name
	}

	if i.Model.ContextLength != nil {
		if desc != "" {
			desc += " | "
		}
		desc += fmt.Sprintf("%dk ctx", *i.Model.ContextLength/1000)
	}

	if i.Model.Pricing.Prompt != "" || i.Model.Pricing.Completion != "" {
		if desc != "" {
			desc += " | "
		}
		desc += fmt.Sprintf("$%s/$%s per 1M tokens", FormatPricePerMillion(i.Model.Pricing.Prompt), FormatPricePerMillion(i.Model.Pricing.Completion))
	}

	return desc
}

func (i ModelItem) FilterValue() string {
	return i.Model.ID + " " + i.Model.Name
}

// NewModelPicker creates a new picker for models in loading state.
func NewModelPicker(width, height int) Model {
	return NewLoading(width, height)
}

// Message types for async model loading
type (
	modelsLoadedMsg    struct{ models []api.Model }
	modelsLoadErrorMsg struct{ err error }
)

// LoadModels fetches the OpenRouter catalogue for a loading picker.
func LoadModels(ctx context.Context, c api.Client) tea.Cmd {
	return func() tea.Msg {
		models, err := c.ListModels(ctx, nil)
		if err != nil {
			return modelsLoadErrorMsg{err: err}
		}
		return modelsLoadedMsg{models: models}
	}
}

// SetModels sets the models in the picker.
func SetModels(m *Model, models []api.Model) {
	items := make([]list.Item, len(models))
	for i, model := range models {
		items[i] = ModelItem{Model: model}
	}
	m.SetItems("Select a model", items)
}

// GetModel extracts the Model from a selected item.
func GetModel(item list.Item) *api.Model {
	if mi, ok := item.(ModelItem); ok {
		return &mi.Model
	}
	return nil
}

// Choice turns a chosen item into the model option it stands for. Remote
// models use their display name as the label.
func Choice(item list.Item) (config.ModelOption, bool) {
	switch i := item.(type) {
	case OptionItem:
		return i.Option, true
	case ModelItem:
		label := i.Model.Name
		if label == "" {
			label = i.Model.ID
		}
		return config.ModelOption{Value: i.Model.ID, Label: label}, true
	}
	return config.ModelOption{}, false
}

// HasTextModality checks if "text" is in the list of modalities.
func HasTextModality(modalities []string) bool {
	for _, m := range modalities {
		if m == "text" {
			return true
		}
	}
	return false
}

// FilterTextModels filters models to only those with text input and output.
func FilterTextModels(models []api.Model) []api.Model {
	filtered := make([]api.Model, 0, len(models))
	for _, m := range models {
		if HasTextModality(m.Architecture.InputModalities) && HasTextModality(m.Architecture.OutputModalities) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
