package picker

import (
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vstratful/searchthatterm/internal/api"
	"github.com/vstratful/searchthatterm/internal/config"
)

func TestNewOptionPicker(t *testing.T) {
	cfg := &config.Config{
		Model:        "my/custom",
		CustomModels: []config.ModelOption{{Value: "my/custom", Label: "My Custom"}},
	}

	m := NewOptionPicker(cfg, 80, 24)

	if m.Loading {
		t.Error("NewOptionPicker() should not be in loading state")
	}

	want := len(config.DefaultModels) + 1
	if len(m.List.Items()) != want {
		t.Errorf("NewOptionPicker() list has %d items, want %d", len(m.List.Items()), want)
	}

	if m.List.Title != "Select a model" {
		t.Errorf("NewOptionPicker() title = %q, want %q", m.List.Title, "Select a model")
	}

	item, ok := m.List.SelectedItem().(OptionItem)
	if !ok || item.Option.Value != "my/custom" {
		t.Errorf("cursor on %+v, want the current model", m.List.SelectedItem())
	}
}

func TestOptionItem(t *testing.T) {
	item := OptionItem{
		Option:  config.ModelOption{Value: "google/gemma-3-27b-it:free", Label: "Google Gemma"},
		Current: true,
	}

	if item.Title() != "Google Gemma" {
		t.Errorf("OptionItem.Title() = %q, want %q", item.Title(), "Google Gemma")
	}

	desc := item.Description()
	if !contains(desc, "google/gemma-3-27b-it:free") {
		t.Errorf("OptionItem.Description() = %q, should contain model id", desc)
	}
	if !contains(desc, "current") {
		t.Errorf("OptionItem.Description() = %q, should mark the current model", desc)
	}
	if contains(desc, "custom") {
		t.Errorf("OptionItem.Description() = %q, should not mark a default model as custom", desc)
	}

	if !contains(item.FilterValue(), "Gemma") || !contains(item.FilterValue(), "google/") {
		t.Errorf("OptionItem.FilterValue() = %q, should contain label and id", item.FilterValue())
	}
}

func TestChoice(t *testing.T) {
	tests := []struct {
		name string
		item list.Item
		want config.ModelOption
		ok   bool
	}{
		{
			name: "configured option",
			item: OptionItem{Option: config.ModelOption{Value: "a/b", Label: "AB"}},
			want: config.ModelOption{Value: "a/b", Label: "AB"},
			ok:   true,
		},
		{
			name: "remote model",
			item: ModelItem{Model: api.Model{ID: "x/y", Name: "X Y"}},
			want: config.ModelOption{Value: "x/y", Label: "X Y"},
			ok:   true,
		},
		{
			name: "remote model without name",
			item: ModelItem{Model: api.Model{ID: "x/y"}},
			want: config.ModelOption{Value: "x/y", Label: "x/y"},
			ok:   true,
		},
		{
			name: "nil",
			item: nil,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Choice(tt.item)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Choice() = %+v, %v, want %+v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNewModelPicker(t *testing.T) {
	m := NewModelPicker(80, 24)

	if !m.Loading {
		t.Error("NewModelPicker() should be in loading state")
	}

	if m.Width != 80 {
		t.Errorf("NewModelPicker().Width = %d, want 80", m.Width)
	}

	if m.Height != 24 {
		t.Errorf("NewModelPicker().Height = %d, want 24", m.Height)
	}
}

func TestSetModels(t *testing.T) {
	m := NewModelPicker(80, 24)
	contextLen := 128000

	models := []api.Model{
		{
			ID:   "gpt-4",
			Name: "GPT-4",
			Pricing: api.ModelPricing{
				Prompt:     "0.00003",
				Completion: "0.00006",
			},
			ContextLength: &contextLen,
		},
		{
			ID:   "claude-3",
			Name: "Claude 3",
		},
	}

	SetModels(&m, models)

	if m.Loading {
		t.Error("SetModels() should clear loading state")
	}

	if len(m.List.Items()) != 2 {
		t.Errorf("SetModels() list has %d items, want 2", len(m.List.Items()))
	}

	if m.List.Title != "Select a model" {
		t.Errorf("SetModels() title = %q, want %q", m.List.Title, "Select a model")
	}
}

func TestModelItem(t *testing.T) {
	contextLen := 128000
	model := api.Model{
		ID:   "gpt-4",
		Name: "GPT-4",
		Pricing: api.ModelPricing{
			Prompt:     "0.00003",
			Completion: "0.00006",
		},
		ContextLength: &contextLen,
	}

	item := ModelItem{Model: model}

	// Test Title
	if item.Title() != "gpt-4" {
		t.Errorf("ModelItem.Title() = %q, want %q", item.Title(), "gpt-4")
	}

	// Test Description
	desc := item.Description()
	if !contains(desc, "GPT-4") {
		t.Errorf("ModelItem.Description() = %q, should contain name", desc)
	}
	if !contains(desc, "128k ctx") {
		t.Errorf("ModelItem.Description() = %q, should contain context length", desc)
	}
	if !contains(desc, "per 1M tokens") {
		t.Errorf("ModelItem.Description() = %q, should contain pricing", desc)
	}

	// Test FilterValue
	if !contains(item.FilterValue(), "gpt-4") {
		t.Errorf("ModelItem.FilterValue() = %q, should contain ID", item.FilterValue())
	}
	if !contains(item.FilterValue(), "GPT-4") {
		t.Errorf("ModelItem.FilterValue() = %q, should contain name", item.FilterValue())
	}
}

func TestGetModel(t *testing.T) {
	model := api.Model{ID: "test-model"}
	item := ModelItem{Model: model}

	t.Run("returns model from ModelItem", func(t *testing.T) {
		result := GetModel(item)
		if result == nil {
			t.Fatal("GetModel() returned nil, want model")
		}
		if result.ID != "test-model" {
			t.Errorf("GetModel().ID = %q, want %q", result.ID, "test-model")
		}
	})

	t.Run("returns nil for non-ModelItem", func(t *testing.T) {
		optionItem := OptionItem{Option: config.ModelOption{Value: "test"}}
		result := GetModel(optionItem)
		if result != nil {
			t.Errorf("GetModel() returned %v, want nil", result)
		}
	})
}

func TestFormatPricePerMillion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0.00003", "30.00"},
		{"0.00006", "60.00"},
		{"0.000001", "1.00"},
		{"0.0000001", "0.10"},
		{"0.00000001", "0.01"},
		{"0", "0"},
		{"", ""},
		{"invalid", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := FormatPricePerMillion(tt.input)
			if result != tt.expected {
				t.Errorf("FormatPricePerMillion(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestHasTextModality(t *testing.T) {
	tests := []struct {
		name       string
		modalities []string
		expected   bool
	}{
		{"has text", []string{"text", "image"}, true},
		{"text only", []string{"text"}, true},
		{"no text", []string{"image", "audio"}, false},
		{"empty", []string{}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HasTextModality(tt.modalities)
			if result != tt.expected {
				t.Errorf("HasTextModality(%v) = %v, want %v", tt.modalities, result, tt.expected)
			}
		})
	}
}

func TestFilterTextModels(t *testing.T) {
	models := []api.Model{
		{
			ID: "text-model",
			Architecture: api.ModelArchitecture{
				InputModalities:  []string{"text"},
				OutputModalities: []string{"text"},
			},
		},
		{
			ID: "image-model",
			Architecture: api.ModelArchitecture{
				InputModalities:  []string{"image"},
				OutputModalities: []string{"text"},
			},
		},
		{
			ID: "multimodal-model",
			Architecture: api.ModelArchitecture{
				InputModalities:  []string{"text", "image"},
				OutputModalities: []string{"text", "image"},
			},
		},
	}

	filtered := FilterTextModels(models)

	if len(filtered) != 2 {
		t.Errorf("FilterTextModels() returned %d models, want 2", len(filtered))
	}

	// Check that the right models were kept
	hasTextModel := false
	hasMultimodal := false
	for _, m := range filtered {
		if m.ID == "text-model" {
			hasTextModel = true
		}
		if m.ID == "multimodal-model" {
			hasMultimodal = true
		}
	}

	if !hasTextModel {
		t.Error("FilterTextModels() should include text-model")
	}
	if !hasMultimodal {
		t.Error("FilterTextModels() should include multimodal-model")
	}
}

func TestPickerModel(t *testing.T) {
	t.Run("New creates picker with items", func(t *testing.T) {
		items := []list.Item{
			OptionItem{Option: config.ModelOption{Value: "1", Label: "one"}},
		}

		m := New(Config{Title: "Pick", Items: items, Width: 80, Height: 24})

		if m.Loading {
			t.Error("New() should not be in loading state")
		}
		if m.Width != 80 {
			t.Errorf("New().Width = %d, want 80", m.Width)
		}
	})

	t.Run("NewLoading creates picker in loading state", func(t *testing.T) {
		m := NewLoading(80, 24)

		if !m.Loading {
			t.Error("NewLoading() should be in loading state")
		}
	})

	t.Run("SetError clears loading and sets error", func(t *testing.T) {
		m := NewLoading(80, 24)
		testErr := &testError{msg: "test error"}
		m.SetError(testErr)

		if m.Loading {
			t.Error("SetError() should clear loading state")
		}
		if m.Err != testErr {
			t.Errorf("SetError() error = %v, want %v", m.Err, testErr)
		}
	})
}

func TestProgram_LoadsAndChooses(t *testing.T) {
	client := api.NewMockClient()
	client.ListModelsFunc = func(ctx context.Context, opts *api.ListModelsOptions) ([]api.Model, error) {
		return []api.Model{
			{ID: "text/model", Architecture: api.ModelArchitecture{InputModalities: []string{"text"}, OutputModalities: []string{"text"}}},
			{ID: "image/model", Architecture: api.ModelArchitecture{InputModalities: []string{"text"}, OutputModalities: []string{"image"}}},
		}, nil
	}

	var p tea.Model = program{Model: NewModelPicker(80, 24), load: LoadModels(context.Background(), client)}
	p, _ = p.Update(LoadModels(context.Background(), client)())

	m := p.(program).Model
	if m.Loading {
		t.Fatal("picker still loading after models arrived")
	}
	if len(m.List.Items()) != 1 {
		t.Fatalf("list has %d items, want the text model only", len(m.List.Items()))
	}

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should quit the picker")
	}
	opt, ok := Choice(p.(program).Chosen)
	if !ok || opt.Value != "text/model" {
		t.Errorf("Chosen = %+v, want text/model", opt)
	}
}

func TestProgram_LoadError(t *testing.T) {
	client := api.NewMockClient()
	client.ListModelsFunc = func(ctx context.Context, opts *api.ListModelsOptions) ([]api.Model, error) {
		return nil, &api.APIError{StatusCode: 401, Message: "unauthorized"}
	}

	var p tea.Model = program{Model: NewModelPicker(80, 24)}
	p, _ = p.Update(LoadModels(context.Background(), client)())

	m := p.(program).Model
	if m.Err == nil || m.Loading {
		t.Fatalf("Err = %v, Loading = %v", m.Err, m.Loading)
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.(program).Chosen != nil {
		t.Error("enter on an error screen chose an item")
	}
}

// Helper function to check if a string contains a substring
func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsHelper(s, substr))
}

func containsHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}
