package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// useTempConfigDir points GetConfigDir at a fresh directory for one test.
func useTempConfigDir(t *testing.T) string {
	t.Helper()
	configDir := filepath.Join(t.TempDir(), "searchthatterm")

	originalGetConfigDir := GetConfigDir
	GetConfigDir = func() (string, error) {
		return configDir, nil
	}
	t.Cleanup(func() { GetConfigDir = originalGetConfigDir })
	return configDir
}

func TestLoad(t *testing.T) {
	configDir := useTempConfigDir(t)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("failed to create test config dir: %v", err)
	}

	t.Run("returns defaults when file does not exist", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.APIKey != "" {
			t.Errorf("cfg.APIKey = %q, want empty string", cfg.APIKey)
		}
		if cfg.Model != DefaultModel {
			t.Errorf("cfg.Model = %q, want %q", cfg.Model, DefaultModel)
		}
		if !cfg.FollowScroll() {
			t.Error("cfg.FollowScroll() = false, want true by default")
		}
	})

	t.Run("loads config from file", func(t *testing.T) {
		off := false
		testConfig := Config{APIKey: "test-api-key", ScrollWithPage: &off}
		data, _ := json.MarshalIndent(testConfig, "", "  ")
		configPath := filepath.Join(configDir, "config.json")
		if err := os.WriteFile(configPath, data, 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.APIKey != "test-api-key" {
			t.Errorf("cfg.APIKey = %q, want %q", cfg.APIKey, "test-api-key")
		}
		if cfg.FollowScroll() {
			t.Error("cfg.FollowScroll() = true, want false")
		}
		if cfg.Model != DefaultModel {
			t.Errorf("cfg.Model = %q, want default applied", cfg.Model)
		}
	})

	t.Run("returns error for invalid JSON", func(t *testing.T) {
		configPath := filepath.Join(configDir, "config.json")
		if err := os.WriteFile(configPath, []byte("not valid json"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want parse error")
		}
	})
}

func TestSave(t *testing.T) {
	configDir := useTempConfigDir(t)

	t.Run("creates config directory and file", func(t *testing.T) {
		cfg := &Config{APIKey: "test-api-key", CustomModels: []ModelOption{{Value: "a/b", Label: "AB"}}}
		if err := Save(cfg); err != nil {
			t.Fatalf("Save() error = %v, want nil", err)
		}

		data, err := os.ReadFile(filepath.Join(configDir, "config.json"))
		if err != nil {
			t.Fatalf("failed to read config file: %v", err)
		}

		var loaded Config
		if err := json.Unmarshal(data, &loaded); err != nil {
			t.Fatalf("failed to parse config file: %v", err)
		}
		if loaded.APIKey != "test-api-key" {
			t.Errorf("loaded.APIKey = %q, want %q", loaded.APIKey, "test-api-key")
		}
		if len(loaded.CustomModels) != 1 || loaded.CustomModels[0].Label != "AB" {
			t.Errorf("loaded.CustomModels = %+v", loaded.CustomModels)
		}
	})

	t.Run("file has secure permissions", func(t *testing.T) {
		if err := Save(&Config{APIKey: "test-api-key"}); err != nil {
			t.Fatalf("Save() error = %v, want nil", err)
		}

		info, err := os.Stat(filepath.Join(configDir, "config.json"))
		if err != nil {
			t.Fatalf("failed to stat config file: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("file permissions = %o, want %o", perm, 0600)
		}
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		entries, err := os.ReadDir(configDir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("config dir has %d entries, want 1", len(entries))
		}
	})
}

func TestGetConfigDir(t *testing.T) {
	dir, err := GetConfigDir()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("GetConfigDir() = %q, want absolute path", dir)
	}
	if filepath.Base(dir) != "searchthatterm" {
		t.Errorf("GetConfigDir() = %q, want path ending in 'searchthatterm'", dir)
	}
}

func TestCredential(t *testing.T) {
	cfg := &Config{APIKey: "  stored  "}

	t.Setenv(EnvAPIKey, "")
	if got := cfg.Credential(); got != "stored" {
		t.Errorf("Credential() = %q, want %q", got, "stored")
	}

	t.Setenv(EnvAPIKey, "from-env")
	if got := cfg.Credential(); got != "from-env" {
		t.Errorf("Credential() = %q, want env override", got)
	}
}

func TestAddCustomModel(t *testing.T) {
	tests := []struct {
		name    string
		model   ModelOption
		wantErr error
		anyErr  bool
	}{
		{"new model", ModelOption{Value: "acme/new-model", Label: "Acme New"}, nil, false},
		{"duplicate default id", ModelOption{Value: DefaultModel, Label: "Other"}, ErrDuplicateModel, false},
		{"duplicate custom id", ModelOption{Value: "acme/existing", Label: "Fresh"}, ErrDuplicateModel, false},
		{"duplicate label ignoring case", ModelOption{Value: "acme/x", Label: "openai gpt oss 20b (free)"}, ErrDuplicateLabel, false},
		{"empty id", ModelOption{Value: "  "}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{CustomModels: []ModelOption{{Value: "acme/existing", Label: "Existing"}}}
			err := cfg.AddCustomModel(tt.model)
			if tt.anyErr {
				if err == nil {
					t.Error("AddCustomModel() error = nil for empty id")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddCustomModel() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && len(cfg.CustomModels) != 2 {
				t.Errorf("CustomModels = %+v, want appended", cfg.CustomModels)
			}
		})
	}
}

func TestAddCustomModel_LabelDefaultsToID(t *testing.T) {
	cfg := &Config{}
	if err := cfg.AddCustomModel(ModelOption{Value: "acme/bare"}); err != nil {
		t.Fatalf("AddCustomModel() error = %v", err)
	}
	if got := cfg.CustomModels[0].Label; got != "acme/bare" {
		t.Errorf("Label = %q, want id", got)
	}
	all := cfg.AllModels()
	if len(all) != len(DefaultModels)+1 || all[len(all)-1].Value != "acme/bare" {
		t.Errorf("AllModels() tail = %+v", all[len(all)-1])
	}
}

func TestRemoveCustomModel(t *testing.T) {
	cfg := &Config{Model: "acme/a", CustomModels: []ModelOption{{Value: "acme/a", Label: "A"}}}
	if !cfg.RemoveCustomModel("acme/a") {
		t.Fatal("RemoveCustomModel() = false")
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want fallback to default", cfg.Model)
	}
	if cfg.RemoveCustomModel("acme/a") {
		t.Error("second RemoveCustomModel() = true")
	}
}

func TestWatch(t *testing.T) {
	useTempConfigDir(t)
	if err := Save(&Config{APIKey: "k"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	cfg := &Config{APIKey: "k"}
	cfg.SetFollowScroll(false)
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case got := <-changes:
			if !got.FollowScroll() {
				return
			}
		case <-timeout:
			t.Fatal("no config change delivered")
		}
	}
}

func TestConstants(t *testing.T) {
	if EscDoublePressTimeout <= 0 {
		t.Errorf("EscDoublePressTimeout = %v, want positive duration", EscDoublePressTimeout)
	}
	if StreamChannelBuffer <= 0 {
		t.Errorf("StreamChannelBuffer = %d, want positive value", StreamChannelBuffer)
	}
	if DefaultTerminalWidth <= 0 {
		t.Errorf("DefaultTerminalWidth = %d, want positive value", DefaultTerminalWidth)
	}
	if len(DefaultModels) == 0 || DefaultModels[0].Value != DefaultModel {
		t.Errorf("DefaultModels[0] = %+v, want the default model first", DefaultModels[0])
	}
}
