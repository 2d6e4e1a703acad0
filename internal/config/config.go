// Package config provides settings management for SearchThatTerm.
package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"
)

// Default configuration values.
const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "xiaomi/mimo-v2-flash:free"

	// EnvAPIKey overrides the stored API key when set.
	EnvAPIKey = "OPENROUTER_API_KEY"

	// DefaultStreamTimeout is the default timeout for streaming requests.
	DefaultStreamTimeout = 5 * time.Minute

	// StreamChunkTimeout is the timeout for waiting for a single chunk.
	// If no data is received within this time, the stream is considered hung.
	StreamChunkTimeout = 30 * time.Second

	// DefaultTerminalWidth is the default terminal width when auto-detection fails.
	DefaultTerminalWidth = 80

	// EscDoublePressTimeout is the window for the second ESC press that quits
	// the reader.
	EscDoublePressTimeout = 2 * time.Second

	// StreamChannelBuffer is the buffer size for relay event channels.
	StreamChannelBuffer = 100

	// DefaultLogLevel is the log level used when none is configured.
	DefaultLogLevel = "info"
)

var (
	// ErrDuplicateModel is returned when adding a model id already listed.
	ErrDuplicateModel = errors.New("this model is already in your list")
	// ErrDuplicateLabel is returned when adding a model whose label is taken.
	ErrDuplicateLabel = errors.New("this label is already used by another model")
)

// ModelOption is a selectable model.
type ModelOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DefaultModels are the models offered out of the box.
var DefaultModels = []ModelOption{
	{Value: "xiaomi/mimo-v2-flash:free", Label: "Xiaomi MiMo V2 Flash (Free)"},
	{Value: "mistralai/devstral-2512:free", Label: "Mistral AI DevStral (Free)"},
	{Value: "nex-agi/deepseek-v3.1-nex-n1:free", Label: "DeepSeek V3.1 Nex N1 (Free)"},
	{Value: "nvidia/nemotron-3-nano-30b-a3b:free", Label: "Nvidia Nemotron 3 Nano 30B A3B (Free)"},
	{Value: "nvidia/nemotron-nano-12b-v2-vl:free", Label: "Nvidia Nemotron Nano 12B V2 VL (Free)"},
	{Value: "tngtech/deepseek-r1t2-chimera:free", Label: "DeepSeek R1T2 Chimera (Free)"},
	{Value: "tngtech/deepseek-r1t-chimera:free", Label: "DeepSeek R1T Chimera (Free)"},
	{Value: "tngtech/tng-r1t-chimera:free", Label: "TNG R1T Chimera (Free)"},
	{Value: "deepseek/deepseek-r1-0528:free", Label: "DeepSeek R1 0528 (Free)"},
	{Value: "meta-llama/llama-3.3-70b-instruct:free", Label: "Meta Llama 3.3 70B Instruct (Free)"},
	{Value: "cognitivecomputations/dolphin-mistral-24b-venice-edition:free", Label: "Mistral 24B Venice Edition (Free)"},
	{Value: "google/gemma-3-27b-it:free", Label: "Google Gemma 3 27B IT (Free)"},
	{Value: "google/gemini-2.0-flash-exp:free", Label: "Google Gemini 2.0 Flash Exp (Free)"},
	{Value: "google/gemma-3n-e2b-it:free", Label: "Google Gemma 3N E2B IT (Free)"},
	{Value: "openai/gpt-oss-120b:free", Label: "OpenAI GPT OSS 120B (Free)"},
	{Value: "openai/gpt-oss-20b:free", Label: "OpenAI GPT OSS 20B (Free)"},
}

// Config holds the settings that are persisted to disk.
type Config struct {
	APIKey       string        `json:"api_key"`
	Model        string        `json:"model,omitempty"`
	CustomModels []ModelOption `json:"custom_models,omitempty"`
	// ScrollWithPage anchors popups to the page instead of the window.
	// Unset means true.
	ScrollWithPage *bool  `json:"scroll_with_page,omitempty"`
	LogLevel       string `json:"log_level,omitempty"`
	LogFile        string `json:"log_file,omitempty"`
}

// Credential returns the API key to use, preferring the environment.
func (c *Config) Credential() string {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key
	}
	return strings.TrimSpace(c.APIKey)
}

// FollowScroll reports whether popups scroll with the page.
func (c *Config) FollowScroll() bool {
	return c.ScrollWithPage == nil || *c.ScrollWithPage
}

// SetFollowScroll records the scroll preference.
func (c *Config) SetFollowScroll(follow bool) {
	c.ScrollWithPage = &follow
}

// AllModels returns the default models followed by the custom ones.
func (c *Config) AllModels() []ModelOption {
	all := make([]ModelOption, 0, len(DefaultModels)+len(c.CustomModels))
	all = append(all, DefaultModels...)
	return append(all, c.CustomModels...)
}

// CheckNewModel reports whether m could be added as a custom model. An empty
// label defaults to the model id.
func (c *Config) CheckNewModel(m ModelOption) (ModelOption, error) {
	m.Value = strings.TrimSpace(m.Value)
	m.Label = strings.TrimSpace(m.Label)
	if m.Value == "" {
		return m, errors.New("please enter a model name")
	}
	if m.Label == "" {
		m.Label = m.Value
	}
	for _, existing := range c.AllModels() {
		if existing.Value == m.Value {
			return m, ErrDuplicateModel
		}
	}
	for _, existing := range c.AllModels() {
		if strings.EqualFold(existing.Label, m.Label) {
			return m, ErrDuplicateLabel
		}
	}
	return m, nil
}

// AddCustomModel appends a custom model after checking it is new.
func (c *Config) AddCustomModel(m ModelOption) error {
	m, err := c.CheckNewModel(m)
	if err != nil {
		return err
	}
	c.CustomModels = append(c.CustomModels, m)
	return nil
}

// RemoveCustomModel deletes a custom model. If it was the selected model the
// selection falls back to the default.
func (c *Config) RemoveCustomModel(value string) bool {
	for i, m := range c.CustomModels {
		if m.Value == value {
			c.CustomModels = append(c.CustomModels[:i], c.CustomModels[i+1:]...)
			if c.Model == value {
				c.Model = DefaultModel
			}
			return true
		}
	}
	return false
}

// GetConfigDir returns the platform-specific config directory for searchthatterm.
// This is a variable to allow mocking in tests.
var GetConfigDir = func() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "searchthatterm"), nil
}

// GetConfigPath returns the full path to the config file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the config file and returns the Config struct.
// Returns a default Config if the file doesn't exist.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Model: DefaultModel, LogLevel: DefaultLogLevel}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	return &cfg, nil
}

// Save writes the config to disk with secure permissions.
func Save(cfg *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	// Create config directory with user-only permissions
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to a temp file and rename so watchers never see a partial file.
	tmp, err := os.CreateTemp(configDir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// PromptForAPIKey interactively prompts the user for their API key.
func PromptForAPIKey() (string, error) {
	fmt.Println("No OpenRouter API key found.")
	fmt.Println("You can get an API key from: https://openrouter.ai/keys")
	fmt.Print("\nEnter your OpenRouter API key: ")

	key, err := readSecret(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("API key cannot be empty")
	}

	return key, nil
}

// readSecret reads one line without echoing it when f is a terminal.
func readSecret(f *os.File) (string, error) {
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		return string(b), err
	}
	return bufio.NewReader(f).ReadString('\n')
}
