// Package api provides the OpenRouter API client.
package api

import "strings"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat completions API.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Float returns a pointer to v, for optional request fields.
func Float(v float64) *float64 {
	return &v
}

// Delta is the incremental content of a streamed choice.
type Delta struct {
	Content string `json:"content"`
}

// ChoiceMessage is the complete content of a non-streamed choice.
type ChoiceMessage struct {
	Content string `json:"content"`
}

// Choice represents a completion choice in the response.
type Choice struct {
	Delta        Delta         `json:"delta"`
	Message      ChoiceMessage `json:"message"`
	FinishReason *string       `json:"finish_reason"`
}

// ErrorBody is the error object OpenRouter returns in a response body or in
// a stream event.
type ErrorBody struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	Choices []Choice   `json:"choices"`
	Error   *ErrorBody `json:"error"`
}

// ModelPricing represents pricing information for a model.
type ModelPricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
	Request    string `json:"request"`
	Image      string `json:"image"`
	Web        string `json:"web_search,omitempty"`
	Audio      string `json:"input_audio,omitempty"`
}

// ModelArchitecture represents the architecture of a model.
type ModelArchitecture struct {
	Tokenizer        string   `json:"tokenizer"`
	InstructType     *string  `json:"instruct_type"`
	InputModalities  []string `json:"input_modalities"`
	OutputModalities []string `json:"output_modalities"`
}

// TopProviderInfo represents information about the top provider.
type TopProviderInfo struct {
	ContextLength       *int `json:"context_length"`
	MaxCompletionTokens *int `json:"max_completion_tokens"`
	IsModerated         bool `json:"is_moderated"`
}

// Model represents an OpenRouter model.
type Model struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Created             int64             `json:"created"`
	Description         string            `json:"description"`
	ContextLength       *int              `json:"context_length"`
	Pricing             ModelPricing      `json:"pricing"`
	Architecture        ModelArchitecture `json:"architecture"`
	TopProvider         TopProviderInfo   `json:"top_provider"`
	SupportedParameters []string          `json:"supported_parameters"`
}

// ModelsResponse represents the response from the models API.
type ModelsResponse struct {
	Data []Model `json:"data"`
}

// ListModelsOptions represents options for listing models.
type ListModelsOptions struct {
	Category            string
	SupportedParameters string
}

// IsFree returns true if both prompt and completion tokens cost nothing.
func (m *Model) IsFree() bool {
	return isZeroPrice(m.Pricing.Prompt) && isZeroPrice(m.Pricing.Completion)
}

func isZeroPrice(p string) bool {
	p = strings.TrimSpace(p)
	if p == "" {
		return false
	}
	return strings.Trim(p, "0.") == ""
}
