package api

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
)

// MockClient is a mock implementation of the Client interface for testing.
// It is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// ChatFunc is called when Chat is invoked.
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// ChatStreamFunc is called when ChatStream is invoked.
	ChatStreamFunc func(ctx context.Context, req *ChatRequest) (*StreamReader, error)

	// ListModelsFunc is called when ListModels is invoked.
	ListModelsFunc func(ctx context.Context, opts *ListModelsOptions) ([]Model, error)

	// ChatCalls records all calls to Chat.
	ChatCalls []ChatCall

	// ChatStreamCalls records all calls to ChatStream.
	ChatStreamCalls []ChatStreamCall

	// ListModelsCalls records all calls to ListModels.
	ListModelsCalls []ListModelsCall
}

// ChatCall records a call to Chat.
type ChatCall struct {
	Ctx context.Context
	Req *ChatRequest
}

// ChatStreamCall records a call to ChatStream.
type ChatStreamCall struct {
	Ctx context.Context
	Req *ChatRequest
}

// ListModelsCall records a call to ListModels.
type ListModelsCall struct {
	Ctx  context.Context
	Opts *ListModelsOptions
}

// NewMockClient creates a new MockClient with default implementations.
func NewMockClient() *MockClient {
	return &MockClient{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return &ChatResponse{
				Choices: []Choice{
					{Message: ChoiceMessage{Content: "mock response"}},
				},
			}, nil
		},
		ChatStreamFunc: func(ctx context.Context, req *ChatRequest) (*StreamReader, error) {
			return nil, &StreamError{Message: "mock streaming not implemented"}
		},
		ListModelsFunc: func(ctx context.Context, opts *ListModelsOptions) ([]Model, error) {
			return []Model{
				{ID: "mock-model", Name: "Mock Model"},
			}, nil
		},
	}
}

// Chat implements Client.Chat.
func (m *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{Ctx: ctx, Req: req})
	fn := m.ChatFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return nil, nil
}

// ChatStream implements Client.ChatStream.
func (m *MockClient) ChatStream(ctx context.Context, req *ChatRequest) (*StreamReader, error) {
	m.mu.Lock()
	m.ChatStreamCalls = append(m.ChatStreamCalls, ChatStreamCall{Ctx: ctx, Req: req})
	fn := m.ChatStreamFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return nil, nil
}

// ListModels implements Client.ListModels.
func (m *MockClient) ListModels(ctx context.Context, opts *ListModelsOptions) ([]Model, error) {
	m.mu.Lock()
	m.ListModelsCalls = append(m.ListModelsCalls, ListModelsCall{Ctx: ctx, Opts: opts})
	fn := m.ListModelsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, opts)
	}
	return nil, nil
}

// Reset clears all recorded calls.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls = nil
	m.ChatStreamCalls = nil
	m.ListModelsCalls = nil
}

// StreamCalls returns a copy of the recorded ChatStream calls.
func (m *MockClient) StreamCalls() []ChatStreamCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatStreamCall(nil), m.ChatStreamCalls...)
}

// NewMockStream returns a StreamReader that yields deltas as SSE events
// followed by the [DONE] marker.
func NewMockStream(deltas ...string) *StreamReader {
	var sb strings.Builder
	for _, d := range deltas {
		data, _ := json.Marshal(ChatResponse{Choices: []Choice{{Delta: Delta{Content: d}}}})
		sb.WriteString("data: ")
		sb.Write(data)
		sb.WriteString("\n\n")
	}
	sb.WriteString("data: [DONE]\n")
	return NewStreamReader(io.NopCloser(strings.NewReader(sb.String())))
}
