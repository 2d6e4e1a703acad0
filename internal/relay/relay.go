// Package relay streams chat completions on behalf of popups.
//
// Every request runs in its own goroutine and reports progress as
// conversation.Event values on a single channel: Start, any number of Chunk
// events, then exactly one Done or Error. Chunk.Content is the cumulative
// text so far, never a delta. Events for one conversation arrive in order;
// there is no ordering across conversations.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vstratful/searchthatterm/internal/api"
	"github.com/vstratful/searchthatterm/internal/config"
	"github.com/vstratful/searchthatterm/internal/conversation"
)

const (
	// MaxTokens caps the length of every answer.
	MaxTokens = 500
	// Temperature is the sampling temperature for every request.
	Temperature = 0.7
)

var errStalled = errors.New("no data received")

// ErrNoCredential is reported when no API key is configured.
var ErrNoCredential = errors.New("API key not configured. Run `searchthatterm config set-key` to add your OpenRouter API key.")

// SettingsFunc returns the current settings. It is called before every
// request.
type SettingsFunc func() (*config.Config, error)

// ClientFactory builds an API client for a credential.
type ClientFactory func(apiKey string) api.Client

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// WithClientFactory replaces how API clients are built.
func WithClientFactory(f ClientFactory) Option {
	return func(r *Relay) { r.newClient = f }
}

// WithChunkTimeout sets how long a stream may go without data before it is
// treated as interrupted.
func WithChunkTimeout(d time.Duration) Option {
	return func(r *Relay) { r.chunkTimeout = d }
}

// Relay brokers streaming requests to OpenRouter.
type Relay struct {
	settings     SettingsFunc
	newClient    ClientFactory
	logger       *slog.Logger
	chunkTimeout time.Duration

	events chan conversation.Event
	ctx    context.Context
	stop   context.CancelFunc

	mu       sync.Mutex
	inflight map[conversation.ID]*stream
	wg       sync.WaitGroup
}

// stream is one in-flight request.
type stream struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a Relay reading settings through settings.
func New(settings SettingsFunc, opts ...Option) *Relay {
	ctx, stop := context.WithCancel(context.Background())
	r := &Relay{
		settings: settings,
		newClient: func(apiKey string) api.Client {
			return api.StreamingClient(apiKey, config.DefaultStreamTimeout)
		},
		logger:       slog.Default(),
		chunkTimeout: config.StreamChunkTimeout,
		events:       make(chan conversation.Event, config.StreamChannelBuffer),
		ctx:          ctx,
		stop:         stop,
		inflight:     make(map[conversation.ID]*stream),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events returns the channel progress events are delivered on.
func (r *Relay) Events() <-chan conversation.Event {
	return r.events
}

// RequestExplanation asks for an explanation of the selection in c.
func (r *Relay) RequestExplanation(c conversation.Context, id conversation.ID) {
	r.start(id, conversation.KindExplanation, explanationMessages(c))
}

// RequestChat continues a conversation about the selection in c.
func (r *Relay) RequestChat(turns []conversation.Turn, c conversation.Context, id conversation.ID) {
	r.start(id, conversation.KindChat, chatMessages(turns, c))
}

// Handle dispatches a request envelope.
func (r *Relay) Handle(req conversation.Request) error {
	switch req.Action {
	case conversation.ActionGetExplanation:
		r.RequestExplanation(req.BundleContext(), req.ConversationID)
	case conversation.ActionChat:
		r.RequestChat(req.Turns(), req.BundleContext(), req.ConversationID)
	default:
		return fmt.Errorf("unknown action %q", req.Action)
	}
	return nil
}

// Cancel abandons the in-flight request for id. No further events are sent
// for it.
func (r *Relay) Cancel(id conversation.ID) {
	r.mu.Lock()
	s, ok := r.inflight[id]
	delete(r.inflight, id)
	r.mu.Unlock()

	if ok {
		s.cancel()
		r.logger.Debug("relay_stream_cancelled", "conversation_id", id)
	}
}

// Close cancels every request, waits for their goroutines to finish and
// closes the event channel. The Relay must not be used afterwards.
func (r *Relay) Close() {
	r.stop()
	r.wg.Wait()
	close(r.events)
}

func (r *Relay) start(id conversation.ID, kind conversation.Kind, msgs []api.Message) {
	cfg, err := r.settings()
	if err != nil {
		r.fail(id, kind, fmt.Errorf("failed to load settings: %w", err))
		return
	}
	key := cfg.Credential()
	if key == "" {
		r.fail(id, kind, ErrNoCredential)
		return
	}

	ctx, cancel := context.WithCancel(r.ctx)
	s := &stream{ctx: ctx, cancel: cancel}

	r.mu.Lock()
	if prev, ok := r.inflight[id]; ok {
		prev.cancel()
	}
	r.inflight[id] = s
	r.mu.Unlock()

	req := &api.ChatRequest{
		Model:       cfg.Model,
		Messages:    msgs,
		MaxTokens:   MaxTokens,
		Temperature: api.Float(Temperature),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.finish(id, s)
		r.run(s, r.newClient(key), req, id, kind)
	}()
}

// fail reports a request that never reached the network.
func (r *Relay) fail(id conversation.ID, kind conversation.Kind, err error) {
	r.logger.Warn("relay_request_rejected", "conversation_id", id, "kind", kind, "error", err)
	ev := conversation.Event{ID: id, Type: conversation.EventError, Kind: kind, Message: err.Error()}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		select {
		case r.events <- ev:
		case <-r.ctx.Done():
		}
	}()
}

func (r *Relay) run(s *stream, client api.Client, req *api.ChatRequest, id conversation.ID, kind conversation.Kind) {
	log := r.logger.With("conversation_id", id, "kind", kind, "model", req.Model)
	started := time.Now()

	if !r.emit(s, conversation.Event{ID: id, Type: conversation.EventStart, Kind: kind}) {
		return
	}
	log.Info("relay_stream_start")

	// The idle timer cancels the transfer, which surfaces as a read error.
	readCtx, stall := context.WithCancelCause(s.ctx)
	defer stall(nil)
	timer := time.AfterFunc(r.chunkTimeout, func() { stall(errStalled) })
	defer timer.Stop()

	reader, err := client.ChatStream(readCtx, req)
	if err == nil && reader == nil {
		err = &api.StreamError{Message: "no stream returned"}
	}
	if err != nil {
		r.streamError(s, log, id, kind, stalled(readCtx, err))
		return
	}
	defer reader.Close()

	reader.OnMalformed = func(data string, err error) {
		log.Warn("relay_malformed_chunk", "data", truncate(data, 200), "error", err)
	}

	var content strings.Builder
	for {
		chunk, err := reader.Next()
		if err != nil {
			r.streamError(s, log, id, kind, stalled(readCtx, err))
			return
		}
		if chunk == nil || chunk.Done {
			break
		}
		timer.Reset(r.chunkTimeout)
		if chunk.Content == "" {
			continue
		}
		content.WriteString(chunk.Content)
		if !r.emit(s, conversation.Event{ID: id, Type: conversation.EventChunk, Kind: kind, Content: content.String()}) {
			return
		}
	}

	log.Info("relay_stream_done", "chars", content.Len(), "duration_ms", time.Since(started).Milliseconds())
	r.emit(s, conversation.Event{ID: id, Type: conversation.EventDone, Kind: kind, Content: content.String()})
}

func (r *Relay) streamError(s *stream, log *slog.Logger, id conversation.ID, kind conversation.Kind, err error) {
	if s.ctx.Err() != nil {
		return
	}
	log.Error("relay_stream_error", "error", err)
	r.emit(s, conversation.Event{ID: id, Type: conversation.EventError, Kind: kind, Message: describe(err)})
}

// emit delivers an event unless the request was cancelled. It reports
// whether the request is still live.
func (r *Relay) emit(s *stream, ev conversation.Event) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case r.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (r *Relay) finish(id conversation.ID, s *stream) {
	s.cancel()
	r.mu.Lock()
	if r.inflight[id] == s {
		delete(r.inflight, id)
	}
	r.mu.Unlock()
}

// InFlight reports whether a request for id is running.
func (r *Relay) InFlight(id conversation.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[id]
	return ok
}

// stalled replaces err with a timeout error when the idle timer fired.
func stalled(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), errStalled) {
		return errStalled
	}
	return err
}

// describe turns an error into the text shown to the reader.
func describe(err error) string {
	if errors.Is(err, errStalled) {
		return "Request timed out: " + err.Error()
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Message != "":
			return apiErr.Message
		case errors.Is(err, api.ErrUnauthorized):
			return "Invalid API key. Run `searchthatterm config set-key` to replace it."
		case errors.Is(err, api.ErrPaymentRequired):
			return "Your OpenRouter account is out of credits."
		}
		return fmt.Sprintf("API request failed: %d", apiErr.StatusCode)
	}
	var streamErr *api.StreamError
	if errors.As(err, &streamErr) {
		return "Connection interrupted: " + streamErr.Error()
	}
	return err.Error()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
