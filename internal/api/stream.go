package api

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// maxEventSize bounds a single SSE line.
const maxEventSize = 1 << 20

// StreamReader reads SSE events from a stream.
type StreamReader struct {
	scanner  *bufio.Scanner
	body     io.ReadCloser
	done     bool
	finished bool

	// OnMalformed, if set, is called with each data line that could not be
	// decoded. Such lines are skipped.
	OnMalformed func(data string, err error)
}

// NewStreamReader creates a new StreamReader from an io.ReadCloser.
func NewStreamReader(body io.ReadCloser) *StreamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &StreamReader{
		scanner: scanner,
		body:    body,
	}
}

// StreamChunk represents a chunk of streamed content.
type StreamChunk struct {
	Content      string
	Done         bool
	FinishReason *string
}

// Next reads the next chunk from the stream.
// Returns nil, nil when the stream is complete.
// Returns nil, error on stream errors.
func (r *StreamReader) Next() (*StreamChunk, error) {
	if r.done {
		return nil, nil
	}

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		// SSE format: "data: {...}"
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")

		// Stream end signal
		if data == "[DONE]" {
			r.done = true
			return &StreamChunk{Done: true}, nil
		}

		var response ChatResponse
		if err := json.Unmarshal([]byte(data), &response); err != nil {
			if r.OnMalformed != nil {
				r.OnMalformed(data, err)
			}
			continue
		}

		if response.Error != nil {
			r.done = true
			return nil, &APIError{
				Message: response.Error.Message,
			}
		}

		if len(response.Choices) > 0 {
			choice := response.Choices[0]
			if choice.FinishReason != nil {
				r.finished = true
			}
			return &StreamChunk{
				Content:      choice.Delta.Content,
				FinishReason: choice.FinishReason,
			}, nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		r.done = true
		return nil, &StreamError{
			Message: "reading stream",
			Cause:   err,
		}
	}

	// Scanner finished without [DONE]: complete only if a finish reason
	// arrived, otherwise the connection dropped mid-answer.
	r.done = true
	if r.finished {
		return &StreamChunk{Done: true}, nil
	}
	return nil, &StreamError{
		Message: "stream ended before completion",
		Cause:   ErrStreamClosed,
	}
}

// Close closes the underlying stream.
func (r *StreamReader) Close() error {
	r.done = true
	return r.body.Close()
}

// ReadAll reads all content from the stream and returns it as a string.
// This is a convenience method for non-TUI usage.
func (r *StreamReader) ReadAll() (string, error) {
	var content strings.Builder

	for {
		chunk, err := r.Next()
		if err != nil {
			return content.String(), err
		}
		if chunk == nil || chunk.Done {
			break
		}
		content.WriteString(chunk.Content)
	}

	return content.String(), nil
}
