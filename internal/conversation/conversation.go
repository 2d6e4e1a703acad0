// Package conversation holds the types shared between the reader front end
// and the streaming relay: popup identifiers, turns, the selection context
// bundle and the relay's progress events.
package conversation

import "strings"

// ID identifies one popup conversation. It is the routing key for every relay
// event and is never reused within a process.
type ID string

// Role is the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role
	Content string
	// Err marks an assistant turn that carries a failure message rather than
	// model output. Such turns are shown but never sent back to the model.
	Err bool
}

// Context is the snapshot of the page taken when the trigger was activated.
type Context struct {
	SelectedText string
	Paragraph    string
	Heading      string
	PageTitle    string
	PageDomain   string
	PageURL      string
}

// HasSurroundingText reports whether the paragraph adds anything beyond the
// selection itself.
func (c Context) HasSurroundingText() bool {
	p := strings.TrimSpace(c.Paragraph)
	return p != "" && p != strings.TrimSpace(c.SelectedText)
}

// Kind is the type of request a stream answers.
type Kind string

const (
	KindExplanation Kind = "explanation"
	KindChat        Kind = "chat"
)

// EventType is the stage of a streamed response.
type EventType string

const (
	EventStart EventType = "start"
	EventChunk EventType = "chunk"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is a progress update for one conversation.
//
// For EventChunk, Content is the full text generated so far, not a delta.
// Consumers replace their buffer with it; appending would duplicate text.
// For EventDone, Content is the final text. For EventError, Message holds the
// failure and Content is empty.
type Event struct {
	ID      ID
	Type    EventType
	Kind    Kind
	Content string
	Message string
}
