// Package popup owns the live explanation popups: their lifecycle, the
// deep-dive cap, drag and anchoring, and the routing of relay events to the
// popup they belong to.
package popup

import (
	"github.com/vstratful/searchthatterm/internal/conversation"
	"github.com/vstratful/searchthatterm/internal/layout"
)

const (
	// MaxDeepDive caps how many popups may be in deep-dive mode at once.
	MaxDeepDive = 3
	// HistoryWindow is how many recent turns a chat request carries.
	HistoryWindow = 10
	// BaseTitle is the title every popup shows.
	BaseTitle = "SearchThatTerm"
	// BlockedMessage is shown when the deep-dive cap stops a promotion.
	BlockedMessage = "⚠️ Maximum 3 conversations open. Close one to continue."
	// ErrorPrefix marks a failed first answer.
	ErrorPrefix = "Error: "
	// FollowUpErrorPrefix marks a failed follow-up answer.
	FollowUpErrorPrefix = "Sorry, an error occurred: "
)

// QuickPrompts are the canned follow-up questions offered in deep-dive mode.
var QuickPrompts = []string{
	"Explain in simpler terms",
	"Give me an example",
	"Why is this important?",
}

// Mode is a popup's interaction mode. The only transition is QuickGlance to
// DeepDive.
type Mode int

const (
	QuickGlance Mode = iota
	DeepDive
)

func (m Mode) String() string {
	if m == DeepDive {
		return "deep-dive"
	}
	return "quick-glance"
}

// Popup is one explanation or conversation window.
type Popup struct {
	ID      conversation.ID
	Context conversation.Context
	// Conversation is append-only. Turn 0 holds the explanation once it
	// arrives.
	Conversation    []conversation.Turn
	Mode            Mode
	StreamingBuffer string
	Streaming       bool
	// Position is the top-left corner in Space.
	Position        layout.Point
	Space           layout.Space
	DeepDiveBlocked bool
}

func (p *Popup) clone() Popup {
	c := *p
	c.Conversation = append([]conversation.Turn(nil), p.Conversation...)
	return c
}

// View is a read-only snapshot of a popup prepared for drawing.
type View struct {
	Popup
	Title string
	// Screen is the top-left corner on screen.
	Screen   layout.Point
	Closable bool
	Focused  bool
	Dragging bool
}

// Requester issues relay requests on behalf of popups.
type Requester interface {
	RequestExplanation(c conversation.Context, id conversation.ID)
	RequestChat(turns []conversation.Turn, c conversation.Context, id conversation.ID)
	Cancel(id conversation.ID)
}

// ChatHistory selects the turns sent with a follow-up. The explanation that
// opens a conversation and failed answers stay on screen only; of the rest,
// the most recent HistoryWindow turns are kept.
func ChatHistory(turns []conversation.Turn) []conversation.Turn {
	out := make([]conversation.Turn, 0, len(turns))
	for i, t := range turns {
		if t.Err || (i == 0 && t.Role == conversation.RoleAssistant) {
			continue
		}
		out = append(out, t)
	}
	if len(out) > HistoryWindow {
		out = out[len(out)-HistoryWindow:]
	}
	return out
}
