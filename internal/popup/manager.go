package popup

import (
	"fmt"
	"strings"

	"github.com/vstratful/searchthatterm/internal/conversation"
	"github.com/vstratful/searchthatterm/internal/layout"
)

// Options configures a Manager.
type Options struct {
	// Width is the popup width in cells, used for placement.
	Width        int
	FollowScroll bool
	Viewport     layout.Viewport
}

// DefaultWidth is the popup width used when Options.Width is unset.
const DefaultWidth = 46

// Manager is the registry of live popups. It is not safe for concurrent use;
// every call is expected from the UI's update loop.
type Manager struct {
	req    Requester
	popups map[conversation.ID]*Popup
	order  []conversation.ID
	nextID uint64

	width   int
	view    layout.Viewport
	space   layout.Space
	saved   *layout.Point
	focused conversation.ID
	drag    *drag
}

type drag struct {
	id   conversation.ID
	grab layout.Point
}

// NewManager returns an empty Manager issuing requests through req.
func NewManager(req Requester, opts Options) *Manager {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	return &Manager{
		req:    req,
		popups: make(map[conversation.ID]*Popup),
		width:  opts.Width,
		view:   opts.Viewport,
		space:  layout.SpaceFor(opts.FollowScroll),
	}
}

// Create opens a quick-glance popup for c and requests its explanation.
// selection is the on-screen bounds of the selected text, if known.
func (m *Manager) Create(c conversation.Context, selection *layout.Rect) conversation.ID {
	m.nextID++
	id := conversation.ID(fmt.Sprintf("popup-%d", m.nextID))

	screen := m.place(selection)
	m.saved = nil

	m.popups[id] = &Popup{
		ID:        id,
		Context:   c,
		Mode:      QuickGlance,
		Streaming: true,
		Position:  m.view.FromScreen(screen, m.space),
		Space:     m.space,
	}
	m.order = append(m.order, id)
	m.focused = id

	m.req.RequestExplanation(c, id)
	return id
}

// Close removes a popup and cancels any request it has in flight. It reports
// whether the popup existed.
func (m *Manager) Close(id conversation.ID) bool {
	p, ok := m.popups[id]
	if !ok {
		return false
	}
	if len(m.popups) == 1 {
		pos := m.view.ToScreen(p.Position, p.Space)
		m.saved = &pos
	}
	if p.Streaming {
		m.req.Cancel(id)
	}

	delete(m.popups, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.drag != nil && m.drag.id == id {
		m.drag = nil
	}
	if m.focused == id {
		m.focused = ""
		if n := len(m.order); n > 0 {
			m.focused = m.order[n-1]
		}
	}
	return true
}

// CloseTopmost closes the most recently opened popup.
func (m *Manager) CloseTopmost() (conversation.ID, bool) {
	if len(m.order) == 0 {
		return "", false
	}
	id := m.order[len(m.order)-1]
	return id, m.Close(id)
}

// OutsideClick applies the tooltip rule to a press outside every popup: a
// lone quick-glance popup closes, anything else stays open. It reports
// whether a popup was closed.
func (m *Manager) OutsideClick() bool {
	if len(m.order) != 1 {
		return false
	}
	id := m.order[0]
	if m.popups[id].Mode != QuickGlance {
		return false
	}
	return m.Close(id)
}

// Promote moves a popup to deep-dive mode. At the cap the popup is left in
// quick-glance mode and flagged as blocked. It reports whether the popup is
// now in deep-dive mode.
func (m *Manager) Promote(id conversation.ID) bool {
	p, ok := m.popups[id]
	if !ok {
		return false
	}
	if p.Mode == DeepDive {
		return true
	}
	if m.DeepDiveCount() >= MaxDeepDive {
		p.DeepDiveBlocked = true
		return false
	}
	p.Mode = DeepDive
	p.DeepDiveBlocked = false
	m.focused = id
	return true
}

// SubmitFollowUp sends a user turn. Blank text and popups that are still
// streaming are ignored. It reports whether a request was sent.
func (m *Manager) SubmitFollowUp(id conversation.ID, text string) bool {
	p, ok := m.popups[id]
	if !ok || p.Streaming {
		return false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	p.Conversation = append(p.Conversation, conversation.Turn{Role: conversation.RoleUser, Content: text})
	p.Streaming = true
	p.StreamingBuffer = ""
	m.req.RequestChat(ChatHistory(p.Conversation), p.Context, id)
	return true
}

// HandleEvent applies a relay event to the popup it is addressed to. Events
// for popups that no longer exist are dropped. It reports whether any popup
// changed.
func (m *Manager) HandleEvent(ev conversation.Event) bool {
	p, ok := m.popups[ev.ID]
	if !ok {
		return false
	}

	switch ev.Type {
	case conversation.EventStart:
		p.Streaming = true
		p.StreamingBuffer = ""
	case conversation.EventChunk:
		if !p.Streaming {
			return false
		}
		p.StreamingBuffer = ev.Content
	case conversation.EventDone:
		if !p.Streaming {
			return false
		}
		turn := conversation.Turn{Role: conversation.RoleAssistant, Content: ev.Content}
		if ev.Kind == conversation.KindExplanation {
			p.Conversation = []conversation.Turn{turn}
		} else {
			p.Conversation = append(p.Conversation, turn)
		}
		p.Streaming = false
		p.StreamingBuffer = ""
		if p.Mode == DeepDive {
			m.focused = p.ID
		}
	case conversation.EventError:
		if !p.Streaming {
			return false
		}
		if ev.Kind == conversation.KindExplanation || len(p.Conversation) == 0 {
			p.Conversation = []conversation.Turn{{
				Role:    conversation.RoleAssistant,
				Content: ErrorPrefix + ev.Message,
				Err:     true,
			}}
		} else {
			p.Conversation = append(p.Conversation, conversation.Turn{
				Role:    conversation.RoleAssistant,
				Content: FollowUpErrorPrefix + ev.Message,
				Err:     true,
			})
		}
		p.Streaming = false
		p.StreamingBuffer = ""
	default:
		return false
	}
	return true
}

// DeepDiveCount is the number of popups in deep-dive mode.
func (m *Manager) DeepDiveCount() int {
	n := 0
	for _, p := range m.popups {
		if p.Mode == DeepDive {
			n++
		}
	}
	return n
}

// Len is the number of live popups.
func (m *Manager) Len() int {
	return len(m.order)
}

// Title is a popup's header text. Deep-dive popups are numbered in opening
// order while two or more of them are open.
func (m *Manager) Title(id conversation.ID) string {
	p, ok := m.popups[id]
	if !ok || p.Mode != DeepDive || m.DeepDiveCount() < 2 {
		return BaseTitle
	}
	n := 0
	for _, oid := range m.order {
		if m.popups[oid].Mode == DeepDive {
			n++
			if oid == id {
				break
			}
		}
	}
	return fmt.Sprintf("%s #%d", BaseTitle, n)
}

// Closable reports whether a popup shows a close control. A lone
// quick-glance popup closes like a tooltip instead.
func (m *Manager) Closable(id conversation.ID) bool {
	p, ok := m.popups[id]
	return ok && (len(m.order) > 1 || p.Mode == DeepDive)
}

// Focus directs keyboard input to a popup.
func (m *Manager) Focus(id conversation.ID) {
	if _, ok := m.popups[id]; ok {
		m.focused = id
	}
}

// Focused returns the popup receiving keyboard input, if any.
func (m *Manager) Focused() (conversation.ID, bool) {
	return m.focused, m.focused != ""
}

// Snapshot returns a copy of one popup.
func (m *Manager) Snapshot(id conversation.ID) (Popup, bool) {
	p, ok := m.popups[id]
	if !ok {
		return Popup{}, false
	}
	return p.clone(), true
}

// Views returns every popup ready for drawing, in opening order.
func (m *Manager) Views() []View {
	views := make([]View, 0, len(m.order))
	for _, id := range m.order {
		p := m.popups[id]
		views = append(views, View{
			Popup:    p.clone(),
			Title:    m.Title(id),
			Screen:   m.view.ToScreen(p.Position, p.Space),
			Closable: m.Closable(id),
			Focused:  id == m.focused,
			Dragging: m.drag != nil && m.drag.id == id,
		})
	}
	return views
}
