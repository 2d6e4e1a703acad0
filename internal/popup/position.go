package popup

import (
	"github.com/vstratful/searchthatterm/internal/conversation"
	"github.com/vstratful/searchthatterm/internal/layout"
)

// margin keeps new popups off the window edges.
const margin = 1

// Cascade offsets each new popup per popup already open.
var Cascade = layout.Point{X: 3, Y: 2}

// place picks the on-screen corner for a new popup.
func (m *Manager) place(selection *layout.Rect) layout.Point {
	n := len(m.order)
	offset := layout.Point{X: Cascade.X * n, Y: Cascade.Y * n}

	var p layout.Point
	switch {
	case m.saved != nil && n == 0:
		p = *m.saved
	case selection != nil:
		p = layout.Point{
			X: selection.X,
			Y: selection.Y + selection.Height,
		}.Add(offset)
	default:
		p = layout.Point{
			X: m.view.Width/2 - m.width/2,
			Y: m.view.Height / 3,
		}.Add(offset)
	}

	if p.X+m.width > m.view.Width {
		p.X = m.view.Width - m.width - margin
	}
	if p.X < margin {
		p.X = margin
	}
	if p.Y < margin {
		p.Y = margin
	}
	return p
}

// BeginDrag starts dragging a popup grabbed at the given screen cell. Only one
// popup may be dragged at a time.
func (m *Manager) BeginDrag(id conversation.ID, pointer layout.Point) bool {
	if m.drag != nil {
		return false
	}
	p, ok := m.popups[id]
	if !ok {
		return false
	}
	m.drag = &drag{id: id, grab: pointer.Sub(m.view.ToScreen(p.Position, p.Space))}
	m.focused = id
	return true
}

// UpdateDrag moves the dragged popup to follow the pointer. The left edge
// stays inside the window; the top edge stops at row 0.
func (m *Manager) UpdateDrag(pointer layout.Point) bool {
	if m.drag == nil {
		return false
	}
	p, ok := m.popups[m.drag.id]
	if !ok {
		m.drag = nil
		return false
	}

	screen := pointer.Sub(m.drag.grab)
	screen.X = layout.Clamp(screen.X, 0, m.view.Width-1)
	if screen.Y < 0 {
		screen.Y = 0
	}
	p.Position = m.view.FromScreen(screen, p.Space)
	return true
}

// EndDrag releases the dragged popup.
func (m *Manager) EndDrag() {
	m.drag = nil
}

// Dragging returns the popup being dragged, if any.
func (m *Manager) Dragging() (conversation.ID, bool) {
	if m.drag == nil {
		return "", false
	}
	return m.drag.id, true
}

// SetViewport updates the visible window. Page-anchored popups follow the
// new scroll offset when drawn.
func (m *Manager) SetViewport(v layout.Viewport) {
	m.view = v
}

// Viewport returns the visible window.
func (m *Manager) Viewport() layout.Viewport {
	return m.view
}

// SetFollowScroll switches between page-anchored and window-anchored
// popups. Every open popup is re-anchored so it stays where it is on screen.
func (m *Manager) SetFollowScroll(follow bool) {
	to := layout.SpaceFor(follow)
	for _, p := range m.popups {
		p.Position = m.view.Reanchor(p.Position, p.Space, to)
		p.Space = to
	}
	m.space = to
}
