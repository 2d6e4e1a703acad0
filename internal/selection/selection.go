// Package selection decides when a text selection qualifies for an
// explanation and owns the single trigger affordance offered for it.
package selection

import (
	"strings"
	"unicode/utf8"

	"github.com/vstratful/searchthatterm/internal/conversation"
	"github.com/vstratful/searchthatterm/internal/layout"
)

const (
	minSelectionLen = 1
	maxSelectionLen = 1000
)

// TriggerOffset places the trigger relative to the selection end.
var TriggerOffset = layout.Point{X: 2, Y: -1}

// TriggerLabel is the text of the trigger affordance.
const TriggerLabel = " ✦ Explain "

// Qualifies reports whether a selection is long enough to explain and short
// enough to send. Length is measured in characters after trimming.
func Qualifies(text string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	return n > minSelectionLen && n < maxSelectionLen
}

// State is the trigger's visibility.
type State int

const (
	Hidden State = iota
	Shown
)

func (s State) String() string {
	if s == Shown {
		return "shown"
	}
	return "hidden"
}

// Trigger is the affordance offered for the current selection.
type Trigger struct {
	Context conversation.Context
	// Selection bounds the selected text on screen, in the trigger's space.
	Selection layout.Rect
	Position  layout.Point
	Space     layout.Space
}

// Bounds is the trigger's clickable area in its own space.
func (t Trigger) Bounds() layout.Rect {
	return layout.Rect{X: t.Position.X, Y: t.Position.Y, Width: utf8.RuneCountInString(TriggerLabel), Height: 1}
}

// Detector is the hidden/shown state machine for the trigger. The zero value
// is hidden and anchors in viewport space.
type Detector struct {
	state   State
	trigger Trigger
	space   layout.Space
	view    layout.Viewport
}

// NewDetector returns a hidden detector anchoring in the given space.
func NewDetector(followScroll bool, view layout.Viewport) *Detector {
	return &Detector{space: layout.SpaceFor(followScroll), view: view}
}

// State returns the current state.
func (d *Detector) State() State {
	return d.state
}

// Trigger returns the shown trigger. ok is false when hidden.
func (d *Detector) Trigger() (t Trigger, ok bool) {
	return d.trigger, d.state == Shown
}

// ScreenBounds is the trigger's clickable area on screen.
func (d *Detector) ScreenBounds() (layout.Rect, bool) {
	if d.state != Shown {
		return layout.Rect{}, false
	}
	b := d.trigger.Bounds()
	p := d.view.ToScreen(layout.Point{X: b.X, Y: b.Y}, d.trigger.Space)
	b.X, b.Y = p.X, p.Y
	return b, true
}

// Select handles pointer-up over a selection whose text and context have
// been read from the page. end is the screen cell where the selection ends
// and sel its on-screen bounds. It returns true when the trigger is shown.
// A selection that does not qualify leaves the current state alone.
func (d *Detector) Select(c conversation.Context, sel layout.Rect, end layout.Point) bool {
	if !Qualifies(c.SelectedText) {
		return false
	}
	c.SelectedText = strings.TrimSpace(c.SelectedText)

	pos := end.Add(TriggerOffset)
	maxX := d.view.Width - utf8.RuneCountInString(TriggerLabel)
	pos.X = layout.Clamp(pos.X, 0, maxX)
	pos.Y = layout.Clamp(pos.Y, 0, d.view.Height-1)

	selPos := d.view.FromScreen(layout.Point{X: sel.X, Y: sel.Y}, d.space)
	sel.X, sel.Y = selPos.X, selPos.Y

	d.trigger = Trigger{
		Context:   c,
		Selection: sel,
		Position:  d.view.FromScreen(pos, d.space),
		Space:     d.space,
	}
	d.state = Shown
	return true
}

// Activate consumes the trigger and returns the context bundle to open a
// popup with, along with the selection bounds on screen. ok is false when no
// trigger is shown.
func (d *Detector) Activate() (c conversation.Context, sel layout.Rect, ok bool) {
	if d.state != Shown {
		return conversation.Context{}, layout.Rect{}, false
	}
	c = d.trigger.Context
	sel = d.trigger.Selection
	p := d.view.ToScreen(layout.Point{X: sel.X, Y: sel.Y}, d.trigger.Space)
	sel.X, sel.Y = p.X, p.Y
	d.Dismiss()
	return c, sel, true
}

// Dismiss hides the trigger.
func (d *Detector) Dismiss() {
	d.state = Hidden
	d.trigger = Trigger{}
}

// HandleKey applies the dismissal policy to a key press and reports whether
// the trigger was dismissed.
func (d *Detector) HandleKey(k Key) bool {
	if d.state != Shown || !k.Dismisses() {
		return false
	}
	d.Dismiss()
	return true
}

// HandlePointerDown dismisses the trigger unless the press landed on it or on
// a popup. It reports whether the trigger was dismissed.
func (d *Detector) HandlePointerDown(p layout.Point, onPopup bool) bool {
	if d.state != Shown || onPopup {
		return false
	}
	if b, _ := d.ScreenBounds(); b.Contains(p) {
		return false
	}
	d.Dismiss()
	return true
}

// SetViewport updates the visible window.
func (d *Detector) SetViewport(v layout.Viewport) {
	d.view = v
}

// SetFollowScroll switches the anchoring space, re-anchoring a shown trigger
// so it keeps its on-screen position.
func (d *Detector) SetFollowScroll(follow bool) {
	to := layout.SpaceFor(follow)
	if d.state == Shown && d.trigger.Space != to {
		from := d.trigger.Space
		d.trigger.Position = d.view.Reanchor(d.trigger.Position, from, to)
		sel := d.view.Reanchor(layout.Point{X: d.trigger.Selection.X, Y: d.trigger.Selection.Y}, from, to)
		d.trigger.Selection.X, d.trigger.Selection.Y = sel.X, sel.Y
		d.trigger.Space = to
	}
	d.space = to
}
