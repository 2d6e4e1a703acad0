package selection

import (
	"strings"
	"testing"

	"github.com/vstratful/searchthatterm/internal/conversation"
	"github.com/vstratful/searchthatterm/internal/layout"
)

var view = layout.Viewport{Width: 80, Height: 24}

func mito() conversation.Context {
	return conversation.Context{
		SelectedText: "mitochondria",
		Paragraph:    "The mitochondria is the powerhouse of the cell.",
		Heading:      "Organelles",
		PageTitle:    "Cell Biology 101",
		PageDomain:   "example.edu",
	}
}

func TestQualifies(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", false},
		{"a", false},
		{"  a  ", false},
		{"ab", true},
		{"mitochondria", true},
		{strings.Repeat("x", 999), true},
		{strings.Repeat("x", 1000), false},
		{strings.Repeat("é", 999), true},
	}
	for _, tt := range tests {
		if got := Qualifies(tt.text); got != tt.want {
			t.Errorf("Qualifies(%d chars) = %v, want %v", len(tt.text), got, tt.want)
		}
	}
}

func TestDetector_SelectAndActivate(t *testing.T) {
	d := NewDetector(false, view)
	sel := layout.Rect{X: 10, Y: 5, Width: 12, Height: 1}

	if !d.Select(mito(), sel, layout.Point{X: 21, Y: 5}) {
		t.Fatal("Select() = false, want trigger shown")
	}
	if d.State() != Shown {
		t.Fatalf("State() = %v, want shown", d.State())
	}
	b, ok := d.ScreenBounds()
	if !ok || b.X != 23 || b.Y != 4 {
		t.Errorf("ScreenBounds() = %+v, want anchored at {23 4}", b)
	}

	c, gotSel, ok := d.Activate()
	if !ok {
		t.Fatal("Activate() ok = false")
	}
	if c != mito() {
		t.Errorf("Activate() context = %+v, want %+v", c, mito())
	}
	if gotSel != sel {
		t.Errorf("Activate() selection = %+v, want %+v", gotSel, sel)
	}
	if d.State() != Hidden {
		t.Error("trigger still shown after activation")
	}
	if _, _, ok := d.Activate(); ok {
		t.Error("second Activate() ok = true, want false")
	}
}

func TestDetector_SelectRejectsShortText(t *testing.T) {
	d := NewDetector(false, view)
	c := mito()
	c.SelectedText = "x"
	if d.Select(c, layout.Rect{}, layout.Point{}) {
		t.Error("Select() = true for a one-character selection")
	}
	if d.State() != Hidden {
		t.Error("State() = shown, want hidden")
	}
}

func TestDetector_TriggerClampedToViewport(t *testing.T) {
	d := NewDetector(false, view)
	d.Select(mito(), layout.Rect{X: 70, Y: 0, Width: 10, Height: 1}, layout.Point{X: 79, Y: 0})

	b, _ := d.ScreenBounds()
	if b.X+b.Width > view.Width {
		t.Errorf("trigger overflows right edge: %+v", b)
	}
	if b.Y != 0 {
		t.Errorf("trigger Y = %d, want 0", b.Y)
	}
}

func TestDetector_HandleKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"a", true},
		{"enter", true},
		{"backspace", true},
		{"esc", true},
		{"shift", false},
		{"up", false},
		{"shift+left", false},
		{"pgdown", false},
		{"f5", false},
		{"capslock", false},
		{"ctrl+c", false},
		{"alt+v", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			d := NewDetector(false, view)
			d.Select(mito(), layout.Rect{X: 1, Y: 1, Width: 5, Height: 1}, layout.Point{X: 5, Y: 1})
			if got := d.HandleKey(ParseKey(tt.key)); got != tt.want {
				t.Errorf("HandleKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestDetector_HandlePointerDown(t *testing.T) {
	d := NewDetector(false, view)
	d.Select(mito(), layout.Rect{X: 10, Y: 5, Width: 12, Height: 1}, layout.Point{X: 21, Y: 5})
	b, _ := d.ScreenBounds()

	if d.HandlePointerDown(layout.Point{X: b.X, Y: b.Y}, false) {
		t.Error("press on the trigger dismissed it")
	}
	if d.HandlePointerDown(layout.Point{X: 0, Y: 20}, true) {
		t.Error("press on a popup dismissed the trigger")
	}
	if !d.HandlePointerDown(layout.Point{X: 0, Y: 20}, false) {
		t.Error("press outside did not dismiss the trigger")
	}
}

func TestDetector_FollowScrollKeepsScreenPosition(t *testing.T) {
	d := NewDetector(true, layout.Viewport{Width: 80, Height: 24, ScrollY: 30})
	d.Select(mito(), layout.Rect{X: 10, Y: 5, Width: 12, Height: 1}, layout.Point{X: 21, Y: 5})
	before, _ := d.ScreenBounds()

	d.SetFollowScroll(false)
	after, _ := d.ScreenBounds()
	if before != after {
		t.Fatalf("re-anchoring moved trigger from %+v to %+v", before, after)
	}

	d.SetViewport(layout.Viewport{Width: 80, Height: 24, ScrollY: 50})
	if still, _ := d.ScreenBounds(); still != after {
		t.Errorf("viewport-anchored trigger moved on scroll: %+v", still)
	}
}

func TestDetector_PageAnchoredTriggerScrolls(t *testing.T) {
	d := NewDetector(true, layout.Viewport{Width: 80, Height: 24})
	d.Select(mito(), layout.Rect{X: 10, Y: 5, Width: 12, Height: 1}, layout.Point{X: 21, Y: 5})
	d.SetViewport(layout.Viewport{Width: 80, Height: 24, ScrollY: 3})

	b, _ := d.ScreenBounds()
	if b.Y != 1 {
		t.Errorf("trigger Y after scrolling 3 rows = %d, want 1", b.Y)
	}
}
