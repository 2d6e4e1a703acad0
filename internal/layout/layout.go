// Package layout provides the cell geometry shared by the trigger affordance
// and popups: points, rectangles and the viewport onto a scrolled page.
package layout

// Point is a cell position. X grows right, Y grows down.
type Point struct {
	X, Y int
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect is an axis-aligned box of cells.
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Viewport is the visible window onto the page. ScrollY is the page row shown
// at the top of the window.
type Viewport struct {
	Width, Height int
	ScrollY       int
}

// Space is the coordinate space a stored position is expressed in.
type Space int

const (
	// SpaceViewport positions stay fixed on screen while the page scrolls.
	SpaceViewport Space = iota
	// SpacePage positions move with the page content.
	SpacePage
)

// SpaceFor maps the follow-scroll preference to a coordinate space.
func SpaceFor(followScroll bool) Space {
	if followScroll {
		return SpacePage
	}
	return SpaceViewport
}

// ToScreen converts a position stored in space s into screen cells.
func (v Viewport) ToScreen(p Point, s Space) Point {
	if s == SpacePage {
		return Point{X: p.X, Y: p.Y - v.ScrollY}
	}
	return p
}

// FromScreen converts screen cells into a position in space s.
func (v Viewport) FromScreen(p Point, s Space) Point {
	if s == SpacePage {
		return Point{X: p.X, Y: p.Y + v.ScrollY}
	}
	return p
}

// Reanchor converts p from one space to another so it keeps its current
// on-screen location.
func (v Viewport) Reanchor(p Point, from, to Space) Point {
	if from == to {
		return p
	}
	return v.FromScreen(v.ToScreen(p, from), to)
}

// Clamp returns v limited to [lo, hi]. When hi < lo, lo wins.
func Clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
