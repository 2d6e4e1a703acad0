package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Overlay draws fg over bg with its top-left corner at cell (x, y). Styled
// background text on either side of the box is kept intact. Parts of fg that
// fall outside bg are clipped.
func Overlay(bg []string, fg []string, x, y int) []string {
	out := append([]string(nil), bg...)
	for i, line := range fg {
		row := y + i
		if row < 0 || row >= len(out) {
			continue
		}
		out[row] = spliceLine(out[row], line, x)
	}
	return out
}

// spliceLine replaces the cells of base starting at x with insert.
func spliceLine(base, insert string, x int) string {
	if x < 0 {
		insert = ansi.TruncateLeft(insert, -x, "")
		x = 0
	}
	w := ansi.StringWidth(insert)
	if w == 0 {
		return base
	}

	left := ansi.Truncate(base, x, "")
	if pad := x - ansi.StringWidth(left); pad > 0 {
		left += strings.Repeat(" ", pad)
	}
	right := ansi.TruncateLeft(base, x+w, "")

	var sb strings.Builder
	sb.WriteString(left)
	sb.WriteString(ansi.ResetStyle)
	sb.WriteString(insert)
	sb.WriteString(ansi.ResetStyle)
	sb.WriteString(right)
	return sb.String()
}

// FitLines pads or trims lines to exactly height rows, each cut to width
// cells.
func FitLines(lines []string, width, height int) []string {
	out := make([]string, height)
	for i := range out {
		if i < len(lines) {
			out[i] = ansi.Truncate(lines[i], width, "")
		}
	}
	return out
}
