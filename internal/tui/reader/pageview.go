package reader

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/vstratful/searchthatterm/internal/page"
	"github.com/vstratful/searchthatterm/internal/tui"
)

// pagePadding is the left margin of the page text.
const pagePadding = 1

// pageLine is one screen row of page text: bytes [start, end) of a block,
// drawn after indent cells. Blank separator rows have block -1.
type pageLine struct {
	block      int
	start, end int
	indent     int
	marker     string
}

// textPos is a byte offset into one block's text.
type textPos struct {
	block, off int
}

func (p textPos) before(q textPos) bool {
	if p.block != q.block {
		return p.block < q.block
	}
	return p.off < q.off
}

// pageLayout is the page text wrapped to the terminal width. Wrapping
// keeps byte ranges so a screen cell maps back to a text node.
type pageLayout struct {
	blocks []page.Block
	lines  []pageLine
	width  int
}

func layoutPage(blocks []page.Block, width int) *pageLayout {
	l := &pageLayout{blocks: blocks, width: width}
	for i, b := range blocks {
		if i > 0 && !(b.Kind == page.BlockListItem && blocks[i-1].Kind == page.BlockListItem) {
			l.lines = append(l.lines, pageLine{block: -1})
		}
		indent, marker := pagePadding, ""
		switch b.Kind {
		case page.BlockListItem:
			indent, marker = pagePadding+2, "• "
		case page.BlockQuote:
			indent, marker = pagePadding+2, "│ "
		case page.BlockPre:
			indent = pagePadding + 2
		}
		avail := max(width-indent-pagePadding, 10)

		start := 0
		for _, part := range strings.SplitAfter(b.Text, "\n") {
			end := start + len(part)
			textEnd := strings.TrimSuffix(b.Text[start:end], "\n")
			for j, r := range wrapRanges(b.Text, start, start+len(textEnd), avail) {
				ln := pageLine{block: i, start: r[0], end: r[1], indent: indent}
				if j == 0 && start == 0 {
					ln.marker = marker
				} else if b.Kind == page.BlockQuote {
					ln.marker = marker
				}
				l.lines = append(l.lines, ln)
			}
			start = end
		}
	}
	return l
}

// wrapRanges splits text[start:end] into rows no wider than width cells,
// breaking after spaces where possible. An empty range yields one empty row.
func wrapRanges(text string, start, end, width int) [][2]int {
	var out [][2]int
	lineStart, lineW, lastBreak := start, 0, -1
	for i := start; i < end; {
		r, size := utf8.DecodeRuneInString(text[i:])
		rw := ansi.StringWidth(text[i : i+size])
		if lineW+rw > width && i > lineStart {
			if lastBreak > lineStart {
				out = append(out, [2]int{lineStart, lastBreak})
				lineStart = lastBreak
			} else {
				out = append(out, [2]int{lineStart, i})
				lineStart = i
			}
			lineW = ansi.StringWidth(text[lineStart:i])
			lastBreak = -1
		}
		lineW += rw
		i += size
		if r == ' ' {
			lastBreak = i
		}
	}
	return append(out, [2]int{lineStart, end})
}

// height is the number of rows the page occupies.
func (l *pageLayout) height() int {
	return len(l.lines)
}

// posAt maps a cell of page row y to a text position. ok is false for rows
// without text.
func (l *pageLayout) posAt(x, y int) (textPos, bool) {
	if y < 0 || y >= len(l.lines) {
		return textPos{}, false
	}
	ln := l.lines[y]
	if ln.block < 0 {
		return textPos{}, false
	}
	text := l.blocks[ln.block].Text
	col := x - ln.indent
	if col <= 0 {
		return textPos{block: ln.block, off: ln.start}, true
	}
	w := 0
	for i := ln.start; i < ln.end; {
		_, size := utf8.DecodeRuneInString(text[i:])
		w += ansi.StringWidth(text[i : i+size])
		if w > col {
			return textPos{block: ln.block, off: i}, true
		}
		i += size
	}
	return textPos{block: ln.block, off: ln.end}, true
}

// cellOf maps a text position to the page row and column it is drawn at.
func (l *pageLayout) cellOf(p textPos) (x, y int) {
	for i, ln := range l.lines {
		if ln.block != p.block || p.off < ln.start || p.off > ln.end {
			continue
		}
		if p.off == ln.end && i+1 < len(l.lines) && l.lines[i+1].block == p.block && l.lines[i+1].start == ln.end {
			continue
		}
		return ln.indent + ansi.StringWidth(l.blocks[p.block].Text[ln.start:p.off]), i
	}
	return 0, 0
}

// textBetween returns the text from a to b, joining blocks with newlines.
func (l *pageLayout) textBetween(a, b textPos) string {
	if b.before(a) {
		a, b = b, a
	}
	if a.block == b.block {
		return l.blocks[a.block].Text[a.off:b.off]
	}
	parts := []string{l.blocks[a.block].Text[a.off:]}
	for i := a.block + 1; i < b.block; i++ {
		parts = append(parts, l.blocks[i].Text)
	}
	parts = append(parts, l.blocks[b.block].Text[:b.off])
	return strings.Join(parts, "\n")
}

// render draws rows [top, top+n) with the selection from a to b highlighted.
func (l *pageLayout) render(top, n int, sel *[2]textPos) []string {
	out := make([]string, n)
	for row := 0; row < n; row++ {
		y := top + row
		if y < 0 || y >= len(l.lines) || l.lines[y].block < 0 {
			continue
		}
		ln := l.lines[y]
		b := l.blocks[ln.block]
		style := blockStyle(b)

		var sb strings.Builder
		sb.WriteString(strings.Repeat(" ", ln.indent-lipgloss.Width(ln.marker)))
		sb.WriteString(tui.HelpStyle.Render(ln.marker))

		hiStart, hiEnd := ln.start, ln.start
		if sel != nil {
			a, z := sel[0], sel[1]
			if z.before(a) {
				a, z = z, a
			}
			hiStart, hiEnd = clip(ln, a, z)
		}
		text := b.Text
		if hiStart > ln.start {
			sb.WriteString(style.Render(printable(text[ln.start:hiStart])))
		}
		if hiEnd > hiStart {
			sb.WriteString(tui.SelectionStyle.Inherit(style).Render(printable(text[hiStart:hiEnd])))
		}
		if ln.end > hiEnd {
			sb.WriteString(style.Render(printable(text[hiEnd:ln.end])))
		}
		out[row] = sb.String()
	}
	return out
}

// clip intersects the selection [a, z) with a line, returning the
// highlighted byte range of the line's block.
func clip(ln pageLine, a, z textPos) (int, int) {
	from, to := ln.start, ln.end
	if ln.block < a.block || ln.block > z.block {
		return ln.start, ln.start
	}
	if ln.block == a.block {
		from = max(from, a.off)
	}
	if ln.block == z.block {
		to = min(to, z.off)
	}
	if to <= from {
		return ln.start, ln.start
	}
	return from, to
}

// printable drops control characters so page text cannot drive the
// terminal.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func blockStyle(b page.Block) lipgloss.Style {
	switch b.Kind {
	case page.BlockHeading:
		if b.Level <= 1 {
			return tui.PageTitleStyle
		}
		return tui.HeadingStyle
	case page.BlockQuote:
		return tui.QuoteStyle
	case page.BlockPre:
		return tui.PreStyle
	default:
		return lipgloss.NewStyle()
	}
}
