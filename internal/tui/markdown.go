package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/vstratful/searchthatterm/internal/config"
)

// MarkdownRenderer renders finished answers for plain terminal output, where
// the popup painter's incremental markup is not needed.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdownRenderer creates a renderer wrapping at width. A non-positive
// width uses the default terminal width.
func NewMarkdownRenderer(width int) (*MarkdownRenderer, error) {
	if width <= 0 {
		width = config.DefaultTerminalWidth
	}
	r, err := newTermRenderer(width)
	if err != nil {
		return nil, err
	}
	return &MarkdownRenderer{renderer: r, width: width}, nil
}

// The dark style is fixed so glamour never queries the terminal.
func newTermRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
}

// Width is the current wrap width.
func (m *MarkdownRenderer) Width() int {
	return m.width
}

// SetWidth rebuilds the renderer for a new wrap width.
func (m *MarkdownRenderer) SetWidth(width int) error {
	if width <= 0 {
		width = config.DefaultTerminalWidth
	}
	if width == m.width {
		return nil
	}
	r, err := newTermRenderer(width)
	if err != nil {
		return err
	}
	m.renderer = r
	m.width = width
	return nil
}

// Render renders markdown, falling back to plain wrapped text when glamour
// fails.
func (m *MarkdownRenderer) Render(content string) string {
	out, err := m.renderer.Render(content)
	if err != nil {
		out = lipgloss.NewStyle().Width(m.width).Render(content)
	}
	return strings.TrimRight(out, "\n")
}
