package reader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/vstratful/searchthatterm/internal/selection"
	"github.com/vstratful/searchthatterm/internal/tui"
)

// View renders the reader.
func (m Model) View() string {
	if !m.ready {
		return "Loading page..."
	}

	var sel *[2]textPos
	if m.hasSel {
		sel = &[2]textPos{m.selAnchor, m.selHead}
	}
	lines := m.page.render(m.view.ScrollY, m.view.Height, sel)

	if b, ok := m.detector.ScreenBounds(); ok {
		lines = tui.Overlay(lines, []string{tui.TriggerStyle.Render(selection.TriggerLabel)}, b.X, b.Y)
	}
	for _, v := range m.popups.Views() {
		if ui, ok := m.uis[v.Popup.ID]; ok {
			lines = tui.Overlay(lines, ui.frame.lines, v.Screen.X, v.Screen.Y)
		}
	}

	lines = tui.FitLines(lines, m.width, m.view.Height)
	return strings.Join(append(lines, m.footer()), "\n")
}

func (m Model) footer() string {
	sep := tui.DimHelpStyle.Render(" • ")
	var parts []string

	title := m.doc.Title()
	if title == "" {
		title = "Untitled"
	}
	parts = append(parts, tui.DimHelpStyle.Render(title))
	if d := m.doc.Domain(); d != "" {
		parts = append(parts, tui.DimHelpStyle.Render(d))
	}
	parts = append(parts, tui.DimHelpStyle.Render(m.settings.Model))
	if total := m.page.height(); total > m.view.Height {
		pct := 100 * (m.view.ScrollY + m.view.Height) / total
		parts = append(parts, tui.DimHelpStyle.Render(fmt.Sprintf("%d%%", min(pct, 100))))
	}

	switch {
	case m.esc.active:
		parts = append(parts, tui.EscWarningStyle.Render("Press ⎋ again to quit"))
	case m.status != "":
		parts = append(parts, tui.StatusStyle.Render(m.status))
	case m.history.IsBrowsing():
		parts = append(parts, tui.HistoryModeStyle.Render(fmt.Sprintf("browsing history (%d/%d)",
			m.history.Len()-m.history.Index(), m.history.Len())))
	default:
		parts = append(parts, m.hints()...)
	}
	return ansi.Truncate(strings.Join(parts, sep), m.width, "…")
}

func (m Model) hints() []string {
	hint := func(key, what string) string {
		return tui.KeyHintStyle.Render(key) + tui.DimHelpStyle.Render(": "+what)
	}
	if _, _, ok := m.focusedInput(); ok {
		return []string{hint("Enter", "ask"), hint("/", "commands"), hint("Tab", "next"), hint("⎋", "close")}
	}
	if _, ok := m.detector.Trigger(); ok {
		return []string{hint("Enter", "explain"), hint("⎋", "dismiss")}
	}
	if m.popups.Len() > 0 {
		return []string{hint("d", "dive deeper"), hint("y", "copy code"), hint("Tab", "next"), hint("⎋", "close")}
	}
	return []string{hint("drag", "select text"), hint("↑↓", "scroll"), hint("s", "scroll mode"), hint("q", "quit")}
}
