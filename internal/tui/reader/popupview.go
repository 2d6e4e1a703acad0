package reader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/vstratful/searchthatterm/internal/conversation"
	"github.com/vstratful/searchthatterm/internal/layout"
	"github.com/vstratful/searchthatterm/internal/popup"
	"github.com/vstratful/searchthatterm/internal/render"
	"github.com/vstratful/searchthatterm/internal/tui"
)

const (
	quickBodyMax  = 10
	deepBodyMax   = 14
	deepBodyMin   = 3
	maxInputRows  = 3
	maxSuggestion = 4
)

// Labels of the quick prompt buttons, parallel to popup.QuickPrompts.
var quickPromptLabels = []string{"Simpler", "Example", "Why?"}

// region is an interactive part of a popup frame.
type region int

const (
	regionNone region = iota
	regionTitle
	regionClose
	regionDive
	regionPrompt
	regionCopy
	regionBody
	regionInput
)

// hotspot is a clickable area of a frame, relative to its top-left corner.
type hotspot struct {
	region region
	rect   layout.Rect
	index  int
}

// frame is a popup drawn as box lines plus its clickable areas.
type frame struct {
	lines []string
	spots []hotspot
	width int
	body  layout.Rect
}

func (f frame) bounds(at layout.Point) layout.Rect {
	return layout.Rect{X: at.X, Y: at.Y, Width: f.width, Height: len(f.lines)}
}

// hit finds the most specific hotspot under p, relative to the frame.
func (f frame) hit(p layout.Point) hotspot {
	best := hotspot{}
	for _, s := range f.spots {
		if !s.rect.Contains(p) {
			continue
		}
		if best.region == regionNone || best.region == regionBody || best.region == regionTitle {
			best = s
		}
	}
	return best
}

// scrollState is the body scroll of one popup.
type scrollState struct {
	offset  int
	content int
	view    int
	// bottom forces the next sync to the end of the content.
	bottom bool
}

// sync adopts a new layout. A body that was pinned to the end before the
// update stays pinned.
func (s *scrollState) sync(content, view int) {
	if s.bottom || render.ShouldPin(s.content, s.offset, s.view, render.PinThreshold) {
		s.offset = render.BottomOffset(content, view)
	}
	s.bottom = false
	s.content = content
	s.view = view
	s.offset = layout.Clamp(s.offset, 0, render.BottomOffset(content, view))
}

func (s *scrollState) scroll(delta int) {
	s.offset = layout.Clamp(s.offset+delta, 0, render.BottomOffset(s.content, s.view))
}

// popupUI is the reader-side state of one popup.
type popupUI struct {
	input        textarea.Model
	hasInput     bool
	autocomplete *AutocompleteState
	scroll       scrollState
	code         []render.CodeBlock
	frame        frame
}

func newPopupUI() *popupUI {
	return &popupUI{autocomplete: NewAutocompleteState()}
}

// enableInput creates the follow-up input once the popup is promoted.
func (u *popupUI) enableInput(width int) {
	ta := textarea.New()
	ta.Placeholder = "Ask a follow-up... (/ for commands)"
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetWidth(width)
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.KeyMap.LineNext.SetEnabled(false)
	ta.KeyMap.LinePrevious.SetEnabled(false)
	u.input = ta
	u.hasInput = true
}

// fitInput sizes the input to its content, up to maxInputRows.
func (u *popupUI) fitInput(width int) {
	u.input.SetWidth(width)
	rows := 1
	if width > 0 {
		for _, line := range strings.Split(u.input.Value(), "\n") {
			rows += ansi.StringWidth(line) / width
		}
	}
	u.input.SetHeight(min(rows, maxInputRows))
}

// copySpot marks a code block's copy label in the body.
type copySpot struct {
	line, col, width int
	index            int
}

// body is a popup's conversation laid out for its inner width.
type body struct {
	lines  []string
	copies []copySpot
	code   []render.CodeBlock
}

func (b *body) blank() {
	if len(b.lines) > 0 {
		b.lines = append(b.lines, "")
	}
}

// answer paints model output and records its code blocks.
func (b *body) answer(text string, width int) {
	p := render.Paint(render.Markup(text), width)
	from := 0
	for n, block := range p.Code {
		label := fmt.Sprintf("[copy %d]", n+1)
		for i := from; i < len(p.Lines); i++ {
			plain := ansi.Strip(p.Lines[i])
			if idx := strings.Index(plain, label); idx >= 0 {
				b.copies = append(b.copies, copySpot{
					line:  len(b.lines) + i,
					col:   ansi.StringWidth(plain[:idx]),
					width: len(label),
					index: len(b.code),
				})
				from = i + 1
				break
			}
		}
		b.code = append(b.code, block)
	}
	b.lines = append(b.lines, p.Lines...)
}

func (b *body) wrapped(style lipgloss.Style, text string, width int) {
	out := style.Width(width).Render(strings.TrimSpace(text))
	b.lines = append(b.lines, strings.Split(out, "\n")...)
}

func (b *body) cursor() {
	if n := len(b.lines); n > 0 {
		b.lines[n-1] += tui.StreamingCursor
		return
	}
	b.lines = append(b.lines, tui.StreamingCursor)
}

func (b *body) thinking(spin string) {
	b.lines = append(b.lines, spin+tui.ThinkingStyle.Render(" Thinking..."))
}

func buildBody(p popup.Popup, width int, spin string) body {
	var b body
	if p.Mode == popup.QuickGlance {
		switch {
		case len(p.Conversation) > 0 && p.Conversation[0].Err:
			b.wrapped(tui.ErrorStyle, p.Conversation[0].Content, width)
		case len(p.Conversation) > 0:
			b.answer(p.Conversation[0].Content, width)
		case p.StreamingBuffer != "":
			b.answer(p.StreamingBuffer, width)
			b.cursor()
		case p.Streaming:
			b.thinking(spin)
		}
		return b
	}

	for i, t := range p.Conversation {
		b.blank()
		switch {
		case t.Err:
			b.wrapped(tui.ErrorStyle, t.Content, width)
		case t.Role == conversation.RoleUser:
			b.lines = append(b.lines, tui.UserStyle.Render("You"))
			b.wrapped(lipgloss.NewStyle(), t.Content, width)
		default:
			if i > 0 {
				b.lines = append(b.lines, tui.AssistantStyle.Render("Assistant"))
			}
			b.answer(t.Content, width)
		}
	}
	if p.Streaming {
		b.blank()
		if len(p.Conversation) > 0 {
			b.lines = append(b.lines, tui.AssistantStyle.Render("Assistant"))
		}
		if p.StreamingBuffer == "" {
			b.thinking(spin)
		} else {
			b.answer(p.StreamingBuffer, width)
			b.cursor()
		}
	}
	return b
}

// layoutPopup draws a popup into a frame of the given width no taller than
// maxHeight, updating its scroll state for the new content.
func layoutPopup(v popup.View, ui *popupUI, width, maxHeight int, spin string) frame {
	inner := max(width-2, 10)
	p := v.Popup
	deep := p.Mode == popup.DeepDive

	content := buildBody(p, inner, spin)
	ui.code = content.code

	fixed := 3 // borders and the quoted selection
	if p.DeepDiveBlocked {
		fixed++
	}
	var footer []string
	var footerSpots []hotspot
	if deep {
		footer, footerSpots = deepDiveFooter(ui, inner)
		fixed += len(footer)
	}

	bodyH := min(len(content.lines), quickBodyMax)
	if deep {
		bodyH = max(min(len(content.lines), deepBodyMax), deepBodyMin)
	}
	bodyH = max(min(bodyH, maxHeight-fixed), 1)
	ui.scroll.sync(len(content.lines), bodyH)

	border := lipgloss.NewStyle().Foreground(tui.PopupBorderColor)
	switch {
	case v.Dragging:
		border = border.Foreground(tui.PopupDraggingColor)
	case v.Focused:
		border = border.Foreground(tui.PopupFocusedColor)
	}

	f := frame{width: inner + 2}
	row := func(s string) {
		pad := inner - ansi.StringWidth(s)
		if pad < 0 {
			s = ansi.Truncate(s, inner, "")
			pad = 0
		}
		f.lines = append(f.lines, border.Render("│")+s+strings.Repeat(" ", pad)+border.Render("│"))
	}

	// Top border carries the title and the controls.
	title := " " + v.Title + " "
	var dive, closer string
	if !deep {
		dive = " Dive Deeper ▸ "
	}
	if v.Closable {
		closer = " × "
	}
	fill := inner - ansi.StringWidth(title) - ansi.StringWidth(dive) - ansi.StringWidth(closer)
	if fill < 1 {
		title = ansi.Truncate(title, max(ansi.StringWidth(title)+fill-1, 1), "…")
		fill = inner - ansi.StringWidth(title) - ansi.StringWidth(dive) - ansi.StringWidth(closer)
	}
	fill = max(fill, 0)
	titleW := ansi.StringWidth(title)
	f.lines = append(f.lines, border.Render("╭")+tui.PopupTitleStyle.Render(title)+border.Render(strings.Repeat("─", fill))+
		tui.ButtonStyle.Render(dive)+tui.CloseButtonStyle.Render(closer)+border.Render("╮"))
	f.spots = append(f.spots, hotspot{region: regionTitle, rect: layout.Rect{X: 0, Y: 0, Width: 1 + titleW + fill, Height: 1}})
	x := 1 + titleW + fill
	if dive != "" {
		f.spots = append(f.spots, hotspot{region: regionDive, rect: layout.Rect{X: x, Y: 0, Width: ansi.StringWidth(dive), Height: 1}})
		x += ansi.StringWidth(dive)
	}
	if closer != "" {
		f.spots = append(f.spots, hotspot{region: regionClose, rect: layout.Rect{X: x, Y: 0, Width: ansi.StringWidth(closer), Height: 1}})
	}

	quoted := fmt.Sprintf("“%s”", strings.Join(strings.Fields(p.Context.SelectedText), " "))
	row(tui.PopupSubtitleStyle.Render(ansi.Truncate(quoted, inner, "…")))

	bodyTop := len(f.lines)
	visible := content.lines[min(ui.scroll.offset, len(content.lines)):min(ui.scroll.offset+bodyH, len(content.lines))]
	for i := 0; i < bodyH; i++ {
		if i < len(visible) {
			row(visible[i])
		} else {
			row("")
		}
	}
	f.body = layout.Rect{X: 1, Y: bodyTop, Width: inner, Height: bodyH}
	f.spots = append(f.spots, hotspot{region: regionBody, rect: f.body})
	for _, c := range content.copies {
		y := c.line - ui.scroll.offset
		if y < 0 || y >= bodyH {
			continue
		}
		f.spots = append(f.spots, hotspot{
			region: regionCopy,
			rect:   layout.Rect{X: 1 + c.col, Y: bodyTop + y, Width: c.width, Height: 1},
			index:  c.index,
		})
	}

	if p.DeepDiveBlocked {
		row(tui.BlockedStyle.Render(popup.BlockedMessage))
	}

	footerTop := len(f.lines)
	for _, line := range footer {
		row(line)
	}
	for _, s := range footerSpots {
		s.rect.X++
		s.rect.Y += footerTop
		f.spots = append(f.spots, s)
	}

	bottom := strings.Repeat("─", inner)
	if ui.scroll.offset+bodyH < len(content.lines) {
		hint := " " + tui.PopupScrollHintChar + " more "
		bottom = strings.Repeat("─", inner-ansi.StringWidth(hint)-1) + hint + "─"
	}
	f.lines = append(f.lines, border.Render("╰"+bottom+"╯"))
	return f
}

// deepDiveFooter draws the quick prompts or command suggestions and the
// follow-up input. Hotspots are relative to the footer's first row and the
// frame's inner left edge.
func deepDiveFooter(ui *popupUI, inner int) ([]string, []hotspot) {
	var lines []string
	var spots []hotspot

	if !ui.hasInput {
		ui.enableInput(inner)
	}
	if ui.autocomplete.Visible() {
		for i, cmd := range ui.autocomplete.Filtered() {
			if i == maxSuggestion {
				break
			}
			var line string
			if i == ui.autocomplete.Index() {
				line = tui.AutocompleteSelectedStyle.Render("> " + cmd.Name)
			} else {
				line = "  " + cmd.Name
			}
			lines = append(lines, line+" "+tui.AutocompleteDescStyle.Render(cmd.Description))
		}
	} else {
		var sb strings.Builder
		x := 0
		for i, label := range quickPromptLabels {
			button := "[" + label + "]"
			if i > 0 {
				sb.WriteString(" ")
				x++
			}
			sb.WriteString(tui.QuickPromptStyle.Render(button))
			spots = append(spots, hotspot{region: regionPrompt, rect: layout.Rect{X: x, Y: 0, Width: ansi.StringWidth(button), Height: 1}, index: i})
			x += ansi.StringWidth(button)
		}
		lines = append(lines, sb.String())
	}

	lines = append(lines, tui.DimHelpStyle.Render(strings.Repeat("─", inner)))
	inputTop := len(lines)
	ui.fitInput(inner)
	inputLines := strings.Split(ui.input.View(), "\n")
	lines = append(lines, inputLines...)
	spots = append(spots, hotspot{region: regionInput, rect: layout.Rect{X: 0, Y: inputTop, Width: inner, Height: len(inputLines)}})
	return lines, spots
}
