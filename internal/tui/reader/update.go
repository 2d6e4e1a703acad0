package reader

import (
	"fmt"
	"strings"
	"time"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vstratful/searchthatterm/internal/config"
	"github.com/vstratful/searchthatterm/internal/conversation"
	"github.com/vstratful/searchthatterm/internal/layout"
	"github.com/vstratful/searchthatterm/internal/logging"
	"github.com/vstratful/searchthatterm/internal/popup"
	"github.com/vstratful/searchthatterm/internal/selection"
)

const wheelStep = 3

// Update handles messages for the reader.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case relayEventMsg:
		ev := conversation.Event(msg)
		if m.popups.HandleEvent(ev) {
			m.refreshPopups()
		} else {
			m.logger.Debug("relay_event_dropped", "conversation_id", ev.ID, "type", ev.Type)
		}
		return m, waitForEvent(m.relay.Events())

	case relayClosedMsg:
		return m, nil

	case configChangedMsg:
		m.applySettings(msg.cfg)
		return m, waitForSettings(m.updates)

	case EscTimeoutMsg:
		m.esc.expire(time.Now())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.anyStreaming() {
			m.refreshPopups()
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.view.Width = width
	m.view.Height = max(height-1, 1)
	if m.page.width != width {
		m.page = layoutPage(m.doc.Blocks(), width)
	}
	m.view.ScrollY = layout.Clamp(m.view.ScrollY, 0, m.maxScroll())
	m.popups.SetViewport(m.view)
	m.detector.SetViewport(m.view)
	m.ready = true
	m.refreshPopups()
}

func (m *Model) maxScroll() int {
	return max(m.page.height()-m.view.Height, 0)
}

func (m *Model) scrollPage(delta int) {
	m.view.ScrollY = layout.Clamp(m.view.ScrollY+delta, 0, m.maxScroll())
	m.popups.SetViewport(m.view)
	m.detector.SetViewport(m.view)
}

func (m *Model) anyStreaming() bool {
	for _, v := range m.popups.Views() {
		if v.Popup.Streaming {
			return true
		}
	}
	return false
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		return m.handleEsc()
	}
	m.status = ""

	if id, ui, ok := m.focusedInput(); ok {
		m.detector.HandleKey(selection.ParseKey(key))
		return m.updateInput(id, ui, msg)
	}

	if key == "enter" && m.activateTrigger() {
		return m, nil
	}
	if m.detector.HandleKey(selection.ParseKey(key)) {
		m.logger.Debug("trigger_dismissed", "key", key)
	}

	page := max(m.view.Height-2, 1)
	switch key {
	case "up", "k":
		m.scrollPage(-1)
	case "down", "j":
		m.scrollPage(1)
	case "pgup", "b":
		m.scrollPage(-page)
	case "pgdown", " ", "f":
		m.scrollPage(page)
	case "home", "g":
		m.scrollPage(-m.view.ScrollY)
	case "end", "G":
		m.scrollPage(m.maxScroll())
	case "tab":
		m.cycleFocus()
	case "d":
		if id, ok := m.popups.Focused(); ok {
			m.promote(id)
		}
	case "x":
		if id, ok := m.popups.Focused(); ok {
			m.closePopup(id)
		}
	case "y":
		if id, ok := m.popups.Focused(); ok {
			return m, m.copyCode(id, 0)
		}
	case "s":
		m.toggleFollowScroll()
	case "q":
		return m, tea.Quit
	}
	m.refreshPopups()
	return m, nil
}

// handleEsc dismisses the innermost thing that is open: the trigger, a
// command dropdown, then the newest popup. With nothing open a second Escape
// quits.
func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	if m.detector.HandleKey(selection.ParseKey("esc")) {
		m.hasSel = false
		return m, nil
	}
	if _, ui, ok := m.focusedInput(); ok && ui.autocomplete.Visible() {
		ui.autocomplete.Hide()
		m.refreshPopups()
		return m, nil
	}
	if id, ok := m.popups.CloseTopmost(); ok {
		m.logger.Info("popup_closed", "conversation_id", id, "via", "escape")
		m.refreshPopups()
		return m, nil
	}
	if m.esc.press(time.Now()) {
		return m, tea.Quit
	}
	return m, tea.Tick(config.EscDoublePressTimeout, func(time.Time) tea.Msg {
		return EscTimeoutMsg{}
	})
}

// updateInput handles keys for a focused deep-dive popup.
func (m Model) updateInput(id conversation.ID, ui *popupUI, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if ui.autocomplete.Visible() {
		switch msg.Type {
		case tea.KeyUp:
			ui.autocomplete.Up()
			m.refreshPopups()
			return m, nil
		case tea.KeyDown:
			ui.autocomplete.Down()
			m.refreshPopups()
			return m, nil
		case tea.KeyEnter, tea.KeyTab:
			if selected := ui.autocomplete.Select(); selected != "" {
				ui.input.SetValue(selected)
				ui.input.CursorEnd()
			}
			ui.autocomplete.Hide()
			m.refreshPopups()
			return m, nil
		}
	}

	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(ui.input.Value())
		if text == "" {
			return m, nil
		}
		m.submit(id, ui, text)
		m.refreshPopups()
		return m, nil
	case tea.KeyUp:
		if strings.TrimSpace(ui.input.Value()) == "" || m.history.IsBrowsing() {
			if entry := m.history.Up(ui.input.Value()); entry != "" {
				ui.input.SetValue(entry)
			}
		}
		m.refreshPopups()
		return m, nil
	case tea.KeyDown:
		if m.history.IsBrowsing() {
			ui.input.SetValue(m.history.Down())
		}
		m.refreshPopups()
		return m, nil
	case tea.KeyPgUp:
		ui.scroll.scroll(-max(ui.scroll.view-1, 1))
		m.refreshPopups()
		return m, nil
	case tea.KeyPgDown:
		ui.scroll.scroll(max(ui.scroll.view-1, 1))
		m.refreshPopups()
		return m, nil
	case tea.KeyTab:
		m.cycleFocus()
		m.refreshPopups()
		return m, nil
	case tea.KeyCtrlU:
		ui.input.Reset()
		m.history.Reset()
		ui.autocomplete.Update("")
		m.refreshPopups()
		return m, nil
	}

	var cmd tea.Cmd
	ui.input, cmd = ui.input.Update(msg)
	ui.autocomplete.Update(ui.input.Value())
	m.refreshPopups()
	return m, cmd
}

// submit sends typed input: a slash command or a follow-up question.
func (m *Model) submit(id conversation.ID, ui *popupUI, text string) {
	question := text
	if strings.HasPrefix(text, "/") {
		cmd, ok := LookupCommand(text)
		if !ok {
			m.status = "Unknown command " + text
			return
		}
		if cmd.Name == CmdClose {
			m.closePopup(id)
			return
		}
		question = cmd.Prompt
	}

	if !m.popups.SubmitFollowUp(id, question) {
		m.status = "Wait for the answer to finish"
		return
	}
	m.logger.Info("follow_up_sent", "conversation_id", id)
	m.history.Add(text)
	m.history.Reset()
	ui.input.Reset()
	ui.autocomplete.Update("")
	ui.scroll.bottom = true
}

func (m *Model) promote(id conversation.ID) {
	if m.popups.Promote(id) {
		m.logger.Info("popup_promoted", "conversation_id", id, "deep_dives", m.popups.DeepDiveCount())
		return
	}
	m.logger.Info("popup_promotion_blocked", "conversation_id", id)
}

func (m *Model) closePopup(id conversation.ID) {
	if m.popups.Close(id) {
		m.logger.Info("popup_closed", "conversation_id", id)
	}
}

func (m *Model) cycleFocus() {
	views := m.popups.Views()
	if len(views) == 0 {
		return
	}
	next := 0
	for i, v := range views {
		if v.Focused {
			next = (i + 1) % len(views)
			break
		}
	}
	m.popups.Focus(views[next].Popup.ID)
}

// activateTrigger opens a popup for the shown trigger.
func (m *Model) activateTrigger() bool {
	c, sel, ok := m.detector.Activate()
	if !ok {
		return false
	}
	id := m.popups.Create(c, &sel)
	m.hasSel = false
	m.logger.Info("popup_created", "conversation_id", id, "chars", len(c.SelectedText))
	m.refreshPopups()
	return true
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	p := layout.Point{X: msg.X, Y: msg.Y}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.wheel(p, -wheelStep)
		case tea.MouseButtonWheelDown:
			m.wheel(p, wheelStep)
		case tea.MouseButtonLeft:
			return m.press(p)
		}
	case tea.MouseActionMotion:
		if _, ok := m.popups.Dragging(); ok {
			m.popups.UpdateDrag(p)
		} else if m.selecting {
			if pos, ok := m.page.posAt(p.X, p.Y+m.view.ScrollY); ok {
				m.selHead = pos
			}
		}
	case tea.MouseActionRelease:
		if _, ok := m.popups.Dragging(); ok {
			m.popups.EndDrag()
		} else if m.selecting {
			m.finishSelection()
		}
	}
	m.refreshPopups()
	return m, nil
}

func (m *Model) wheel(p layout.Point, delta int) {
	if id, _, ok := m.popupAt(p); ok {
		m.uis[id].scroll.scroll(delta)
		return
	}
	m.scrollPage(delta)
}

func (m Model) press(p layout.Point) (tea.Model, tea.Cmd) {
	m.status = ""
	if id, spot, ok := m.popupAt(p); ok {
		m.popups.Focus(id)
		var cmd tea.Cmd
		switch spot.region {
		case regionClose:
			m.closePopup(id)
		case regionDive:
			m.promote(id)
		case regionPrompt:
			if ui := m.uis[id]; ui != nil {
				m.submit(id, ui, popup.QuickPrompts[spot.index])
			}
		case regionCopy:
			cmd = m.copyCode(id, spot.index)
		case regionTitle:
			m.popups.BeginDrag(id, p)
		}
		m.refreshPopups()
		return m, cmd
	}

	if b, ok := m.detector.ScreenBounds(); ok && b.Contains(p) {
		m.activateTrigger()
		return m, nil
	}
	m.detector.HandlePointerDown(p, false)
	if m.popups.OutsideClick() {
		m.logger.Debug("popup_closed", "via", "outside_click")
	}

	if pos, ok := m.page.posAt(p.X, p.Y+m.view.ScrollY); ok {
		m.selecting = true
		m.hasSel = true
		m.selAnchor, m.selHead = pos, pos
	} else {
		m.selecting = false
		m.hasSel = false
	}
	m.refreshPopups()
	return m, nil
}

// finishSelection offers the trigger for the selected text.
func (m *Model) finishSelection() {
	m.selecting = false
	start, end := m.selAnchor, m.selHead
	if end.before(start) {
		start, end = end, start
	}
	if start == end {
		m.hasSel = false
		return
	}

	text := m.page.textBetween(start, end)
	if !selection.Qualifies(text) {
		return
	}
	anchor := m.page.blocks[start.block].NodeAt(start.off)
	c := m.doc.ContextFor(text, anchor)

	sx, sy := m.page.cellOf(start)
	ex, ey := m.page.cellOf(end)
	sy -= m.view.ScrollY
	ey -= m.view.ScrollY
	sel := layout.Rect{X: sx, Y: sy, Width: max(ex-sx, 1), Height: 1}
	if ey > sy {
		sel = layout.Rect{X: pagePadding, Y: sy, Width: max(m.view.Width-2*pagePadding, 1), Height: ey - sy + 1}
	}
	if m.detector.Select(c, sel, layout.Point{X: ex, Y: ey}) {
		m.logger.Debug("trigger_shown", "chars", len(c.SelectedText))
	}
}

// copyCode copies a code block of a popup to the clipboard.
func (m *Model) copyCode(id conversation.ID, index int) tea.Cmd {
	ui, ok := m.uis[id]
	if !ok || index < 0 || index >= len(ui.code) {
		m.status = "No code to copy"
		return nil
	}
	code := ui.code[index].Code
	m.status = fmt.Sprintf("Copied %d lines", strings.Count(code, "\n")+1)
	w := m.clipboard
	return func() tea.Msg {
		_, _ = fmt.Fprint(w, osc52.New(code))
		return nil
	}
}

// toggleFollowScroll flips whether popups move with the page and saves the
// preference.
func (m *Model) toggleFollowScroll() {
	next := *m.settings
	next.SetFollowScroll(!m.settings.FollowScroll())
	if m.save != nil {
		if err := m.save(&next); err != nil {
			m.logger.Error("settings_save_failed", "error", err)
			m.status = "Could not save settings"
			return
		}
	}
	m.applySettings(&next)
	if next.FollowScroll() {
		m.status = "Popups scroll with the page"
	} else {
		m.status = "Popups stay put"
	}
}

// applySettings adopts new settings, re-anchoring popups and the trigger
// when the scroll preference changed.
func (m *Model) applySettings(cfg *config.Config) {
	if cfg == nil {
		return
	}
	follow := cfg.FollowScroll()
	if follow != m.settings.FollowScroll() {
		m.popups.SetFollowScroll(follow)
		m.detector.SetFollowScroll(follow)
		m.logger.Info("follow_scroll_changed", "follow", follow)
	}
	if cfg.LogLevel != m.settings.LogLevel {
		logging.SetLevel(cfg.LogLevel)
	}
	m.settings = cfg
	m.refreshPopups()
}
