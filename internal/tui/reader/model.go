// Package reader is the interactive page reader: it shows a loaded page,
// turns mouse selections into explanation triggers and hosts the popups that
// stream answers.
package reader

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vstratful/searchthatterm/internal/config"
	"github.com/vstratful/searchthatterm/internal/conversation"
	"github.com/vstratful/searchthatterm/internal/layout"
	"github.com/vstratful/searchthatterm/internal/page"
	"github.com/vstratful/searchthatterm/internal/popup"
	"github.com/vstratful/searchthatterm/internal/selection"
)

// Message types for tea.Msg
type (
	relayEventMsg    conversation.Event
	relayClosedMsg   struct{}
	configChangedMsg struct{ cfg *config.Config }
	EscTimeoutMsg    struct{}
)

// Relay is the streaming backend the popups talk to.
type Relay interface {
	popup.Requester
	Events() <-chan conversation.Event
}

// Config holds what the reader needs to run.
type Config struct {
	Document *page.Document
	Relay    Relay
	Settings *config.Config
	// SettingsUpdates delivers settings saved by other processes. May be nil.
	SettingsUpdates <-chan *config.Config
	// SaveSettings persists settings changed from inside the reader. May be
	// nil, in which case changes last for the session only.
	SaveSettings func(*config.Config) error
	Logger       *slog.Logger
	// Clipboard receives OSC 52 sequences. Defaults to stdout.
	Clipboard io.Writer
}

// Model is the Bubble Tea model for the reader.
type Model struct {
	doc      *page.Document
	relay    Relay
	popups   *popup.Manager
	detector *selection.Detector
	page     *pageLayout
	uis      map[conversation.ID]*popupUI
	history  *HistoryNavigator
	spinner  spinner.Model

	settings  *config.Config
	updates   <-chan *config.Config
	save      func(*config.Config) error
	logger    *slog.Logger
	clipboard io.Writer

	view   layout.Viewport
	width  int
	height int
	ready  bool

	// Mouse selection over the page text.
	selecting bool
	hasSel    bool
	selAnchor textPos
	selHead   textPos

	esc    *escState
	status string
}

// New creates a reader Model.
func New(cfg Config) Model {
	settings := cfg.Settings
	if settings == nil {
		settings = &config.Config{Model: config.DefaultModel}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clip := cfg.Clipboard
	if clip == nil {
		clip = os.Stdout
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))

	follow := settings.FollowScroll()
	return Model{
		doc:       cfg.Document,
		relay:     cfg.Relay,
		popups:    popup.NewManager(cfg.Relay, popup.Options{FollowScroll: follow}),
		detector:  selection.NewDetector(follow, layout.Viewport{}),
		page:      layoutPage(cfg.Document.Blocks(), config.DefaultTerminalWidth),
		uis:       make(map[conversation.ID]*popupUI),
		history:   NewHistoryNavigator(),
		spinner:   sp,
		settings:  settings,
		updates:   cfg.SettingsUpdates,
		save:      cfg.SaveSettings,
		logger:    logger,
		clipboard: clip,
		esc:       &escState{},
	}
}

// Init starts listening for relay events and settings changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.relay.Events()),
		waitForSettings(m.updates),
		m.spinner.Tick,
	)
}

func waitForEvent(events <-chan conversation.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return relayClosedMsg{}
		}
		return relayEventMsg(ev)
	}
}

func waitForSettings(updates <-chan *config.Config) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-updates
		if !ok {
			return nil
		}
		return configChangedMsg{cfg: cfg}
	}
}

// popupWidth is the frame width, narrowed on small terminals.
func (m *Model) popupWidth() int {
	if m.width > 0 {
		return min(popup.DefaultWidth, m.width)
	}
	return popup.DefaultWidth
}

// refreshPopups lays out every popup frame and drops state for closed ones.
func (m *Model) refreshPopups() {
	live := make(map[conversation.ID]bool)
	for _, v := range m.popups.Views() {
		id := v.Popup.ID
		live[id] = true
		ui, ok := m.uis[id]
		if !ok {
			ui = newPopupUI()
			m.uis[id] = ui
		}
		if v.Popup.Mode == popup.DeepDive && !ui.hasInput {
			ui.enableInput(m.popupWidth() - 2)
		}
		if ui.hasInput {
			if v.Focused {
				ui.input.Focus()
			} else {
				ui.input.Blur()
			}
		}
		ui.frame = layoutPopup(v, ui, m.popupWidth(), m.view.Height, m.spinner.View())
	}
	for id := range m.uis {
		if !live[id] {
			delete(m.uis, id)
		}
	}
}

// focusedInput returns the focused popup when it takes typed input.
func (m *Model) focusedInput() (conversation.ID, *popupUI, bool) {
	id, ok := m.popups.Focused()
	if !ok {
		return "", nil, false
	}
	p, ok := m.popups.Snapshot(id)
	if !ok || p.Mode != popup.DeepDive {
		return "", nil, false
	}
	ui, ok := m.uis[id]
	if !ok || !ui.hasInput {
		return "", nil, false
	}
	return id, ui, true
}

// popupAt finds the topmost popup under a screen cell.
func (m *Model) popupAt(p layout.Point) (conversation.ID, hotspot, bool) {
	views := m.popups.Views()
	for i := len(views) - 1; i >= 0; i-- {
		v := views[i]
		ui, ok := m.uis[v.Popup.ID]
		if !ok {
			continue
		}
		if b := ui.frame.bounds(v.Screen); b.Contains(p) {
			return v.Popup.ID, ui.frame.hit(p.Sub(v.Screen)), true
		}
	}
	return "", hotspot{}, false
}

// Run starts the reader TUI.
func Run(cfg Config) error {
	p := tea.NewProgram(
		New(cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
