// Package tui provides terminal UI components.
package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

// Page styles
var (
	PageTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	HeadingStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	QuoteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	PreStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	SelectionStyle = lipgloss.NewStyle().Reverse(true)

	TriggerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E2E")).
			Background(lipgloss.Color("#A78BFA")).
			Bold(true)
)

// Popup styles
var (
	PopupBorder         = lipgloss.RoundedBorder()
	PopupBorderColor    = lipgloss.Color("62")
	PopupFocusedColor   = lipgloss.Color("#A78BFA")
	PopupDraggingColor  = lipgloss.Color("#6EE7B7")
	PopupTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	PopupSubtitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	ButtonStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#6EE7B7")).Bold(true)
	CloseButtonStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	QuickPromptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	BlockedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")).Bold(true)
	StreamingCursor     = "▋"
	ThinkingStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	PopupScrollHintChar = "↓"
)

// Conversation styles
var (
	UserStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	AssistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	HelpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	InputBoxStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	// Autocomplete styles
	AutocompleteBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(0, 1)
	AutocompleteItemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	AutocompleteSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	AutocompleteDescStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	EscWarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	HistoryModeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#A78BFA")).
				Italic(true)

	KeyHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6EE7B7")).
			Bold(true)

	DimHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	StatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6EE7B7"))
)

// Picker styles
var (
	TitleStyle        = lipgloss.NewStyle().MarginLeft(2)
	ItemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	SelectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	PaginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	HelpListStyle     = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)
