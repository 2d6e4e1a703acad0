package reader

import "strings"

// AutocompleteState tracks the slash-command dropdown of a follow-up input.
type AutocompleteState struct {
	visible  bool
	index    int
	filtered []Command
}

// NewAutocompleteState creates a hidden AutocompleteState.
func NewAutocompleteState() *AutocompleteState {
	return &AutocompleteState{}
}

// Update refreshes the dropdown for the current input. It shows only for a
// lone slash word that is not already a complete command.
func (a *AutocompleteState) Update(input string) {
	if !strings.HasPrefix(input, "/") || strings.Contains(input, " ") {
		a.visible = false
		a.filtered = nil
		a.index = 0
		return
	}

	a.filtered = FilterCommands(input)
	_, exact := LookupCommand(input)
	a.visible = len(a.filtered) > 0 && !exact

	if a.index >= len(a.filtered) {
		a.index = max(0, len(a.filtered)-1)
	}
}

// Visible returns whether the dropdown is showing.
func (a *AutocompleteState) Visible() bool {
	return a.visible
}

// Hide hides the dropdown.
func (a *AutocompleteState) Hide() {
	a.visible = false
}

// Up moves the selection up.
func (a *AutocompleteState) Up() {
	if a.index > 0 {
		a.index--
	}
}

// Down moves the selection down.
func (a *AutocompleteState) Down() {
	if a.index < len(a.filtered)-1 {
		a.index++
	}
}

// Select returns the selected command name, or "" when nothing matches.
func (a *AutocompleteState) Select() string {
	if a.index < len(a.filtered) {
		return a.filtered[a.index].Name
	}
	return ""
}

// Index returns the selected row.
func (a *AutocompleteState) Index() int {
	return a.index
}

// Filtered returns the matching commands.
func (a *AutocompleteState) Filtered() []Command {
	return a.filtered
}
