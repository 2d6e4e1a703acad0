package reader

// maxHistory bounds how many submitted follow-ups are remembered.
const maxHistory = 50

// HistoryNavigator walks back through follow-up questions the reader has
// already asked. One navigator is shared by every popup.
type HistoryNavigator struct {
	history []string
	// index is the entry on display, -1 when not browsing.
	index int
	// draft is what was typed before browsing started.
	draft string
}

// NewHistoryNavigator creates an empty HistoryNavigator.
func NewHistoryNavigator() *HistoryNavigator {
	return &HistoryNavigator{index: -1}
}

// IsBrowsing returns true while an older entry is on display.
func (h *HistoryNavigator) IsBrowsing() bool {
	return h.index >= 0
}

// Index returns the entry on display.
func (h *HistoryNavigator) Index() int {
	return h.index
}

// Len returns the number of remembered entries.
func (h *HistoryNavigator) Len() int {
	return len(h.history)
}

// Up moves to an older entry and returns it. The first call saves
// currentInput as the draft. It returns "" when there is no history.
func (h *HistoryNavigator) Up(currentInput string) string {
	if len(h.history) == 0 {
		return ""
	}
	if h.index == -1 {
		h.draft = currentInput
		h.index = len(h.history) - 1
	} else if h.index > 0 {
		h.index--
	}
	return h.history[h.index]
}

// Down moves to a newer entry and returns it. Moving past the newest entry
// ends browsing and returns the draft.
func (h *HistoryNavigator) Down() string {
	if h.index == -1 {
		return ""
	}
	if h.index < len(h.history)-1 {
		h.index++
		return h.history[h.index]
	}
	h.index = -1
	return h.draft
}

// Reset ends browsing and drops the draft.
func (h *HistoryNavigator) Reset() {
	h.index = -1
	h.draft = ""
}

// Add remembers an entry, skipping consecutive duplicates and dropping the
// oldest entry once full.
func (h *HistoryNavigator) Add(entry string) {
	if n := len(h.history); n > 0 && h.history[n-1] == entry {
		return
	}
	h.history = append(h.history, entry)
	if len(h.history) > maxHistory {
		h.history = h.history[len(h.history)-maxHistory:]
	}
}
