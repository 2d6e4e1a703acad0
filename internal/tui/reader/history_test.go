package reader

import (
	"fmt"
	"testing"
)

func newHistory(entries ...string) *HistoryNavigator {
	h := NewHistoryNavigator()
	for _, e := range entries {
		h.Add(e)
	}
	return h
}

func TestHistoryNavigator_Empty(t *testing.T) {
	h := NewHistoryNavigator()

	if result := h.Up("current"); result != "" {
		t.Errorf("Up() on empty history = %q, want empty", result)
	}
	if result := h.Down(); result != "" {
		t.Errorf("Down() on empty history = %q, want empty", result)
	}
	if h.IsBrowsing() {
		t.Error("IsBrowsing() should be false")
	}
}

func TestHistoryNavigator_Navigation(t *testing.T) {
	h := newHistory("Give me an example", "Why is this important?", "How is it measured?")

	steps := []struct {
		name string
		move func() string
		want string
	}{
		{"up from draft", func() string { return h.Up("half typed") }, "How is it measured?"},
		{"up", func() string { return h.Up("") }, "Why is this important?"},
		{"up to oldest", func() string { return h.Up("") }, "Give me an example"},
		{"up at oldest", func() string { return h.Up("") }, "Give me an example"},
		{"down", h.Down, "Why is this important?"},
		{"down to newest", h.Down, "How is it measured?"},
		{"down restores draft", h.Down, "half typed"},
	}
	for _, s := range steps {
		if got := s.move(); got != s.want {
			t.Fatalf("%s: got %q, want %q", s.name, got, s.want)
		}
	}
	if h.IsBrowsing() {
		t.Error("IsBrowsing() should be false after restoring draft")
	}
}

func TestHistoryNavigator_Reset(t *testing.T) {
	h := newHistory("first", "second")
	h.Up("current")
	h.Up("")

	h.Reset()

	if h.IsBrowsing() {
		t.Error("IsBrowsing() should be false after Reset")
	}
	if h.Index() != -1 {
		t.Errorf("Index() after Reset = %d, want -1", h.Index())
	}
}

func TestHistoryNavigator_Add(t *testing.T) {
	h := NewHistoryNavigator()
	h.Add("first")
	h.Add("second")
	h.Add("second")
	if h.Len() != 2 {
		t.Errorf("Len() after duplicate = %d, want 2", h.Len())
	}

	for i := 0; i < maxHistory+5; i++ {
		h.Add(fmt.Sprintf("question %d", i))
	}
	if h.Len() != maxHistory {
		t.Errorf("Len() = %d, want cap %d", h.Len(), maxHistory)
	}
	if got := h.Up(""); got != fmt.Sprintf("question %d", maxHistory+4) {
		t.Errorf("newest entry = %q", got)
	}
}
