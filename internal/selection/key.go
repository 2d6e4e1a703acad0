package selection

import "strings"

// KeyClass groups keys by whether they can change the page selection.
type KeyClass int

const (
	// KeyEdit is any key that could alter the selection: printable text,
	// enter, backspace and the like.
	KeyEdit KeyClass = iota
	KeyEscape
	KeyModifier
	KeyNavigation
	KeyLock
	KeyFunction
)

// Key is a key press, parsed from its bubbletea string form such as "a",
// "ctrl+c", "shift+up" or "f5".
type Key struct {
	Name  string
	Class KeyClass
	// Chord is true when ctrl, alt or super was held.
	Chord bool
}

var modifierKeys = map[string]bool{
	"shift": true, "ctrl": true, "alt": true, "super": true, "meta": true,
	"hyper": true, "cmd": true, "option": true,
}

var navigationKeys = map[string]bool{
	"up": true, "down": true, "left": true, "right": true,
	"home": true, "end": true, "pgup": true, "pgdown": true,
	"tab": true,
}

var lockKeys = map[string]bool{
	"capslock": true, "numlock": true, "scrolllock": true,
}

// ParseKey classifies a key string.
func ParseKey(s string) Key {
	k := Key{Name: s}
	if s == "esc" || s == "escape" {
		k.Class = KeyEscape
		return k
	}

	parts := strings.Split(s, "+")
	base := parts[len(parts)-1]
	if s == "+" || strings.HasSuffix(s, "++") {
		base = "+"
		parts = strings.Split(strings.TrimSuffix(s, "+"), "+")
	}
	for _, m := range parts[:len(parts)-1] {
		switch m {
		case "ctrl", "alt", "super", "meta", "cmd", "hyper":
			k.Chord = true
		}
	}

	switch {
	case modifierKeys[base]:
		k.Class = KeyModifier
	case navigationKeys[base]:
		k.Class = KeyNavigation
	case lockKeys[base]:
		k.Class = KeyLock
	case isFunctionKey(base):
		k.Class = KeyFunction
	default:
		k.Class = KeyEdit
	}
	return k
}

// Dismisses reports whether the key hides a shown trigger.
func (k Key) Dismisses() bool {
	switch k.Class {
	case KeyEscape:
		return true
	case KeyEdit:
		return !k.Chord
	default:
		return false
	}
}

func isFunctionKey(s string) bool {
	if len(s) < 2 || len(s) > 3 || s[0] != 'f' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
