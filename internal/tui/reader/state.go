package reader

import (
	"time"

	"github.com/vstratful/searchthatterm/internal/config"
)

// escState tracks a pending double Escape. A second press within
// config.EscDoublePressTimeout quits the reader.
type escState struct {
	pressedAt time.Time
	active    bool
}

// press records an Escape at now and reports whether it completes a double
// press.
func (e *escState) press(now time.Time) bool {
	if e.active && now.Sub(e.pressedAt) < config.EscDoublePressTimeout {
		e.active = false
		return true
	}
	e.pressedAt = now
	e.active = true
	return false
}

// expire clears a pending press whose window has passed.
func (e *escState) expire(now time.Time) {
	if e.active && now.Sub(e.pressedAt) >= config.EscDoublePressTimeout {
		e.active = false
	}
}
