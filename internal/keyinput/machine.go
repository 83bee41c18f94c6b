package keyinput

import (
	"time"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/pipeline"
)

// machine is the debounce state carried between records: the time of the
// last record seen, including ones the quiet window dropped (for the quiet
// window), and the time of the last
// lone KeyUp (for the double-tap window). Zero value is ready to use.
type machine struct {
	lastEvent time.Time
	lastKeyUp time.Time
	haveKeyUp bool
}

// observe feeds one decoded event at time now through the debounce state
// machine, returning zero or more commands to send in order.
func (m *machine) observe(kind eventKind, now time.Time) []pipeline.Command {
	if !m.lastEvent.IsZero() && now.Sub(m.lastEvent) < constants.KeyInputQuietWindow {
		m.lastEvent = now
		return nil
	}
	m.lastEvent = now

	if kind != keyUp {
		return nil
	}

	if m.haveKeyUp {
		elapsed := now.Sub(m.lastKeyUp)
		if elapsed >= constants.KeyInputDoubleTapMin && elapsed <= constants.KeyInputDoubleTapMax {
			m.haveKeyUp = false
			return []pipeline.Command{pipeline.StopRecording{}, pipeline.StartRecording{}}
		}
	}

	m.lastKeyUp = now
	m.haveKeyUp = true
	return nil
}
