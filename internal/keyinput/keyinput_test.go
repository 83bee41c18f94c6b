package keyinput

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rayhunter-go/rayhunter/internal/pipeline"
)

// m7350V5KeyDown and m7350V5KeyUp are the literal records observed on an
// Orbic hotspot, pinned here the same way the original daemon's key_input.rs
// tests do.
var (
	m7350V5KeyDown = []byte{
		0x57, 0x6c, 0x09, 0x00, 0x7c, 0xfb, 0x03, 0x00, 0x01, 0x00, 0x74, 0x00, 0x01, 0x00,
		0x00, 0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	m7350V5KeyUp = []byte{
		0x57, 0x6c, 0x09, 0x00, 0x1b, 0x15, 0x05, 0x00, 0x01, 0x00, 0x74, 0x00, 0x00, 0x00,
		0x00, 0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

func TestParseEvent(t *testing.T) {
	assert.Equal(t, keyDown, parseEvent(m7350V5KeyDown))
	assert.Equal(t, keyUp, parseEvent(m7350V5KeyUp))
}

// TestDoubleTapEmitsStopThenStart pins S3: two KeyUp events 300ms apart,
// each preceded by a 50ms quiet gap from the prior record, must emit
// StopRecording then StartRecording in that order.
func TestDoubleTapEmitsStopThenStart(t *testing.T) {
	m := &machine{}
	t0 := time.Unix(0, 0)

	assert.Empty(t, m.observe(keyUp, t0))

	cmds := m.observe(keyUp, t0.Add(300*time.Millisecond))
	assert.Equal(t, []pipeline.Command{pipeline.StopRecording{}, pipeline.StartRecording{}}, cmds)
}

// TestSingleKeyUpEmitsNothing pins S3's negative case.
func TestSingleKeyUpEmitsNothing(t *testing.T) {
	m := &machine{}
	assert.Empty(t, m.observe(keyUp, time.Unix(0, 0)))
}

func TestKeyDownNeverEmits(t *testing.T) {
	m := &machine{}
	assert.Empty(t, m.observe(keyDown, time.Unix(0, 0)))
	assert.Empty(t, m.observe(keyDown, time.Unix(0, 0).Add(time.Second)))
}

// TestGapOutsideWindowDoesNotDoubleTap covers the slow edge of the
// 100-800ms window: a second KeyUp 900ms later never pairs up and just
// becomes the new pending KeyUp.
func TestGapOutsideWindowDoesNotDoubleTap(t *testing.T) {
	m := &machine{}
	t0 := time.Unix(0, 0)
	assert.Empty(t, m.observe(keyUp, t0))
	assert.Empty(t, m.observe(keyUp, t0.Add(900*time.Millisecond)))
}

// TestQuietWindowDropsRepeatedRecords covers the power-button burst case:
// records arriving under 50ms apart are dropped outright, not even counted
// as a KeyUp toward the double-tap window.
func TestQuietWindowDropsRepeatedRecords(t *testing.T) {
	m := &machine{}
	t0 := time.Unix(0, 0)
	assert.Empty(t, m.observe(keyUp, t0))
	assert.Empty(t, m.observe(keyUp, t0.Add(10*time.Millisecond)))

	cmds := m.observe(keyUp, t0.Add(310*time.Millisecond))
	assert.Equal(t, []pipeline.Command{pipeline.StopRecording{}, pipeline.StartRecording{}}, cmds)
}
