// Package keyinput debounces raw key-input records into StartRecording /
// StopRecording commands (spec §8 S3). The record format and the
// double-tap window are ground truth taken from the original daemon's
// key_input.rs: a 32-byte record whose byte[12] is zero for a KeyUp event,
// a 50ms quiet window that drops duplicate records fired by a single power
// button press, and a 100-800ms window between two KeyUp events that counts
// as a double-tap.
package keyinput

import (
	"context"
	"time"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/logging"
	"github.com/rayhunter-go/rayhunter/internal/pipeline"
)

// eventKind is KeyUp or KeyDown, decoded from one raw record.
type eventKind int

const (
	keyDown eventKind = iota
	keyUp
)

// parseEvent decodes a fixed-size input record (spec §8 S3: "byte[12]=0").
func parseEvent(record []byte) eventKind {
	if record[12] == 0 {
		return keyUp
	}
	return keyDown
}

// Debouncer reads raw records from a KeyEventSource and emits
// StartRecording/StopRecording commands on a double-tap of KeyUp events,
// entirely independent of how the source is backed.
type Debouncer struct {
	source pipeline.KeyEventSource
	ctrl   *pipeline.ControlChannel
	logger *logging.Logger

	// clock is overridden in tests; production leaves it nil and falls
	// back to time.Now.
	clock func() time.Time
}

// NewDebouncer binds a Debouncer to its event source and the capture
// task's control channel.
func NewDebouncer(source pipeline.KeyEventSource, ctrl *pipeline.ControlChannel) *Debouncer {
	return &Debouncer{source: source, ctrl: ctrl, logger: logging.Default()}
}

func (d *Debouncer) now() time.Time {
	if d.clock != nil {
		return d.clock()
	}
	return time.Now()
}

// Run reads records until ctx is cancelled or the source errors, driving
// the debounce state machine on each one. Context cancellation is a clean
// return, matching the capture task's shutdown contract.
func (d *Debouncer) Run(ctx context.Context) error {
	m := &machine{}
	for {
		record, err := d.source.ReadEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if len(record) < constants.KeyInputRecordSize {
			continue
		}

		for _, cmd := range m.observe(parseEvent(record), d.now()) {
			if err := d.ctrl.Send(ctx, cmd); err != nil {
				d.logger.Error("failed to send command from key input", "error", err)
			}
		}
	}
}
