package pipeline

import "context"

// DisplaySink is the contract the capture task would push UI state to on a
// device with an on-screen status indicator (spec §4.12 "ui_level", §8 S2).
// rayhunter-go only documents this boundary: no concrete implementation
// ships, since driving an actual framebuffer or e-ink panel is out of scope
// here. A future device-specific binary wires its own DisplaySink in.
type DisplaySink interface {
	// ShowState renders the capture/analysis state summarized by level and
	// warningCount. Implementations must not block the caller for long.
	// No task in this repository calls ShowState.
	ShowState(ctx context.Context, level int, warningCount int) error
}

// KeyEventSource is the contract the key-input debouncer reads raw input
// records from (spec §8 S3). rayhunter-go documents the boundary and
// implements the debounce logic against it (see internal/keyinput); opening
// the actual character device is the one piece of wiring left to the
// binary that knows its target hardware.
type KeyEventSource interface {
	// ReadEvent blocks until the next fixed-size input record is available,
	// or ctx is cancelled.
	ReadEvent(ctx context.Context) ([]byte, error)
}
