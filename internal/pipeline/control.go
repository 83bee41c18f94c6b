// Package pipeline wires the diag device, the recording store, and the
// analyzer harness into the long-lived capture and analysis tasks (spec
// §4.10, §5).
package pipeline

import (
	"context"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// Command is one instruction sent to the capture task over its control
// channel (spec §4.10).
type Command interface{ isCommand() }

// StartRecording asks the capture task to close any current entry and
// begin a new one.
type StartRecording struct{}

// StopRecording asks the capture task to stop appending to the current
// entry, leaving it closed but analyzable.
type StopRecording struct{}

// Exit asks every long-lived task to flush and return.
type Exit struct{}

func (StartRecording) isCommand() {}
func (StopRecording) isCommand()  {}
func (Exit) isCommand()           {}

// ControlChannel is the bounded, never-silently-dropping channel the
// capture task listens on (spec §5 "Control channels are bounded; senders
// await capacity; receivers never drop messages silently").
type ControlChannel struct {
	ch chan Command
}

// NewControlChannel creates a channel with the spec's default capacity.
func NewControlChannel() *ControlChannel {
	return &ControlChannel{ch: make(chan Command, constants.ControlChannelCapacity)}
}

// Send blocks until the channel has capacity or ctx is cancelled.
func (c *ControlChannel) Send(ctx context.Context, cmd Command) error {
	const op = "pipeline.ControlChannel.Send"
	select {
	case c.ch <- cmd:
		return nil
	case <-ctx.Done():
		return rherr.Wrap(op, rherr.CodeIoError, ctx.Err())
	}
}

// Recv is read-only access for the capture task's select loop.
func (c *ControlChannel) Recv() <-chan Command {
	return c.ch
}
