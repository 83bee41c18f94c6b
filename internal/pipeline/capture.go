package pipeline

import (
	"context"

	"github.com/rayhunter-go/rayhunter/internal/diagwire"
	"github.com/rayhunter-go/rayhunter/internal/logging"
	"github.com/rayhunter-go/rayhunter/internal/metrics"
	"github.com/rayhunter-go/rayhunter/internal/qmdl"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
	"github.com/rayhunter-go/rayhunter/internal/store"
)

// diagReader is the subset of *diagdevice.Device the capture task needs.
// Exists so the task can be driven by a fake in tests without a real
// /dev/diag (spec §4.10).
type diagReader interface {
	ReadContainer() (diagwire.MessagesContainer, error)
}

// CaptureTask owns the diag device exclusively and loops on its control
// channel and device reads, writing every UserSpace container through
// whichever recording entry is current (spec §4.10, §5).
type CaptureTask struct {
	device   diagReader
	store    *store.Store
	ctrl     *ControlChannel
	logger   *logging.Logger
	observer metrics.Observer

	currentName   string
	currentWriter *qmdl.Writer
}

// NewCaptureTask builds a capture task bound to device and store.
func NewCaptureTask(device diagReader, st *store.Store, ctrl *ControlChannel) *CaptureTask {
	return &CaptureTask{device: device, store: st, ctrl: ctrl, logger: logging.Default(), observer: metrics.NoOpObserver{}}
}

// WithObserver attaches a metrics observer, replacing the no-op default.
func (t *CaptureTask) WithObserver(o metrics.Observer) *CaptureTask {
	t.observer = o
	return t
}

type readResult struct {
	container diagwire.MessagesContainer
	err       error
}

// Run drives the capture loop until ctx is cancelled, an Exit command
// arrives, or the device read fails fatally. On any exit path it flushes
// the writer and closes the current entry first (spec §5 "Cancellation").
func (t *CaptureTask) Run(ctx context.Context) error {
	const op = "pipeline.CaptureTask.Run"
	reads := make(chan readResult)
	defer t.closeCurrent()

	go func() {
		for {
			c, err := t.device.ReadContainer()
			select {
			case reads <- readResult{c, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			t.closeCurrent()
			return nil

		case cmd := <-t.ctrl.Recv():
			switch cmd.(type) {
			case StartRecording:
				if err := t.startRecording(); err != nil {
					return rherr.Wrap(op, rherr.CodeStoreError, err)
				}
			case StopRecording:
				t.closeCurrent()
			case Exit:
				t.closeCurrent()
				return nil
			}

		case rr := <-reads:
			if rr.err != nil {
				t.logger.Error("diag device read failed, capture task exiting", "error", rr.err)
				return rherr.Wrap(op, rherr.CodeIoError, rr.err)
			}
			if err := t.append(rr.container); err != nil {
				return rherr.Wrap(op, rherr.CodeStoreError, err)
			}
		}
	}
}

func (t *CaptureTask) startRecording() error {
	idx, w, err := t.store.NewEntry()
	if err != nil {
		return err
	}
	entries := t.store.Entries()
	t.currentName = entries[idx].Name
	t.currentWriter = w
	return nil
}

func (t *CaptureTask) closeCurrent() {
	if t.currentWriter == nil {
		return
	}
	if err := t.store.CloseCurrentEntry(); err != nil {
		t.logger.Error("failed to close current entry on shutdown", "error", err)
	}
	t.currentWriter = nil
	t.currentName = ""
}

// append writes a container through the current writer, if any, then
// briefly takes the store's write lock to bump qmdl_size_bytes — never
// holding it across the device I/O itself (spec §4.10, §5).
//
// The entry is re-resolved by name on every call rather than by a cached
// index: a concurrent DELETE /api/qmdl/<name> of an older, non-current
// entry shifts every later index (store.DeleteEntry), which would
// otherwise either send a stale index out of range or silently mutate the
// wrong, possibly already-closed entry (spec §3 "an entry becomes
// immutable once closed").
func (t *CaptureTask) append(c diagwire.MessagesContainer) error {
	if t.currentWriter == nil {
		return nil
	}
	idx, _, ok := t.store.EntryForName(t.currentName)
	if !ok {
		return rherr.Wrap("pipeline.CaptureTask.append", rherr.CodeStoreError, rherr.ErrStoreEntryNotFound)
	}
	containerBytes := 0
	for _, m := range c.Messages {
		containerBytes += len(m.Data)
	}
	if err := t.currentWriter.WriteContainer(c); err != nil {
		return err
	}
	t.observer.ObserveContainerCaptured(containerBytes)
	total := t.currentWriter.TotalWritten()
	return t.store.UpdateEntrySize(idx, &total, nil)
}
