// Package qmdl implements the append-only QMDL log format (spec §3, §4.3):
// a bare concatenation of already-HDLC-framed diag messages, with no
// internal index or block boundaries.
package qmdl

import (
	"io"
	"sync"

	"github.com/rayhunter-go/rayhunter/internal/diagwire"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// Writer appends HDLC-framed message bytes to an underlying file and
// tracks the total bytes successfully flushed. It never advances
// TotalWritten past a byte that hasn't reached the kernel (spec §4.3).
type Writer struct {
	mu           sync.Mutex
	w            io.Writer
	totalWritten uint64
}

// NewWriter wraps w (typically an *os.File opened for append) as a QMDL
// writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteContainer writes, in order, the raw bytes of every message in c —
// they are already HDLC-framed — and advances TotalWritten by exactly the
// number of bytes flushed.
func (w *Writer) WriteContainer(c diagwire.MessagesContainer) error {
	const op = "qmdl.WriteContainer"
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, m := range c.Messages {
		n, err := w.w.Write(m.Data)
		w.totalWritten += uint64(n)
		if err != nil {
			return rherr.Wrap(op, rherr.CodeIoError, err)
		}
		if n != len(m.Data) {
			return rherr.New(op, rherr.CodeIoError, "short write to qmdl file")
		}
	}
	return nil
}

// TotalWritten returns the number of bytes confirmed flushed so far.
func (w *Writer) TotalWritten() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalWritten
}
