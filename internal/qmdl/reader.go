package qmdl

import (
	"bufio"
	"fmt"
	"io"

	"github.com/rayhunter-go/rayhunter/internal/diagwire"
)

// MaxBytesReachedError is returned by Reader.Next when the next frame would
// cross the caller-supplied byte limit, distinguishing truncation from a
// clean end of stream (spec §4.3, §8).
type MaxBytesReachedError struct {
	Max uint64
}

func (e *MaxBytesReachedError) Error() string {
	return fmt.Sprintf("qmdl: reached max byte limit %d mid-frame", e.Max)
}

// Reader produces a lazy, finite sequence of single-message
// MessagesContainer values from a QMDL byte stream. Because QMDL discards
// container boundaries, each container synthesised by the reader contains
// exactly one message spanning the next 0x7e-terminated frame (spec §4.3).
type Reader struct {
	br       *bufio.Reader
	max      *uint64 // nil means unbounded
	consumed uint64
	done     bool
}

// NewReader wraps r. If max is non-nil, the reader stops (with
// MaxBytesReachedError) rather than yield a frame that would push the
// cumulative byte count past *max.
func NewReader(r io.Reader, max *uint64) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024), max: max}
}

// Next returns the next single-message container, io.EOF once the stream
// (or the byte limit) is exhausted cleanly, or a *MaxBytesReachedError if
// the next frame would cross the byte limit.
func (r *Reader) Next() (diagwire.MessagesContainer, error) {
	if r.done {
		return diagwire.MessagesContainer{}, io.EOF
	}
	if r.max != nil && r.consumed >= *r.max {
		r.done = true
		return diagwire.MessagesContainer{}, io.EOF
	}

	frame, err := r.br.ReadBytes(0x7e)
	if err != nil {
		// A partial, unterminated tail at EOF is not a frame: the stream
		// ended cleanly between frames.
		r.done = true
		return diagwire.MessagesContainer{}, io.EOF
	}

	if r.max != nil && r.consumed+uint64(len(frame)) > *r.max {
		r.done = true
		return diagwire.MessagesContainer{}, &MaxBytesReachedError{Max: *r.max}
	}

	r.consumed += uint64(len(frame))
	return diagwire.MessagesContainer{
		DataType: diagwire.DataTypeUserSpace,
		Messages: []diagwire.Message{{Data: frame}},
	}, nil
}

// BytesConsumed returns the number of bytes yielded across all frames so
// far.
func (r *Reader) BytesConsumed() uint64 {
	return r.consumed
}

// ReadAll drains the reader into a slice of containers, useful for tests
// and other bulk reads. It stops at io.EOF and returns
// any MaxBytesReachedError unchanged.
func ReadAll(r *Reader) ([]diagwire.MessagesContainer, error) {
	var out []diagwire.MessagesContainer
	for {
		c, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
}
