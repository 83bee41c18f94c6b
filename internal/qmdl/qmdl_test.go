package qmdl

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayhunter-go/rayhunter/internal/diagwire"
	"github.com/rayhunter-go/rayhunter/internal/hdlc"
)

func frame(n byte) []byte {
	return hdlc.Encapsulate([]byte{n, n, n})
}

func TestWriterTracksTotalWritten(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	f1, f2 := frame(1), frame(2)
	c := diagwire.MessagesContainer{Messages: []diagwire.Message{{Data: f1}, {Data: f2}}}
	require.NoError(t, w.WriteContainer(c))

	assert.Equal(t, uint64(len(f1)+len(f2)), w.TotalWritten())
	assert.Equal(t, append(append([]byte{}, f1...), f2...), buf.Bytes())
}

func TestReaderRoundTripsWrittenBytes(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	frames := [][]byte{frame(1), frame(2), frame(3)}
	for _, f := range frames {
		require.NoError(t, w.WriteContainer(diagwire.MessagesContainer{Messages: []diagwire.Message{{Data: f}}}))
	}

	r := NewReader(bytes.NewReader(buf.Bytes()), nil)
	containers, err := ReadAll(r)
	require.NoError(t, err)
	require.Len(t, containers, 3)
	for i, c := range containers {
		require.Len(t, c.Messages, 1)
		assert.Equal(t, frames[i], c.Messages[0].Data)
	}
	assert.Equal(t, uint64(buf.Len()), r.BytesConsumed())
}

func TestReaderMaxBytesReachedMidFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	f1, f2 := frame(1), frame(2)
	require.NoError(t, w.WriteContainer(diagwire.MessagesContainer{Messages: []diagwire.Message{{Data: f1}, {Data: f2}}}))

	limit := uint64(len(f1)) + 1 // crosses into the second frame
	r := NewReader(bytes.NewReader(buf.Bytes()), &limit)

	c, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, f1, c.Messages[0].Data)

	_, err = r.Next()
	var maxErr *MaxBytesReachedError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, limit, maxErr.Max)

	// signalled exactly once — the reader is now done.
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderExactLimitYieldsAllFrames(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	f1, f2 := frame(1), frame(2)
	require.NoError(t, w.WriteContainer(diagwire.MessagesContainer{Messages: []diagwire.Message{{Data: f1}, {Data: f2}}}))

	limit := uint64(len(f1) + len(f2))
	r := NewReader(bytes.NewReader(buf.Bytes()), &limit)
	containers, err := ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, containers, 2)
}

func TestReaderEmptyStream(t *testing.T) {
	r := NewReader(bytes.NewReader(nil), nil)
	_, err := r.Next()
	assert.True(t, errors.Is(err, io.EOF))
}
