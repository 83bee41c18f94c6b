package keyinput

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayhunter-go/rayhunter/internal/pipeline"
)

// scriptedSource replays a fixed sequence of records, each tagged with the
// time it "arrives" at, then returns io.EOF.
type scriptedSource struct {
	records []scriptedRecord
	i       int
}

type scriptedRecord struct {
	data []byte
	at   time.Time
}

func (s *scriptedSource) ReadEvent(_ context.Context) ([]byte, error) {
	if s.i >= len(s.records) {
		return nil, io.EOF
	}
	r := s.records[s.i]
	s.i++
	return r.data, nil
}

func TestRunEmitsDoubleTapCommands(t *testing.T) {
	t0 := time.Unix(0, 0)
	src := &scriptedSource{records: []scriptedRecord{
		{data: m7350V5KeyUp, at: t0},
		{data: m7350V5KeyUp, at: t0.Add(300 * time.Millisecond)},
	}}

	ctrl := pipeline.NewControlChannel()
	d := NewDebouncer(src, ctrl)

	var clockCalls int
	times := []time.Time{t0, t0.Add(300 * time.Millisecond)}
	d.clock = func() time.Time {
		tm := times[clockCalls]
		clockCalls++
		return tm
	}

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	assert.Equal(t, pipeline.StopRecording{}, <-ctrl.Recv())
	assert.Equal(t, pipeline.StartRecording{}, <-ctrl.Recv())
	require.ErrorIs(t, <-done, io.EOF)
}
