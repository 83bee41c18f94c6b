package analysis

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// ReportHeader is the first line of an analysis report NDJSON file: the
// analyzer set that produced it, plus informational fields describing the
// build and device that ran it (spec §3, §4.8). CacheValid only ever
// compares Analyzers — RayhunterVersion and Device are carried for display
// and are never part of cache invalidation.
type ReportHeader struct {
	Analyzers        []Descriptor `json:"analyzers"`
	RayhunterVersion string       `json:"rayhunter_version,omitempty"`
	Device           string       `json:"device,omitempty"`
}

// ReportWriter streams a header row followed by one JSON line per packet
// row to an underlying writer (spec §4.7 "Row serialisation").
type ReportWriter struct {
	w            io.Writer
	enc          *json.Encoder
	bytesWritten uint64
}

// countingWriter tracks bytes written through it, used to keep
// analysis_size_bytes accurate without re-stat'ing the file after every
// row.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

// NewReportWriter writes header immediately, then returns a writer ready
// for WriteRow calls.
func NewReportWriter(w io.Writer, header ReportHeader) (*ReportWriter, error) {
	const op = "analysis.NewReportWriter"
	cw := &countingWriter{w: w}
	enc := json.NewEncoder(cw)
	if err := enc.Encode(header); err != nil {
		return nil, rherr.Wrap(op, rherr.CodeIoError, err)
	}
	return &ReportWriter{w: cw, enc: enc, bytesWritten: cw.n}, nil
}

// WriteRow appends one packet's analyzer row as a JSON line.
func (rw *ReportWriter) WriteRow(row Row) error {
	const op = "analysis.WriteRow"
	if err := rw.enc.Encode(row); err != nil {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}
	if cw, ok := rw.w.(*countingWriter); ok {
		rw.bytesWritten = cw.n
	}
	return nil
}

// BytesWritten returns the cumulative size of the report written so far,
// used to advance an entry's analysis_size_bytes counter (spec §4.10).
func (rw *ReportWriter) BytesWritten() uint64 {
	return rw.bytesWritten
}

// ReadReport parses an existing NDJSON report: its header row followed by
// zero or more packet rows.
func ReadReport(r io.Reader) (ReportHeader, []Row, error) {
	const op = "analysis.ReadReport"
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return ReportHeader{}, nil, rherr.Wrap(op, rherr.CodeIoError, err)
		}
		return ReportHeader{}, nil, nil
	}

	var header ReportHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return ReportHeader{}, nil, rherr.Wrap(op, rherr.CodeDecodingError, err)
	}

	var rows []Row
	for scanner.Scan() {
		var row Row
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			return header, rows, rherr.Wrap(op, rherr.CodeDecodingError, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return header, rows, rherr.Wrap(op, rherr.CodeIoError, err)
	}
	return header, rows, nil
}

// CacheValid reports whether an existing report's header matches the
// harness's current active analyzer set exactly — names and versions, in
// order. The cache is all-or-nothing: any mismatch invalidates the whole
// report (spec §4.8).
func (h *Harness) CacheValid(existing ReportHeader) bool {
	want := h.Descriptors()
	if len(existing.Analyzers) != len(want) {
		return false
	}
	for i, d := range want {
		if existing.Analyzers[i].Name != d.Name || existing.Analyzers[i].Version != d.Version {
			return false
		}
	}
	return true
}
