package pipeline

import (
	"io"

	"github.com/rayhunter-go/rayhunter/internal/analysis"
	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/logging"
	"github.com/rayhunter-go/rayhunter/internal/metrics"
	"github.com/rayhunter-go/rayhunter/internal/qmdl"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
	"github.com/rayhunter-go/rayhunter/internal/store"
)

// analysisUpdateInterval bounds how often AnalysisTask re-checks its
// cumulative output size against the store, trading update latency for
// lock contention on long recordings.
const analysisUpdateInterval = 64

// AnalysisTask runs the analyzer harness over one closed recording entry
// when AnalysisQueue hands it that entry, producing (or reusing) its NDJSON
// report (spec §4.7, §4.8, §4.10). Stopping a recording does not enqueue
// an analysis run.
type AnalysisTask struct {
	store    *store.Store
	harness  *analysis.Harness
	logger   *logging.Logger
	observer metrics.Observer
	device   string
}

// NewAnalysisTask binds a harness to a store.
func NewAnalysisTask(st *store.Store, harness *analysis.Harness) *AnalysisTask {
	return &AnalysisTask{store: st, harness: harness, logger: logging.Default(), observer: metrics.NoOpObserver{}}
}

// WithObserver attaches a metrics observer, replacing the no-op default.
func (t *AnalysisTask) WithObserver(o metrics.Observer) *AnalysisTask {
	t.observer = o
	return t
}

// WithDevice records the configured device name, carried into every report
// header this task writes.
func (t *AnalysisTask) WithDevice(device string) *AnalysisTask {
	t.device = device
	return t
}

// Run analyzes entry index, reusing its existing report unless the
// configured analyzer set has changed (spec §4.8 "all-or-nothing").
func (t *AnalysisTask) Run(index int) error {
	const op = "pipeline.AnalysisTask.Run"

	if reusable, err := t.tryReuse(index); err != nil {
		return rherr.Wrap(op, rherr.CodeStoreError, err)
	} else if reusable {
		return nil
	}

	qf, err := t.store.OpenEntryQmdl(index)
	if err != nil {
		return rherr.Wrap(op, rherr.CodeStoreError, err)
	}
	defer qf.Close()

	af, err := t.store.OpenEntryAnalysis(index)
	if err != nil {
		return rherr.Wrap(op, rherr.CodeStoreError, err)
	}
	defer af.Close()
	if err := af.Truncate(0); err != nil {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}

	descriptors := t.harness.Descriptors()
	rw, err := analysis.NewReportWriter(af, analysis.ReportHeader{
		Analyzers:        descriptors,
		RayhunterVersion: constants.RayhunterVersion,
		Device:           t.device,
	})
	if err != nil {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}

	reader := qmdl.NewReader(qf, nil)
	ctx := &analysis.Context{}
	processed := 0
	for {
		container, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rherr.Wrap(op, rherr.CodeDecodingError, err)
		}

		row, err := t.harness.AnalyzeContainer(ctx, container)
		if err != nil {
			t.logger.Warn("analyzer dispatch failed on packet, skipping", "index", index, "packet", ctx.PacketIndex, "error", err)
			row = make(analysis.Row, len(t.harness.Descriptors()))
		}
		if err := rw.WriteRow(row); err != nil {
			return rherr.Wrap(op, rherr.CodeIoError, err)
		}
		t.observer.ObserveAnalysisRow()
		for i, ev := range row {
			if ev != nil {
				t.observer.ObserveAnalyzerEvent(descriptors[i].Name, ev.Severity.String())
			}
		}

		ctx.PacketIndex++
		processed++
		if processed%analysisUpdateInterval == 0 {
			bytesWritten := rw.BytesWritten()
			if err := t.store.UpdateEntrySize(index, nil, &bytesWritten); err != nil {
				t.logger.Warn("failed to bump analysis size mid-run", "error", err)
			}
		}
	}

	bytesWritten := rw.BytesWritten()
	return t.store.UpdateEntrySize(index, nil, &bytesWritten)
}

// tryReuse reports whether entry index already has a valid cached report
// for the harness's current analyzer set.
func (t *AnalysisTask) tryReuse(index int) (bool, error) {
	af, err := t.store.OpenEntryAnalysis(index)
	if err != nil {
		return false, err
	}
	defer af.Close()

	header, _, err := analysis.ReadReport(af)
	if err != nil {
		return false, nil //nolint:nilerr // unreadable/partial report: fall through to re-analysis
	}
	return t.harness.CacheValid(header), nil
}
