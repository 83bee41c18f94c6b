// Package metrics backs the teacher's Metrics/Observer shape
// (ehrlich-b-go-ublk's metrics.go: atomic counters plus a pluggable
// Observer interface) with github.com/prometheus/client_golang, the
// metrics library ClusterCockpit-cc-backend and marmos91-dittofs both
// depend on (see SPEC_FULL.md's domain-stack table). Observer is called
// from the capture and analysis tasks; a NoOpObserver lets tests run
// without a registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Observer is called by the pipeline's long-lived tasks to report
// operational counters, mirroring the teacher's Observer interface but
// retargeted at diag capture/analysis events instead of block I/O.
type Observer interface {
	// ObserveContainerCaptured is called once per UserSpace container the
	// capture task appends to the current recording.
	ObserveContainerCaptured(bytes int)
	// ObserveAnalyzerEvent is called once per non-nil analyzer event the
	// harness produces, tagged with the analyzer name and severity.
	ObserveAnalyzerEvent(analyzer, severity string)
	// ObserveAnalysisRow is called once per packet row an analysis task
	// writes to an NDJSON report.
	ObserveAnalysisRow()
}

// NoOpObserver discards every observation; the default until a
// *Prometheus is wired in by cmd/rayhunter-daemon.
type NoOpObserver struct{}

func (NoOpObserver) ObserveContainerCaptured(int)      {}
func (NoOpObserver) ObserveAnalyzerEvent(string, string) {}
func (NoOpObserver) ObserveAnalysisRow()                {}

// Prometheus implements Observer by registering and updating a small set
// of counters on reg.
type Prometheus struct {
	containersCaptured prometheus.Counter
	bytesCaptured      prometheus.Counter
	analyzerEvents     *prometheus.CounterVec
	analysisRows       prometheus.Counter
}

// NewPrometheus registers rayhunter-go's counters on reg and returns an
// Observer backed by them.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		containersCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rayhunter",
			Name:      "containers_captured_total",
			Help:      "Total number of UserSpace diag containers appended to the current recording.",
		}),
		bytesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rayhunter",
			Name:      "bytes_captured_total",
			Help:      "Total bytes written to QMDL files across all recordings.",
		}),
		analyzerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rayhunter",
			Name:      "analyzer_events_total",
			Help:      "Total analyzer events, by analyzer name and severity.",
		}, []string{"analyzer", "severity"}),
		analysisRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rayhunter",
			Name:      "analysis_rows_total",
			Help:      "Total packet rows written to analysis reports.",
		}),
	}

	for _, c := range []prometheus.Collector{p.containersCaptured, p.bytesCaptured, p.analyzerEvents, p.analysisRows} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveContainerCaptured(bytes int) {
	p.containersCaptured.Inc()
	p.bytesCaptured.Add(float64(bytes))
}

func (p *Prometheus) ObserveAnalyzerEvent(analyzer, severity string) {
	p.analyzerEvents.WithLabelValues(analyzer, severity).Inc()
}

func (p *Prometheus) ObserveAnalysisRow() {
	p.analysisRows.Inc()
}

var _ Observer = NoOpObserver{}
var _ Observer = (*Prometheus)(nil)
