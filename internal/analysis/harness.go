package analysis

import (
	"github.com/rayhunter-go/rayhunter/internal/diagwire"
	"github.com/rayhunter-go/rayhunter/internal/gsmtap"
	"github.com/rayhunter-go/rayhunter/internal/ie"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// Row is one packet's worth of analyzer results, aligned to the harness's
// enabled analyzer order (spec §4.7).
type Row []*Event

// Harness holds an ordered registry of analyzers and their enabled state
// (spec §4.7). Disabled analyzers are skipped in both dispatch and row
// emission, so Row length always equals len(active analyzers).
type Harness struct {
	analyzers []Analyzer
	enabled   map[string]bool
}

// NewHarness builds a harness from analyzers in registration order.
// config maps analyzer name to enabled/disabled; an analyzer absent from
// config defaults to enabled.
func NewHarness(analyzers []Analyzer, config map[string]bool) *Harness {
	return &Harness{analyzers: analyzers, enabled: config}
}

func (h *Harness) isEnabled(name string) bool {
	if h.enabled == nil {
		return true
	}
	v, ok := h.enabled[name]
	if !ok {
		return true
	}
	return v
}

// active returns the analyzers currently enabled, in registration order.
func (h *Harness) active() []Analyzer {
	out := make([]Analyzer, 0, len(h.analyzers))
	for _, a := range h.analyzers {
		if h.isEnabled(a.Name()) {
			out = append(out, a)
		}
	}
	return out
}

// Descriptors returns the header-row metadata for the active analyzer set
// (spec §4.8).
func (h *Harness) Descriptors() []Descriptor {
	active := h.active()
	out := make([]Descriptor, len(active))
	for i, a := range active {
		out[i] = Descriptor{Name: a.Name(), Description: a.Description(), Version: a.Version()}
	}
	return out
}

// AnalyzeContainer lifts a single-message container (as produced by the
// QMDL reader) through the GSMTAP and IE layers and dispatches it to every
// active analyzer, in order, producing one Row. A row of all-nil events
// is still returned for a message none of the analyzers fired on, or for
// a message the GSMTAP/IE layers could not interpret — the analyzer
// pipeline is resilient to malformed or irrelevant containers rather than
// aborting the recording (spec §4.6, §4.7).
func (h *Harness) AnalyzeContainer(ctx *Context, c diagwire.MessagesContainer) (Row, error) {
	const op = "analysis.AnalyzeContainer"
	active := h.active()
	row := make(Row, len(active))

	if len(c.Messages) == 0 {
		return row, nil
	}

	decoded, err := diagwire.ParseMessage(c.Messages[0])
	if err != nil {
		return row, nil //nolint:nilerr // malformed containers are logged upstream and skipped, not fatal
	}
	if decoded.Kind != diagwire.KindLog && decoded.Kind != diagwire.KindExtendedLog {
		return row, nil
	}

	gsmtapMsg, ok := gsmtap.Lift(decoded)
	if !ok {
		return row, nil
	}

	elem, err := ie.Decode(gsmtapMsg)
	if err != nil {
		if rherr.IsCode(err, rherr.CodeDecodingError) {
			return row, nil
		}
		return row, err
	}

	for i, a := range active {
		row[i] = a.Analyze(ctx, elem)
	}
	return row, nil
}
