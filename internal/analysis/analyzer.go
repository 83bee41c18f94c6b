package analysis

import "github.com/rayhunter-go/rayhunter/internal/ie"

// Analyzer is one heuristic in the harness's registry (spec §4.7).
type Analyzer interface {
	Name() string
	Description() string
	// Version is bumped whenever an analyzer's detection logic changes in
	// a way that invalidates a previously cached report (spec §4.8).
	Version() uint32
	// Analyze inspects one decoded information element and returns an
	// event, or nil if the element didn't trigger this analyzer.
	Analyze(ctx *Context, elem ie.InformationElement) *Event
}

// Context carries per-recording state an analyzer may need across
// packets, such as the UE-attach window counter used by analyzer #2
// (spec §4.7).
type Context struct {
	// PacketIndex is the zero-based index of the packet currently being
	// analyzed within its recording.
	PacketIndex int
}

// Descriptor is the header-row metadata for one analyzer (spec §3, §4.8).
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     uint32 `json:"version"`
}
