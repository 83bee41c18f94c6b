package httpapi

import (
	"io"
	"net/http"
)

func (s *Server) handleAnalysisReport(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	idx, _, ok := s.store.EntryForName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown recording")
		return
	}
	af, err := s.store.OpenEntryAnalysis(idx)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	defer af.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	if _, err := io.Copy(w, af); err != nil {
		s.logger.Warn("analysis report download truncated", "name", name, "error", err)
	}
}

type analysisStatusResponse struct {
	Running *string  `json:"running"`
	Queued  []string `json:"queued"`
}

func (s *Server) handleAnalysisStatus(w http.ResponseWriter, r *http.Request) {
	running, queued := s.queue.Status()
	resp := analysisStatusResponse{Queued: queued}
	if running != "" {
		resp.Running = &running
	}
	if resp.Queued == nil {
		resp.Queued = []string{}
	}
	writeJSON(w, resp)
}

// handleAnalysisEnqueue accepts POST /api/analysis/<name>, enqueuing
// re-analysis and responding 202 immediately (spec §6 "enqueue
// re-analysis").
func (s *Server) handleAnalysisEnqueue(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if _, _, ok := s.store.EntryForName(name); !ok {
		writeError(w, http.StatusNotFound, "unknown recording")
		return
	}
	s.queue.Enqueue(name)
	w.WriteHeader(http.StatusAccepted)
}
