package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/rayhunter-go/rayhunter/internal/store"
)

// manifestEntry is the JSON shape of one recording in GET /api/qmdl-manifest.
type manifestEntry struct {
	Name              string  `json:"name"`
	StartTime         string  `json:"start_time"`
	LastMessageTime   *string `json:"last_message_time,omitempty"`
	QmdlSizeBytes     uint64  `json:"qmdl_size_bytes"`
	AnalysisSizeBytes uint64  `json:"analysis_size_bytes"`
}

type manifestResponse struct {
	Entries      []manifestEntry `json:"entries"`
	CurrentEntry *string         `json:"current_entry,omitempty"`
}

func toManifestEntry(e store.Entry) manifestEntry {
	m := manifestEntry{
		Name:              e.Name,
		StartTime:         e.StartTime.UTC().Format("2006-01-02T15:04:05Z"),
		QmdlSizeBytes:     e.QmdlSizeBytes,
		AnalysisSizeBytes: e.AnalysisSizeBytes,
	}
	if e.LastMessageTime != nil {
		s := e.LastMessageTime.UTC().Format("2006-01-02T15:04:05Z")
		m.LastMessageTime = &s
	}
	return m
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	entries := s.store.Entries()
	resp := manifestResponse{Entries: make([]manifestEntry, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = toManifestEntry(e)
	}
	if idx := s.store.CurrentIndex(); idx >= 0 && idx < len(entries) {
		name := entries[idx].Name
		resp.CurrentEntry = &name
	}
	writeJSON(w, resp)
}

// nameParam strips a trailing file extension a client may have appended to
// the {name} path segment (e.g. "<name>.qmdl", "<name>.pcapng").
func nameParam(r *http.Request) string {
	name := mux.Vars(r)["name"]
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

func (s *Server) handleQmdlDownload(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	idx, entry, ok := s.store.EntryForName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown recording")
		return
	}
	if entry.QmdlSizeBytes == 0 {
		writeError(w, http.StatusServiceUnavailable, "qmdl file is empty")
		return
	}
	f, err := s.store.OpenEntryQmdl(idx)
	if err != nil {
		writeStoreErr(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.CopyN(w, f, int64(entry.QmdlSizeBytes)); err != nil && err != io.EOF {
		s.logger.Warn("qmdl download truncated", "name", name, "error", err)
	}
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if err := s.store.DeleteEntry(name); err != nil {
		writeStoreErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleDeleteAll removes every entry except the current one (spec §6
// "delete all non-current").
func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	entries := s.store.Entries()
	current := s.store.CurrentIndex()
	for i, e := range entries {
		if i == current {
			continue
		}
		if err := s.store.DeleteEntry(e.Name); err != nil {
			writeStoreErr(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
