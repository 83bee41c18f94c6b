package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rayhunter-go/rayhunter/internal/clock"
	"github.com/rayhunter-go/rayhunter/internal/config"
	"github.com/rayhunter-go/rayhunter/internal/sysstats"
)

func (s *Server) handleSystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := sysstats.Collect(s.store.Root())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cfg.Get())
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var incoming config.Config
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.cfg.Replace(&incoming); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, s.cfg.Get())
}

type timeResponse struct {
	EpochMs int64 `json:"epoch_ms"`
}

func (s *Server) handleGetTime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, timeResponse{EpochMs: clock.Now().UnixMilli()})
}

type setTimeOffsetRequest struct {
	EpochMs int64 `json:"epoch_ms"`
}

// handleSetTimeOffset implements POST /api/set-time-offset (spec §4.11):
// offset = client_now - system_now, applied to every subsequently reported
// timestamp; never persisted, never touching the host clock itself.
func (s *Server) handleSetTimeOffset(w http.ResponseWriter, r *http.Request) {
	var req setTimeOffsetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	clock.SetOffsetFromClientNow(time.UnixMilli(req.EpochMs))
	w.WriteHeader(http.StatusOK)
}
