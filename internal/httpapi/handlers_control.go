package httpapi

import (
	"net/http"

	"github.com/rayhunter-go/rayhunter/internal/pipeline"
)

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Send(r.Context(), pipeline.StartRecording{}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Send(r.Context(), pipeline.StopRecording{}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
