// Package httpapi implements rayhunter-go's core HTTP surface (spec §6),
// wired with gorilla/mux routing and gorilla/handlers middleware the way
// ClusterCockpit-cc-backend's cmd/cc-backend/server.go builds its router:
// a mux.Router wrapped in CompressHandler, RecoveryHandler, and a
// CustomLoggingHandler feeding the structured logger instead of stdout.
package httpapi

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/rayhunter-go/rayhunter/internal/analysis"
	"github.com/rayhunter-go/rayhunter/internal/logging"
	"github.com/rayhunter-go/rayhunter/internal/pipeline"
	"github.com/rayhunter-go/rayhunter/internal/store"
)

// Server is rayhunter-go's core HTTP surface: the recording store, the
// analyzer harness, and the capture task's control channel, exposed over
// the endpoints spec §6 names.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	logger     *logging.Logger

	store   *store.Store
	harness *analysis.Harness
	ctrl    *pipeline.ControlChannel
	queue   *pipeline.AnalysisQueue
	cfg     *ConfigStore
}

// NewServer builds the router and binds every handler to its
// collaborators.
func NewServer(addr string, st *store.Store, harness *analysis.Harness, ctrl *pipeline.ControlChannel, queue *pipeline.AnalysisQueue, cfgStore *ConfigStore) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		logger:  logging.Default(),
		store:   st,
		harness: harness,
		ctrl:    ctrl,
		queue:   queue,
		cfg:     cfgStore,
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/qmdl-manifest", s.handleManifest).Methods(http.MethodGet)
	api.HandleFunc("/qmdl/{name}", s.handleQmdlDownload).Methods(http.MethodGet)
	api.HandleFunc("/qmdl/{name}", s.guarded(s.handleDeleteEntry)).Methods(http.MethodDelete)
	api.HandleFunc("/qmdl", s.guarded(s.handleDeleteAll)).Methods(http.MethodDelete)
	api.HandleFunc("/pcap/{name}", s.handlePcap).Methods(http.MethodGet)
	api.HandleFunc("/zip/{name}", s.handleZip).Methods(http.MethodGet)
	api.HandleFunc("/analysis-report/{name}", s.handleAnalysisReport).Methods(http.MethodGet)
	api.HandleFunc("/analysis", s.handleAnalysisStatus).Methods(http.MethodGet)
	api.HandleFunc("/analysis/{name}", s.guarded(s.handleAnalysisEnqueue)).Methods(http.MethodPost)
	api.HandleFunc("/start-recording", s.guarded(s.handleStartRecording)).Methods(http.MethodPost)
	api.HandleFunc("/stop-recording", s.guarded(s.handleStopRecording)).Methods(http.MethodPost)
	api.HandleFunc("/system-stats", s.handleSystemStats).Methods(http.MethodGet)
	api.HandleFunc("/config", s.handleGetConfig).Methods(http.MethodGet)
	api.HandleFunc("/config", s.guarded(s.handlePutConfig)).Methods(http.MethodPut)
	api.HandleFunc("/time", s.handleGetTime).Methods(http.MethodGet)
	api.HandleFunc("/set-time-offset", s.guarded(s.handleSetTimeOffset)).Methods(http.MethodPost)

	s.router.Use(handlers.CompressHandler)
	s.router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	s.router.Use(handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "PUT", "OPTIONS"}),
		handlers.AllowedOrigins([]string{"*"})))

	logged := handlers.CustomLoggingHandler(io.Discard, s.router, func(_ io.Writer, params handlers.LogFormatterParams) {
		s.logger.Debug("http request",
			"method", params.Request.Method,
			"uri", params.URL.RequestURI(),
			"status", params.StatusCode,
			"bytes", params.Size,
			"elapsed_ms", time.Since(params.TimeStamp).Milliseconds())
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      logged,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// ListenAndServe binds addr and blocks until the server stops, mirroring
// the teacher's cmd/ublk-mem/main.go listener-then-serve split so bind
// failures surface before any goroutines depending on the listener start.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
