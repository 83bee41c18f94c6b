package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayhunter-go/rayhunter/internal/analysis"
	"github.com/rayhunter-go/rayhunter/internal/config"
	"github.com/rayhunter-go/rayhunter/internal/pipeline"
	"github.com/rayhunter-go/rayhunter/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)

	harness := analysis.NewHarness(nil, nil)
	ctrl := pipeline.NewControlChannel()
	analysisTask := pipeline.NewAnalysisTask(st, harness)
	queue := pipeline.NewAnalysisQueue(analysisTask, st)
	cfgStore := NewConfigStore(t.TempDir()+"/config.toml", config.Default())

	return NewServer("127.0.0.1:0", st, harness, ctrl, queue, cfgStore)
}

func TestManifestEmptyStore(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/qmdl-manifest", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp manifestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Entries)
	assert.Nil(t, resp.CurrentEntry)
}

func TestQmdlDownloadUnknownRecording(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/qmdl/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalysisStatusIdle(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp analysisStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Running)
	assert.Empty(t, resp.Queued)
}

func TestStartRecordingAccepted(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/start-recording", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case cmd := <-s.ctrl.Recv():
		assert.Equal(t, pipeline.StartRecording{}, cmd)
	default:
		t.Fatal("expected a StartRecording command on the control channel")
	}
}

func TestReadOnlyModeRejectsMutatingRequests(t *testing.T) {
	s := newTestServer(t)
	cfg := config.Default()
	cfg.ReadOnlyMode = true
	require.NoError(t, s.cfg.Replace(cfg))

	req := httptest.NewRequest(http.MethodPost, "/api/start-recording", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetAndPutConfigRoundTrip(t *testing.T) {
	s := newTestServer(t)

	getReq := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	getRec := httptest.NewRecorder()
	s.router.ServeHTTP(getRec, getReq)
	assert.Equal(t, http.StatusOK, getRec.Code)

	var got config.Config
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &got))
	got.ColorblindMode = true

	body, err := json.Marshal(got)
	require.NoError(t, err)

	putReq := httptest.NewRequest(http.MethodPut, "/api/config", bytes.NewReader(body))
	putRec := httptest.NewRecorder()
	s.router.ServeHTTP(putRec, putReq)
	assert.Equal(t, http.StatusOK, putRec.Code)

	assert.True(t, s.cfg.Get().ColorblindMode)
}
