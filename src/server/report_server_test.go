package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	release chan struct{}
	report  *models.MAnalysisReport
	err     error
	runID   string
}

func (f *fakeRunner) SetRunID(id string) { f.runID = id }

func (f *fakeRunner) Execute(ctx context.Context) (*models.MAnalysisReport, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	r := *f.report
	r.RunID = f.runID
	return &r, nil
}

func newTestServer(t *testing.T, runner *fakeRunner) *ReportServer {
	t.Helper()
	cfg := &models.MConfig{
		DataDir:       t.TempDir(),
		Pairs:         []string{"ETH/USDT", "BTC/USDT"},
		Timeframe:     "1d",
		StakeCurrency: "USDT",
	}
	cfg.Exchange.Name = "binance"
	log := logger.NewLogger(nil, "ServerTest")
	s := NewReportServer(cfg, runner, log)
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s
}

func do(s *ReportServer, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

// -----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeRunner{})
	w := do(s, http.MethodGet, "/api/health")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["running"])
}

func TestConfig(t *testing.T) {
	s := newTestServer(t, &fakeRunner{})
	w := do(s, http.MethodGet, "/api/config")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"exchange":"binance"`)
	assert.Contains(t, w.Body.String(), `"ETH/USDT"`)
}

func TestListAndServeReports(t *testing.T) {
	s := newTestServer(t, &fakeRunner{})
	dir := s.Config.DataDir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1_data_preprocessing.csv"), []byte("date,ETH\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2_plot.png"), []byte("png"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "candles.sqlite"), []byte("db"), 0644))

	w := do(s, http.MethodGet, "/api/reports")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Artifacts []models.MArtifact `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Artifacts, 2)
	assert.Equal(t, "2_plot.png", body.Artifacts[0].Name)
	assert.Equal(t, "plot", body.Artifacts[0].Kind)
	assert.Equal(t, "table", body.Artifacts[1].Kind)

	w = do(s, http.MethodGet, "/api/reports/1_data_preprocessing.csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "date,ETH\n", w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/reports/candles.sqlite").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/reports/9_plot.png").Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/reports/a..b_plot.png").Code)
}

func TestListReportsMissingDir(t *testing.T) {
	s := newTestServer(t, &fakeRunner{})
	s.Config.DataDir = filepath.Join(t.TempDir(), "absent")

	w := do(s, http.MethodGet, "/api/reports")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"artifacts":[]}`, w.Body.String())
}

// -----------------------------------------------------------------------------

func TestRunLifecycle(t *testing.T) {
	runner := &fakeRunner{
		release: make(chan struct{}),
		report:  &models.MAnalysisReport{PlotPath: "/tmp/1_plot.png"},
	}
	s := newTestServer(t, runner)

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/runs/latest").Code)

	w := do(s, http.MethodPost, "/api/runs")
	require.Equal(t, http.StatusAccepted, w.Code)
	var started map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	require.NotEmpty(t, started["run_id"])

	assert.Equal(t, http.StatusConflict, do(s, http.MethodPost, "/api/runs").Code)

	close(runner.release)
	require.Eventually(t, func() bool {
		return do(s, http.MethodGet, "/api/runs/latest").Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	w = do(s, http.MethodGet, "/api/runs/latest")
	assert.Contains(t, w.Body.String(), started["run_id"])
	assert.Contains(t, w.Body.String(), "1_plot.png")
	assert.Equal(t, started["run_id"], runner.runID)
}

func TestRunFailureIsReported(t *testing.T) {
	s := newTestServer(t, &fakeRunner{err: errors.New("no usable pairs")})

	require.Equal(t, http.StatusAccepted, do(s, http.MethodPost, "/api/runs").Code)
	require.Eventually(t, func() bool {
		w := do(s, http.MethodGet, "/api/runs/latest")
		return w.Code == http.StatusOK && strings.Contains(w.Body.String(), "no usable pairs")
	}, 2*time.Second, 10*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestWebSocketReceivesRunEvents(t *testing.T) {
	s := newTestServer(t, &fakeRunner{})
	go s.handleWebsockets()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg models.MServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "INITIAL", msg.Type)
	assert.Nil(t, msg.Event)

	s.OnRunEvent(models.MRunEvent{RunID: "r1", State: models.StateBuilding})

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "EVENT", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, models.StateBuilding, msg.Event.State)

	require.NoError(t, conn.WriteJSON(models.MClientCommand{Command: "latest"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "INITIAL", msg.Type)
	assert.Equal(t, "r1", msg.Event.RunID)
}

func TestArtifactKind(t *testing.T) {
	assert.Equal(t, "table", artifactKind("1_data_preprocessing.csv"))
	assert.Equal(t, "heat_map", artifactKind("1_heat_map.png"))
	assert.Equal(t, "", artifactKind("notes.txt"))
}
