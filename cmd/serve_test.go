package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dartlens/dartlens/internal/config"
	"github.com/dartlens/dartlens/internal/model"
	"github.com/dartlens/dartlens/internal/pipeline"
	"github.com/dartlens/dartlens/internal/store"
)

func newTestAPI(t *testing.T) *apiServer {
	t.Helper()
	cfg = &config.Config{}
	cfg.Server.RateLimitRPS = 0 // no limiting unless a test opts in

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	return &apiServer{store: st, pipeline: pipeline.New(nil)}
}

func analyzeBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	end := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	rev := 12_000.0
	req := analyzeRequest{
		Company: "테스트전자",
		Files: []model.FileParseResult{{
			File: model.UploadedFile{ID: "xbrl-1", Name: "q3.xml", Kind: model.FileXBRL},
			Statement: &model.RawStatement{
				FiscalYear: 2025,
				Quarter:    3,
				PeriodType: model.PeriodYTD,
				EndDate:    &end,
				Currency:   "KRW",
				Unit:       1,
				Income: model.ItemMap{
					model.ConceptRevenue: {Name: "매출액", Value: &rev},
				},
			},
		}},
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyze_InvalidBody(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/analyze", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyze_MissingFields(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/analyze", "application/json", bytes.NewBufferString(`{"company":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyze_RunsToCompletion(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/analyze", "application/json", analyzeBody(t))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	runID := accepted["run_id"]
	require.NotEmpty(t, runID)

	// Analysis is asynchronous; poll until the bundle lands.
	var run *model.Run
	require.Eventually(t, func() bool {
		r, err := api.store.GetRun(context.Background(), runID)
		if err != nil || r.Status != model.RunStatusComplete {
			return false
		}
		run = r
		return true
	}, 5*time.Second, 50*time.Millisecond)

	require.NotNil(t, run.Bundle)
	assert.Len(t, run.Bundle.Statements, 1)
}

func TestGetRun_NotFound(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/runs/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListRuns(t *testing.T) {
	api := newTestAPI(t)
	_, err := api.store.CreateRun(context.Background(), "회사A")
	require.NoError(t, err)

	srv := httptest.NewServer(api.router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runs []model.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "회사A", runs[0].Company)
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t)
	cfg.Server.RateLimitRPS = 0.001
	cfg.Server.RateLimitBurst = 1

	srv := httptest.NewServer(api.router())
	defer srv.Close()

	first, err := http.Get(srv.URL + "/runs")
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Get(srv.URL + "/runs")
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	// Health stays reachable regardless of the limiter.
	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
