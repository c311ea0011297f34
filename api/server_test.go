package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maver1ck/flink-cdc-connectors/api"
	"github.com/maver1ck/flink-cdc-connectors/internal/source/metrics"
)

// helper to set up router with a live aggregator behind it
func setupRouter(t *testing.T) (*gin.Engine, *metrics.SourceReaderMetrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	m := metrics.NewSourceReaderMetrics(metrics.NewPrometheusRegistry(registry, "flink_cdc", "reader-0"))
	m.RegisterMetrics()

	srv := api.NewServer(zap.NewNop(), m, registry)
	return srv.Router(), m
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	router, m := setupRouter(t)
	m.RecordPendingRecords(17)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "flink_cdc_source_reader_pending_records"))
	assert.True(t, strings.Contains(body, "17"))
}

func TestSourceStatus(t *testing.T) {
	router, m := setupRouter(t)
	m.RecordFetchDelay(120)
	m.RecordEmitDelay(140)
	m.RecordPendingRecords(9)
	m.AddNumRecordsInErrors(2)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/source/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 120.0, resp["current_fetch_event_time_lag"])
	assert.Equal(t, 140.0, resp["current_emit_event_time_lag"])
	assert.Equal(t, 9.0, resp["pending_records"])
	assert.Equal(t, 2.0, resp["num_records_in_errors"])
	assert.Equal(t, 0.0, resp["source_idle_time"])
}
