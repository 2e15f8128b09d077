package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xela07ax/credential-dashboard/internal/console/handler"
	"github.com/xela07ax/credential-dashboard/internal/domain"
)

type stubDashboard struct{}

func (stubDashboard) Snapshot() domain.DashboardSnapshot { return domain.DashboardSnapshot{} }
func (stubDashboard) Refresh(context.Context) error      { return nil }

func newTestServer(t *testing.T, gatherer prometheus.Gatherer) (*ConsoleServer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	h := handler.NewDashboardHandler(stubDashboard{}, nil, nil, logger)
	return NewConsoleServer(logger, gatherer, h), logs
}

func TestConsoleServer_Routes(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "dashboard_test_total", Help: "test"}))
	srv, _ := newTestServer(t, reg)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard/stats", http.StatusOK},
		{http.MethodPost, "/api/v1/dashboard/refresh", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard/snapshot/cached", http.StatusNotFound},
		{http.MethodGet, "/api/v1/dashboard/refresh", http.StatusMethodNotAllowed},
		{http.MethodGet, "/v1/agents", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestConsoleServer_MetricsExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "dashboard_test_total", Help: "test"}))
	srv, _ := newTestServer(t, reg)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard_test_total 0")
}

func TestConsoleServer_NoMetricsWithoutGatherer(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConsoleServer_LogsRequests(t *testing.T) {
	srv, logs := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/v1/dashboard/stats", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}
