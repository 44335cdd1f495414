package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/epw-merge/internal/adapter/http"
	"github.com/couchcryptid/epw-merge/internal/domain"
)

type mockRun struct {
	err      error
	progress domain.Progress
}

func (m *mockRun) CheckReadiness(_ context.Context) error { return m.err }
func (m *mockRun) Progress() domain.Progress { return m.progress }

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockRun{err: readyErr}, prometheus.DefaultGatherer, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestHealthEndpointsMatchSharedHandlers(t *testing.T) {
	run := &mockRun{err: fmt.Errorf("last merge run failed: disk full")}
	srv := httpadapter.NewServer(":0", run, prometheus.DefaultGatherer, slog.Default())

	endpoints := map[string]http.Handler{
		"/healthz": sharedobs.LivenessHandler(),
		"/readyz":  sharedobs.ReadinessHandler(run),
	}
	for path, want := range endpoints {
		t.Run(path, func(t *testing.T) {
			got := httptest.NewRecorder()
			srv.ServeHTTP(got, httptest.NewRequest(http.MethodGet, path, nil))
			expected := httptest.NewRecorder()
			want.ServeHTTP(expected, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, expected.Code, got.Code)
			assert.Equal(t, expected.Header().Get("Content-Type"), got.Header().Get("Content-Type"))
			assert.JSONEq(t, expected.Body.String(), got.Body.String())
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStatusReportsProgress(t *testing.T) {
	run := &mockRun{progress: domain.Progress{
		Phase:         domain.PhaseParsing,
		FilesTotal:    4,
		FilesParsed:   2,
		RecordsParsed: 17520,
	}}
	srv := httpadapter.NewServer(":0", run, prometheus.DefaultGatherer, slog.Default())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body domain.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, run.progress, body)
}
