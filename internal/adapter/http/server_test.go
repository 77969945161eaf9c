package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/medal-flow-etl/internal/adapter/http"
	"github.com/couchcryptid/medal-flow-etl/internal/adapter/memory"
	"github.com/couchcryptid/medal-flow-etl/internal/domain"
	"github.com/couchcryptid/medal-flow-etl/internal/observability"
	"github.com/couchcryptid/medal-flow-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type failingProvider struct{}

func (failingProvider) Latest() (domain.Dashboard, error) {
	return domain.Dashboard{}, errors.New("storage offline")
}

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, memory.NewStore(), slog.Default())
}

func newRenderedServer(t *testing.T) *httpadapter.Server {
	t.Helper()
	store := memory.NewStore()
	d := domain.Dashboard{
		RenderID: "render-1",
		Flow: domain.FlowGraph{
			Nodes: []domain.FlowNode{{Name: "USA"}, {Name: "Swimming"}, {Name: "Gold Medal"}},
			Links: []domain.FlowEdge{
				{Source: 0, Target: 1, Value: 3},
				{Source: 1, Target: 2, Value: 3},
			},
		},
	}
	require.NoError(t, store.Load(context.Background(), d))
	return httpadapter.NewServer(":0", &mockReadiness{}, store, slog.Default())
}

func serve(srv http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(nil), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(fmt.Errorf("not ready yet")), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestChartsReturn503BeforeFirstRender(t *testing.T) {
	srv := newTestServer(nil)
	for _, path := range []string{"/api/dashboard", "/api/flow", "/api/map", "/api/scatter"} {
		rec := serve(srv, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestFlowEndpoint(t *testing.T) {
	rec := serve(newRenderedServer(t), "/api/flow")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "render-1", rec.Header().Get("X-Render-Id"))

	var graph domain.FlowGraph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	assert.Len(t, graph.Nodes, 3)
	assert.Equal(t, domain.FlowEdge{Source: 0, Target: 1, Value: 3}, graph.Links[0])
}

func TestFlowEndpoint_WireFormat(t *testing.T) {
	rec := serve(newRenderedServer(t), "/api/flow")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"nodes": [{"name": "USA"}, {"name": "Swimming"}, {"name": "Gold Medal"}],
		"links": [
			{"source": 0, "target": 1, "value": 3},
			{"source": 1, "target": 2, "value": 3}
		]
	}`, rec.Body.String())
}

func TestDashboardEndpoint(t *testing.T) {
	rec := serve(newRenderedServer(t), "/api/dashboard")

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "flow")
	assert.Contains(t, body, "map")
	assert.Contains(t, body, "scatter")
	assert.JSONEq(t, `"render-1"`, string(body["render_id"]))
}

func TestUnknownChartReturns404(t *testing.T) {
	rec := serve(newRenderedServer(t), "/api/pie")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProviderErrorReturns500(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockReadiness{}, failingProvider{}, slog.Default())
	rec := serve(srv, "/api/map")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPipelineServesReadiness(t *testing.T) {
	p := pipeline.New(nil, nil, nil, slog.Default(), observability.NewMetricsForTesting())
	srv := httpadapter.NewServer(":0", p, memory.NewStore(), slog.Default())

	rec := serve(srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestChartResponsesAreJSON(t *testing.T) {
	srv := newRenderedServer(t)
	for _, path := range []string{"/api/dashboard", "/api/flow", "/api/pie"} {
		rec := serve(srv, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
	}
}
