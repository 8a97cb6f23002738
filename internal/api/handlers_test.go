package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/ledgerline/covtrace/internal/covenant"
	"github.com/ledgerline/covtrace/internal/service"
	"github.com/ledgerline/covtrace/internal/temporal"
)

var fixtureAsOf = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

func fixturePortfolio() *covenant.Portfolio {
	return &covenant.Portfolio{
		Name: "Syndicated Book Q1",
		AsOf: fixtureAsOf,
		Facilities: []covenant.FacilitySnapshot{{
			FacilityID: "fac-1",
			Name:       "Term Loan B",
			Status:     covenant.FacilityActive,
			Covenants: []covenant.CovenantSnapshot{
				{CovenantID: "cov-a", Name: "Leverage Ratio", FacilityID: "fac-1", State: covenant.StateAtRisk, DaysInState: 10},
			},
		}},
		Histories: map[string][]covenant.StateTransition{
			"cov-a": {
				{ID: "t1", CovenantID: "cov-a", FromState: covenant.StateHealthy, ToState: covenant.StateAtRisk, Trigger: covenant.TriggerTestFailed, Timestamp: fixtureAsOf.AddDate(0, 0, -40)},
				{ID: "t2", CovenantID: "cov-a", FromState: covenant.StateAtRisk, ToState: covenant.StateBreach, Trigger: covenant.TriggerTestFailed, Timestamp: fixtureAsOf.AddDate(0, 0, -10)},
			},
		},
	}
}

func fixtureLibrary() []temporal.CausalPattern {
	return []temporal.CausalPattern{{
		ID:              "pat-breach-path",
		Name:            "At-risk deterioration",
		EntryPoint:      temporal.EntityStateRef{EntityType: temporal.EntityCovenant, State: "at_risk"},
		ExpectedOutcome: temporal.OutcomeNegative,
		Severity:        temporal.SeverityHigh,
		Statistics: temporal.PatternStatistics{
			Occurrences:           12,
			MeanDurationDays:      20,
			StdDevDurationDays:    5,
			CompletionProbability: 80,
		},
	}}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	predictor, err := service.NewPredictor(fixturePortfolio(), fixtureLibrary(), service.Options{})
	require.NoError(t, err)
	return New(0, predictor, nil, nil)
}

func TestRequestLoggerTraceCorrelation(t *testing.T) {
	s := newTestServer(t)

	// No span in flight: the base logger comes back unchanged.
	assert.Same(t, s.logger, s.requestLogger(context.Background()))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x01},
		SpanID:  trace.SpanID{0x02},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	assert.NotSame(t, s.logger, s.requestLogger(ctx))
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestFacilityPredictionEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/facilities/fac-1/prediction")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var prediction temporal.FacilityPrediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prediction))
	assert.Equal(t, "fac-1", prediction.FacilityID)
	assert.Equal(t, temporal.PredictionHorizonDays, prediction.PredictionHorizonDays)
	require.Len(t, prediction.ActivePatterns, 1)
}

func TestFacilityPredictionUnknownFacility(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/facilities/fac-unknown/prediction")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(ErrorCodeNotFound), resp.Error)
}

func TestFacilityPredictionBadPath(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/facilities/fac-1/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/facilities/fac-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFacilityPredictionMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/facilities/fac-1/prediction")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPortfolioPredictionEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/portfolio/prediction")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Predictions []temporal.FacilityPrediction `json:"predictions"`
		Count       int                           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Predictions, 1)
}

func TestGraphQueryEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/graph/query?entityTypes=covenant&states=at_risk,breach&minConfidence=50")
	require.Equal(t, http.StatusOK, rec.Code)

	var result temporal.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Nodes, 2)
	assert.Len(t, result.Edges, 1)
}

func TestGraphQueryDateFilter(t *testing.T) {
	s := newTestServer(t)

	from := fixtureAsOf.AddDate(0, 0, -20).Unix()
	rec := doRequest(t, s, http.MethodGet, "/api/v1/graph/query?from="+strconv.FormatInt(from, 10))
	require.Equal(t, http.StatusOK, rec.Code)

	var result temporal.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Nodes, 1)
}

func TestGraphQueryInvalidParams(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/graph/query?minConfidence=banana")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/graph/query?limit=-3")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/graph/query?from=not-a-real-date-at-all-xyz")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCascadeEndpoint(t *testing.T) {
	s := newTestServer(t)

	// Node ids are deterministic: node-<covenantID>-<unix>.
	triggerID := "node-cov-a-" + strconv.FormatInt(fixtureAsOf.AddDate(0, 0, -40).Unix(), 10)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/cascade?trigger="+triggerID)
	require.Equal(t, http.StatusOK, rec.Code)

	var cascade temporal.EventCascade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cascade))
	assert.Equal(t, triggerID, cascade.TriggerEvent.ID)
	assert.Len(t, cascade.CascadeEvents, 1)
	assert.Equal(t, 1, cascade.Depth)
}

func TestCascadeMissingTrigger(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/cascade")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/cascade?trigger=node-unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyticsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/analytics")
	require.Equal(t, http.StatusOK, rec.Code)

	var analytics temporal.PortfolioAnalytics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analytics))
	assert.Equal(t, 2, analytics.TotalNodes)
	assert.Equal(t, 1, analytics.TotalEdges)
	assert.Equal(t, 1, analytics.FacilitiesAssessed)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodOptions, "/api/v1/analytics")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
