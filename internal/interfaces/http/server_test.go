package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalmesh/advisor/internal/application"
	"github.com/signalmesh/advisor/internal/domain/market"
	"github.com/signalmesh/advisor/internal/domain/risk"
	"github.com/signalmesh/advisor/internal/domain/signal"
	"github.com/signalmesh/advisor/internal/engine"
	"github.com/signalmesh/advisor/internal/errs"
	"github.com/signalmesh/advisor/internal/persistence"
	"github.com/signalmesh/advisor/internal/risktrack"
)

type stubAdvisor struct {
	rec        *engine.Recommendation
	analyzeErr error
	refreshErr error
	metrics    risktrack.Metrics
}

func (s *stubAdvisor) MarketContext(_ context.Context, class risk.AssetClass) (market.Context, error) {
	return market.Context{
		Timestamp:      time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC),
		Weekday:        time.Wednesday,
		ActiveSessions: []market.SessionID{market.SessionLondon},
		VIX:            15,
	}, nil
}

func (s *stubAdvisor) Analyze(context.Context, engine.Request, bool) (*engine.Recommendation, error) {
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	return s.rec, nil
}

func (s *stubAdvisor) Signals(context.Context, engine.Request) ([]signal.Signal, error) {
	return s.rec.Signals, nil
}

func (s *stubAdvisor) RiskMetrics() risktrack.Metrics { return s.metrics }

func (s *stubAdvisor) Refresh(context.Context, engine.Request) (*engine.Recommendation, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.rec, nil
}

func (s *stubAdvisor) History(context.Context, string, persistence.TimeRange, int) ([]persistence.RecommendationRecord, error) {
	return nil, nil
}

func sampleRecommendation() *engine.Recommendation {
	return &engine.Recommendation{
		Asset:      "SOLUSD",
		Direction:  signal.Long,
		Score:      0.546,
		Confidence: 0.8,
		Entry:      4.35,
		StopLoss:   4.326,
		TakeProfit: 4.398,
		RiskReward: 2.0,
		Signals: []signal.Signal{
			{SourceID: "finbert", Category: signal.CategorySentiment, Score: 0.6, Confidence: 0.7, Weight: 0.25},
		},
		DecisionPath: []engine.DecisionStep{{Step: "gate_session", Passed: true, Detail: "session gate passed"}},
		Timestamp:    time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC),
	}
}

func newTestServer(stub *stubAdvisor) *Server {
	return NewServer(DefaultServerConfig(), stub, NewMetricsRegistry(), zerolog.Nop())
}

func doRequest(t *testing.T, srv *Server, method, path string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	res := rr.Result()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubAdvisor{rec: sampleRecommendation()})
	res, body := doRequest(t, srv, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "ok", payload["status"])
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv := newTestServer(&stubAdvisor{rec: sampleRecommendation()})
	res, body := doRequest(t, srv, http.MethodGet, "/analysis/forex/SOLUSD")

	assert.Equal(t, http.StatusOK, res.StatusCode)
	var rec engine.Recommendation
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, signal.Long, rec.Direction)
	assert.Equal(t, 4.326, rec.StopLoss)
}

func TestAnalyzeRejectsUnknownMarket(t *testing.T) {
	srv := newTestServer(&stubAdvisor{rec: sampleRecommendation()})
	res, body := doRequest(t, srv, http.MethodGet, "/analysis/bonds/SOLUSD")

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var payload errorResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "invalid_market", payload.Error.Code)
	assert.NotEmpty(t, payload.Error.RequestID)
}

func TestConfigErrorMapsTo422(t *testing.T) {
	stub := &stubAdvisor{analyzeErr: errs.Config("weights", "weight table must not be empty")}
	srv := newTestServer(stub)
	res, body := doRequest(t, srv, http.MethodGet, "/analysis/forex/SOLUSD")

	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	var payload errorResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "configuration_error", payload.Error.Code)
}

func TestRefreshRateLimitMapsTo429(t *testing.T) {
	stub := &stubAdvisor{rec: sampleRecommendation(), refreshErr: application.ErrRateLimited}
	srv := newTestServer(stub)
	res, body := doRequest(t, srv, http.MethodPost, "/refresh/forex/SOLUSD")

	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	var payload errorResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "rate_limited", payload.Error.Code)
}

func TestRefreshRequiresPost(t *testing.T) {
	srv := newTestServer(&stubAdvisor{rec: sampleRecommendation()})
	res, _ := doRequest(t, srv, http.MethodGet, "/refresh/forex/SOLUSD")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSignalsEndpoint(t *testing.T) {
	srv := newTestServer(&stubAdvisor{rec: sampleRecommendation()})
	res, body := doRequest(t, srv, http.MethodGet, "/signals/forex/SOLUSD")

	assert.Equal(t, http.StatusOK, res.StatusCode)
	var payload struct {
		Asset   string          `json:"asset"`
		Signals []signal.Signal `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Signals, 1)
	assert.Equal(t, "finbert", payload.Signals[0].SourceID)
}

func TestRiskEndpoint(t *testing.T) {
	stub := &stubAdvisor{rec: sampleRecommendation(), metrics: risktrack.Metrics{OpenPositions: 2, CapitalAtRisk: 400}}
	srv := newTestServer(stub)
	res, body := doRequest(t, srv, http.MethodGet, "/risk")

	assert.Equal(t, http.StatusOK, res.StatusCode)
	var metrics risktrack.Metrics
	require.NoError(t, json.Unmarshal(body, &metrics))
	assert.Equal(t, 2, metrics.OpenPositions)
	assert.Equal(t, 400.0, metrics.CapitalAtRisk)
}

func TestContextEndpoint(t *testing.T) {
	srv := newTestServer(&stubAdvisor{rec: sampleRecommendation()})
	res, body := doRequest(t, srv, http.MethodGet, "/context/forex")

	assert.Equal(t, http.StatusOK, res.StatusCode)
	var mctx market.Context
	require.NoError(t, json.Unmarshal(body, &mctx))
	assert.Equal(t, 15.0, mctx.VIX)
	assert.Equal(t, time.Wednesday, mctx.Weekday)
}

func TestMetricsEndpointExposesCounters(t *testing.T) {
	srv := newTestServer(&stubAdvisor{rec: sampleRecommendation()})
	// generate one recommendation observation first
	doRequest(t, srv, http.MethodGet, "/analysis/forex/SOLUSD")

	res, body := doRequest(t, srv, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "advisor_recommendations_total")
	assert.Contains(t, string(body), "advisor_request_duration_seconds")
}

func TestNotFoundIsStructured(t *testing.T) {
	srv := newTestServer(&stubAdvisor{rec: sampleRecommendation()})
	res, body := doRequest(t, srv, http.MethodGet, "/nope")

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	var payload errorResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "not_found", payload.Error.Code)
}
