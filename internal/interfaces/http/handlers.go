// Package http exposes the service operations over a JSON API. Errors
// cross the boundary as structured objects, never as raw panics or
// plain-text faults.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/signalmesh/advisor/internal/application"
	"github.com/signalmesh/advisor/internal/domain/market"
	"github.com/signalmesh/advisor/internal/domain/risk"
	"github.com/signalmesh/advisor/internal/domain/signal"
	"github.com/signalmesh/advisor/internal/engine"
	"github.com/signalmesh/advisor/internal/errs"
	"github.com/signalmesh/advisor/internal/persistence"
	"github.com/signalmesh/advisor/internal/risktrack"
)

// Advisor is the service surface the handlers call. Satisfied by
// application.Service; narrowed to an interface so tests can stub it.
type Advisor interface {
	MarketContext(ctx context.Context, class risk.AssetClass) (market.Context, error)
	Analyze(ctx context.Context, req engine.Request, force bool) (*engine.Recommendation, error)
	Signals(ctx context.Context, req engine.Request) ([]signal.Signal, error)
	RiskMetrics() risktrack.Metrics
	Refresh(ctx context.Context, req engine.Request) (*engine.Recommendation, error)
	History(ctx context.Context, asset string, window persistence.TimeRange, limit int) ([]persistence.RecommendationRecord, error)
}

// apiError is the structured error object crossing the boundary.
type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// Handlers serves the API routes.
type Handlers struct {
	svc     Advisor
	metrics *MetricsRegistry
	hub     *Hub
	log     zerolog.Logger
}

// NewHandlers wires the handler set.
func NewHandlers(svc Advisor, metrics *MetricsRegistry, hub *Hub, logger zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, metrics: metrics, hub: hub, log: logger}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Context serves the current market snapshot for a market.
func (h *Handlers) Context(w http.ResponseWriter, r *http.Request) {
	class, ok := h.marketParam(w, r)
	if !ok {
		return
	}
	mctx, err := h.svc.MarketContext(r.Context(), class)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mctx)
}

// Analyze runs (or serves a cached) full analysis for (market, asset).
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requestParams(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.Analyze(r.Context(), req, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.ObserveRecommendation(rec)
	writeJSON(w, http.StatusOK, rec)
}

// Signals lists the signals consulted in the current analysis,
// unavailable sources included.
func (h *Handlers) Signals(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requestParams(w, r)
	if !ok {
		return
	}
	sigs, err := h.svc.Signals(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"asset":   req.Asset,
		"signals": sigs,
	})
}

// Risk serves the shared risk counters.
func (h *Handlers) Risk(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.RiskMetrics())
}

// Refresh is the idempotent recompute trigger.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requestParams(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.Refresh(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.ObserveRecommendation(rec)
	if h.hub != nil {
		h.hub.Broadcast(rec)
	}
	writeJSON(w, http.StatusOK, rec)
}

// History lists persisted runs for an asset.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	req, ok := h.requestParams(w, r)
	if !ok {
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	window := persistence.TimeRange{From: time.Time{}, To: time.Now().UTC()}
	if v := r.URL.Query().Get("from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			window.From = ts
		}
	}
	records, err := h.svc.History(r.Context(), req.Asset, window, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []persistence.RecommendationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// NotFound is the structured 404.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: apiError{
		Code:      "not_found",
		Message:   "unknown route " + r.URL.Path,
		RequestID: requestIDFrom(r.Context()),
	}})
}

func (h *Handlers) marketParam(w http.ResponseWriter, r *http.Request) (risk.AssetClass, bool) {
	class := risk.AssetClass(mux.Vars(r)["market"])
	if class != risk.AssetForex && class != risk.AssetCrypto {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: apiError{
			Code:      "invalid_market",
			Message:   "market must be forex or crypto",
			RequestID: requestIDFrom(r.Context()),
		}})
		return "", false
	}
	return class, true
}

func (h *Handlers) requestParams(w http.ResponseWriter, r *http.Request) (engine.Request, bool) {
	class, ok := h.marketParam(w, r)
	if !ok {
		return engine.Request{}, false
	}
	asset := mux.Vars(r)["asset"]
	if asset == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: apiError{
			Code:      "invalid_asset",
			Message:   "asset is required",
			RequestID: requestIDFrom(r.Context()),
		}})
		return engine.Request{}, false
	}
	return engine.Request{Market: class, Asset: asset}, true
}

// writeError maps internal failures onto structured error objects.
// Configuration errors are distinguishable from upstream data failures.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := requestIDFrom(r.Context())

	status := http.StatusBadGateway
	code := "upstream_error"
	switch {
	case errs.IsConfig(err):
		status, code = http.StatusUnprocessableEntity, "configuration_error"
	case errors.Is(err, application.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	}

	h.log.Error().Err(err).Str("requestId", reqID).Str("code", code).Msg("request failed")
	writeJSON(w, status, errorResponse{Error: apiError{
		Code:      code,
		Message:   err.Error(),
		RequestID: reqID,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
