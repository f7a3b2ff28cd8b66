// Package application exposes the pipeline as service operations:
// context reads, cached analysis, signal listings, risk metrics, and a
// rate-limited recompute trigger. This is the layer the HTTP boundary
// and the CLI both call.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/signalmesh/advisor/internal/cache"
	"github.com/signalmesh/advisor/internal/domain/market"
	"github.com/signalmesh/advisor/internal/domain/risk"
	"github.com/signalmesh/advisor/internal/domain/signal"
	"github.com/signalmesh/advisor/internal/engine"
	"github.com/signalmesh/advisor/internal/persistence"
	"github.com/signalmesh/advisor/internal/risktrack"
)

// ErrRateLimited is returned when refresh triggers arrive faster than
// the configured budget.
var ErrRateLimited = errors.New("refresh rate limit exceeded")

// ServiceConfig tunes caching and the refresh budget.
type ServiceConfig struct {
	// RecommendationTTL is how long a cached analysis stays fresh.
	RecommendationTTL time.Duration `yaml:"recommendation_ttl"`
	// ContextTTL is how long a cached market context stays fresh.
	ContextTTL time.Duration `yaml:"context_ttl"`
	// RefreshPerMinute bounds explicit recompute triggers.
	RefreshPerMinute int `yaml:"refresh_per_minute"`
}

// DefaultServiceConfig returns the production service settings.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		RecommendationTTL: 5 * time.Minute,
		ContextTTL:        time.Minute,
		RefreshPerMinute:  12,
	}
}

// Service ties the engine to its caches, history store, and the shared
// risk tracker. All methods are safe for concurrent use.
type Service struct {
	cfg      ServiceConfig
	eng      *engine.Engine
	contexts engine.ContextProvider
	tracker  *risktrack.Tracker
	repo     persistence.RecommendationRepo // nil disables history
	recCache *cache.Typed[engine.Recommendation]
	ctxCache *cache.Typed[market.Context]
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewService wires the service. repo may be nil when history persistence
// is disabled.
func NewService(cfg ServiceConfig, eng *engine.Engine, contexts engine.ContextProvider,
	tracker *risktrack.Tracker, store cache.Store, repo persistence.RecommendationRepo,
	logger zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		eng:      eng,
		contexts: contexts,
		tracker:  tracker,
		repo:     repo,
		recCache: cache.NewTyped[engine.Recommendation](store, cfg.RecommendationTTL),
		ctxCache: cache.NewTyped[market.Context](store, cfg.ContextTTL),
		limiter:  rate.NewLimiter(rate.Limit(float64(cfg.RefreshPerMinute)/60.0), cfg.RefreshPerMinute),
		log:      logger.With().Str("component", "service").Logger(),
	}
}

// MarketContext returns the current market snapshot, cached briefly.
func (s *Service) MarketContext(ctx context.Context, class risk.AssetClass) (market.Context, error) {
	key := cache.Key("context", string(class))
	if cached, ok, err := s.ctxCache.Get(ctx, key); err == nil && ok {
		return cached, nil
	}

	mctx, err := s.contexts.MarketContext(ctx, class)
	if err != nil {
		return market.Context{}, fmt.Errorf("fetch market context: %w", err)
	}
	if err := s.ctxCache.Set(ctx, key, mctx); err != nil {
		s.log.Warn().Err(err).Msg("context cache write failed")
	}
	return mctx, nil
}

// Analyze returns the recommendation for (market, asset), serving a
// cached copy when fresh. Set force to bypass the cache.
func (s *Service) Analyze(ctx context.Context, req engine.Request, force bool) (*engine.Recommendation, error) {
	req.Asset = strings.ToUpper(req.Asset)
	key := cache.Key("rec", string(req.Market), req.Asset)

	if !force {
		if cached, ok, err := s.recCache.Get(ctx, key); err == nil && ok {
			return &cached, nil
		}
	}

	rec, err := s.eng.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.recCache.Set(ctx, key, *rec); err != nil {
		s.log.Warn().Err(err).Msg("recommendation cache write failed")
	}
	s.persist(ctx, req, rec)
	return rec, nil
}

// Signals runs an analysis (cache permitting) and returns the consulted
// signal set, unavailable sources included.
func (s *Service) Signals(ctx context.Context, req engine.Request) ([]signal.Signal, error) {
	rec, err := s.Analyze(ctx, req, false)
	if err != nil {
		return nil, err
	}
	return rec.Signals, nil
}

// RiskMetrics returns the shared risk counters.
func (s *Service) RiskMetrics() risktrack.Metrics {
	return s.tracker.Snapshot()
}

// Refresh is the idempotent recompute trigger: it drops the cached
// recommendation and re-runs the pipeline. Triggers beyond the rate
// budget are rejected with ErrRateLimited.
func (s *Service) Refresh(ctx context.Context, req engine.Request) (*engine.Recommendation, error) {
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}
	req.Asset = strings.ToUpper(req.Asset)
	if err := s.recCache.Invalidate(ctx, cache.Key("rec", string(req.Market), req.Asset)); err != nil {
		s.log.Warn().Err(err).Msg("cache invalidation failed")
	}
	return s.Analyze(ctx, req, true)
}

// History returns persisted runs for an asset, newest first. Returns nil
// when persistence is disabled.
func (s *Service) History(ctx context.Context, asset string, window persistence.TimeRange, limit int) ([]persistence.RecommendationRecord, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(ctx, strings.ToUpper(asset), window, limit)
}

// persist writes the run to history. Failures are logged, never fatal:
// the recommendation already exists and belongs to the caller.
func (s *Service) persist(ctx context.Context, req engine.Request, rec *engine.Recommendation) {
	if s.repo == nil {
		return
	}
	record := &persistence.RecommendationRecord{
		Timestamp:  rec.Timestamp,
		Market:     string(req.Market),
		Asset:      rec.Asset,
		Direction:  string(rec.Direction),
		Score:      rec.Score,
		Confidence: rec.Confidence,
		Regime:     string(rec.Regime),
		Payload:    *rec,
	}
	if rec.BlockedReason != "" {
		reason := rec.BlockedReason
		record.BlockedReason = &reason
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		s.log.Warn().Err(err).Str("asset", rec.Asset).Msg("history insert failed")
	}
}
