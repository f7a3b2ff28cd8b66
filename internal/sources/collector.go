package sources

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/signalmesh/advisor/internal/domain/signal"
)

// CollectorConfig tunes the fan-out behavior.
type CollectorConfig struct {
	// SourceTimeout bounds each individual fetch.
	SourceTimeout time.Duration `yaml:"source_timeout"`
	// BreakerMaxRequests is the half-open probe allowance.
	BreakerMaxRequests uint32 `yaml:"breaker_max_requests"`
	// BreakerInterval resets the closed-state counters.
	BreakerInterval time.Duration `yaml:"breaker_interval"`
	// BreakerTimeout is how long an open breaker stays open.
	BreakerTimeout time.Duration `yaml:"breaker_timeout"`
	// BreakerFailures trips the breaker after this many consecutive errors.
	BreakerFailures uint32 `yaml:"breaker_failures"`
}

// DefaultCollectorConfig returns the production fan-out settings.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		SourceTimeout:      5 * time.Second,
		BreakerMaxRequests: 1,
		BreakerInterval:    time.Minute,
		BreakerTimeout:     30 * time.Second,
		BreakerFailures:    3,
	}
}

// Collector fans out to all registered sources concurrently and gathers
// their signals. A failed, timed-out, or circuit-broken source yields a
// placeholder marked unavailable rather than an error: the combiner
// drops unavailable signals from the weighted vote but keeps them in the
// audit trail.
type Collector struct {
	cfg      CollectorConfig
	logger   zerolog.Logger
	sources  []Source
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewCollector builds a collector with one circuit breaker per source.
func NewCollector(cfg CollectorConfig, logger zerolog.Logger, srcs ...Source) *Collector {
	c := &Collector{
		cfg:      cfg,
		logger:   logger.With().Str("component", "collector").Logger(),
		sources:  srcs,
		breakers: make(map[string]*gobreaker.CircuitBreaker, len(srcs)),
	}
	for _, src := range srcs {
		src := src
		c.breakers[src.ID()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        src.ID(),
			MaxRequests: cfg.BreakerMaxRequests,
			Interval:    cfg.BreakerInterval,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn().
					Str("source", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("source breaker state change")
			},
		})
	}
	return c
}

// Sources returns the registered source IDs in registration order.
func (c *Collector) Sources() []string {
	ids := make([]string, len(c.sources))
	for i, src := range c.sources {
		ids[i] = src.ID()
	}
	return ids
}

// Collect fetches from every source concurrently and returns the signals
// sorted by source ID for deterministic downstream processing. Collect
// never returns an error: per-source failures become unavailable signals.
func (c *Collector) Collect(ctx context.Context, asset string) []signal.Signal {
	results := make([]signal.Signal, len(c.sources))

	var wg sync.WaitGroup
	for i, src := range c.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = c.fetchOne(ctx, src, asset)
		}(i, src)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].SourceID < results[j].SourceID
	})
	return results
}

func (c *Collector) fetchOne(ctx context.Context, src Source, asset string) signal.Signal {
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.SourceTimeout)
	defer cancel()

	breaker := c.breakers[src.ID()]
	out, err := breaker.Execute(func() (interface{}, error) {
		sig, err := src.Fetch(fetchCtx, asset)
		if err != nil {
			return nil, err
		}
		return sig, nil
	})
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("source", src.ID()).
			Str("asset", asset).
			Msg("source unavailable")
		return signal.Signal{
			SourceID:    src.ID(),
			Category:    src.Category(),
			Unavailable: true,
			Detail:      err.Error(),
		}
	}

	sig := out.(signal.Signal)
	sig.SourceID = src.ID()
	sig.Category = src.Category()
	return sig
}
