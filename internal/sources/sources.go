// Package sources collects raw signals from independent providers.
// Each provider runs behind its own circuit breaker and timeout so one
// slow or broken feed degrades the run instead of failing it.
package sources

import (
	"context"

	"github.com/signalmesh/advisor/internal/domain/signal"
)

// Source produces one raw signal per analysis run.
type Source interface {
	// ID uniquely names the source, e.g. "finbert" or "rsi_divergence".
	ID() string
	// Category classifies the signal the source emits.
	Category() signal.Category
	// Fetch produces the current signal for the asset. Implementations
	// must honor ctx cancellation.
	Fetch(ctx context.Context, asset string) (signal.Signal, error)
}
