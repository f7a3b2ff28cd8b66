package engine

import (
	"context"

	"github.com/signalmesh/advisor/internal/domain/market"
	"github.com/signalmesh/advisor/internal/domain/mtf"
	"github.com/signalmesh/advisor/internal/domain/risk"
	"github.com/signalmesh/advisor/internal/domain/signal"
)

// Request identifies one analysis run.
type Request struct {
	Market risk.AssetClass `json:"market"`
	Asset  string          `json:"asset"`
}

// Indicators is the evaluated technical state for one asset, fetched
// once per run.
type Indicators struct {
	Price float64 `json:"price"`
	VWAP  float64 `json:"vwap"`
	RSI   float64 `json:"rsi"`
	ADX   float64 `json:"adx"`
	ATR   float64 `json:"atr"`
}

// PortfolioState is the capital snapshot the risk calculator sizes
// against, plus historical stats for the Kelly strategy.
type PortfolioState struct {
	Capital float64 `json:"capital"`
	WinRate float64 `json:"winRate"`
	AvgWin  float64 `json:"avgWin"`
	AvgLoss float64 `json:"avgLoss"`
}

// ContextProvider supplies the per-run market snapshot.
type ContextProvider interface {
	MarketContext(ctx context.Context, class risk.AssetClass) (market.Context, error)
}

// TrendProvider supplies the ordered timeframe trends (1h, 4h, 1d).
type TrendProvider interface {
	Trends(ctx context.Context, asset string) ([]mtf.TimeframeTrend, error)
}

// IndicatorProvider supplies the evaluated technical indicators.
type IndicatorProvider interface {
	Indicators(ctx context.Context, asset string) (Indicators, error)
}

// PortfolioProvider supplies the capital snapshot.
type PortfolioProvider interface {
	Portfolio(ctx context.Context) (PortfolioState, error)
}

// SignalCollector fans out to the signal sources. Implemented by
// sources.Collector; declared here so tests can substitute fixtures.
type SignalCollector interface {
	Collect(ctx context.Context, asset string) []signal.Signal
}
