package engine

import (
	"context"
	"time"

	"github.com/signalmesh/advisor/internal/config"
	"github.com/signalmesh/advisor/internal/domain/market"
	"github.com/signalmesh/advisor/internal/domain/mtf"
	"github.com/signalmesh/advisor/internal/domain/risk"
)

// StaticContextProvider serves a snapshot derived from the wall clock and
// fixed VIX/news readings. Backs the offline CLI mode and tests.
type StaticContextProvider struct {
	Cfg  *config.Config
	VIX  float64
	News bool
	// Now overrides the clock when set.
	Now func() time.Time
}

func (p *StaticContextProvider) MarketContext(_ context.Context, class risk.AssetClass) (market.Context, error) {
	now := time.Now().UTC()
	if p.Now != nil {
		now = p.Now()
	}
	return market.Context{
		Timestamp:        now,
		Weekday:          now.Weekday(),
		ActiveSessions:   p.Cfg.Calendar(class).ActiveAt(now),
		VIX:              p.VIX,
		NewsWithinWindow: p.News,
	}, nil
}

// StaticTrendProvider serves fixed timeframe trends.
type StaticTrendProvider struct {
	Set []mtf.TimeframeTrend
}

func (p *StaticTrendProvider) Trends(context.Context, string) ([]mtf.TimeframeTrend, error) {
	return p.Set, nil
}

// StaticIndicatorProvider serves fixed indicator readings.
type StaticIndicatorProvider struct {
	Ind Indicators
}

func (p *StaticIndicatorProvider) Indicators(context.Context, string) (Indicators, error) {
	return p.Ind, nil
}

// StaticPortfolioProvider serves a fixed capital snapshot.
type StaticPortfolioProvider struct {
	State PortfolioState
}

func (p *StaticPortfolioProvider) Portfolio(context.Context) (PortfolioState, error) {
	return p.State, nil
}

// FixtureTrends is a mildly bullish trend set spanning all three
// timeframes, used by the offline mode.
func FixtureTrends() []mtf.TimeframeTrend {
	return []mtf.TimeframeTrend{
		{Timeframe: mtf.TF1H, Direction: mtf.TrendUp, Strength: 0.7},
		{Timeframe: mtf.TF4H, Direction: mtf.TrendUp, Strength: 0.6},
		{Timeframe: mtf.TF1D, Direction: mtf.TrendUp, Strength: 0.5},
	}
}

// FixtureIndicators is a plausibly bullish indicator snapshot.
func FixtureIndicators() Indicators {
	return Indicators{Price: 4.35, VWAP: 4.30, RSI: 58, ADX: 27, ATR: 0.02}
}

// FixturePortfolio is the offline-mode capital snapshot.
func FixturePortfolio() PortfolioState {
	return PortfolioState{Capital: 10000, WinRate: 0.55, AvgWin: 180, AvgLoss: 120}
}
