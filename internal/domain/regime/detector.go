package regime

import "fmt"

// Regime is a discrete market-state classification. It is derived on every
// run from the market context and never stored.
type Regime string

const (
	Normal         Regime = "normal"
	HighVolatility Regime = "high_volatility"
	LowVolatility  Regime = "low_volatility" // ranging market, weak ADX
	NewsWindow     Regime = "news_window"
	Trending       Regime = "trending"
)

// Thresholds drive regime classification. Passed explicitly so concurrent
// runs with different settings cannot interfere.
type Thresholds struct {
	// HighVolVIX: VIX above this is HighVolatility regardless of trend.
	HighVolVIX float64 `yaml:"high_vol_vix"`
	// TrendingADX: ADX at or above this marks a trending market.
	TrendingADX float64 `yaml:"trending_adx"`
	// RangingADX: ADX at or below this marks a ranging market.
	RangingADX float64 `yaml:"ranging_adx"`
}

// DefaultThresholds returns the production regime thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighVolVIX:  25,
		TrendingADX: 25,
		RangingADX:  20,
	}
}

// Detect classifies the current market state. The tie-break order is fixed
// and significant:
//
//	HighVolatility > NewsWindow > Trending/Ranging > Normal
//
// A market with VIX above the high-vol threshold is HighVolatility even
// inside a news window; news proximity outranks trend classification but
// nothing else. ADX strictly between the ranging and trending thresholds
// maps to Normal.
func Detect(vix, adx float64, newsWithinWindow bool, th Thresholds) Regime {
	if vix > th.HighVolVIX {
		return HighVolatility
	}
	if newsWithinWindow {
		return NewsWindow
	}
	if adx >= th.TrendingADX {
		return Trending
	}
	if adx <= th.RangingADX {
		return LowVolatility
	}
	return Normal
}

// Describe returns a short human-readable regime summary for logs and the
// decision path.
func Describe(r Regime) string {
	switch r {
	case HighVolatility:
		return "high volatility - trend models prioritized, mean reversion cut"
	case LowVolatility:
		return "ranging market - mean reversion prioritized"
	case NewsWindow:
		return "news window - sentiment models override"
	case Trending:
		return "trending market - momentum prioritized"
	case Normal:
		return "normal conditions - base weights"
	default:
		return fmt.Sprintf("unknown regime %q", string(r))
	}
}
