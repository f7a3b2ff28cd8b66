package risk

import (
	"github.com/signalmesh/advisor/internal/domain/signal"
	"github.com/signalmesh/advisor/internal/errs"
)

// AssetClass selects the stop/take-profit multiplier set.
type AssetClass string

const (
	AssetForex  AssetClass = "forex"
	AssetCrypto AssetClass = "crypto"
)

// StopConfig holds the ATR multipliers for one asset class.
type StopConfig struct {
	SLMultiplier float64 `yaml:"sl_multiplier"`
	TPMultiplier float64 `yaml:"tp_multiplier"`
}

// DefaultStopConfigs returns the per-asset-class multipliers. Crypto gets
// wider stops for its higher baseline volatility.
func DefaultStopConfigs() map[AssetClass]StopConfig {
	return map[AssetClass]StopConfig{
		AssetForex:  {SLMultiplier: 1.2, TPMultiplier: 2.4},
		AssetCrypto: {SLMultiplier: 1.5, TPMultiplier: 3.0},
	}
}

// Levels are the derived trade levels for a confirmed direction.
type Levels struct {
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stopLoss"`
	TakeProfit float64 `json:"takeProfit"`
	RiskReward float64 `json:"riskReward"`
}

// ComputeLevels derives stop-loss and take-profit from ATR distance.
// Distances scale with volatility: stop = entry − dir×atr×slMult,
// take-profit = entry + dir×atr×tpMult, with signs flipped for shorts.
// Non-positive ATR or entry is a configuration error, never defaulted.
func ComputeLevels(entry, atr float64, dir signal.Direction, cfg StopConfig) (Levels, error) {
	if atr <= 0 {
		return Levels{}, errs.Config("risk.atr", "ATR must be positive, got %v", atr)
	}
	if entry <= 0 {
		return Levels{}, errs.Config("risk.entry", "entry price must be positive, got %v", entry)
	}
	if cfg.SLMultiplier <= 0 || cfg.TPMultiplier <= 0 {
		return Levels{}, errs.Config("risk.multipliers",
			"multipliers must be positive, got sl=%v tp=%v", cfg.SLMultiplier, cfg.TPMultiplier)
	}

	slDistance := atr * cfg.SLMultiplier
	tpDistance := atr * cfg.TPMultiplier

	levels := Levels{
		Entry:      entry,
		RiskReward: cfg.TPMultiplier / cfg.SLMultiplier,
	}

	switch dir {
	case signal.Short:
		levels.StopLoss = entry + slDistance
		levels.TakeProfit = entry - tpDistance
	default:
		levels.StopLoss = entry - slDistance
		levels.TakeProfit = entry + tpDistance
	}
	return levels, nil
}
