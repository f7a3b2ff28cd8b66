package risk

import (
	"github.com/signalmesh/advisor/internal/errs"
)

// SizingConfig selects and parameterizes the position-sizing strategy.
type SizingConfig struct {
	// Strategy is one of "fixed", "volatility", "kelly". Anything else is
	// a configuration error, not a silent fallback.
	Strategy string `yaml:"strategy"`

	FixedPct      float64 `yaml:"fixed_pct"`       // fixed: share of capital
	RiskPct       float64 `yaml:"risk_pct"`        // volatility: risk per trade
	ATRMultiplier float64 `yaml:"atr_multiplier"`  // volatility: stop distance in ATRs
	KellyFraction float64 `yaml:"kelly_fraction"`  // kelly: fractional Kelly
	MaxCapitalPct float64 `yaml:"max_capital_pct"` // hard cap on position share
}

// DefaultSizingConfig returns volatility-based sizing with a half-Kelly
// fallback configuration.
func DefaultSizingConfig() SizingConfig {
	return SizingConfig{
		Strategy:      "volatility",
		FixedPct:      0.02,
		RiskPct:       0.02,
		ATRMultiplier: 2.0,
		KellyFraction: 0.5,
		MaxCapitalPct: 0.5,
	}
}

// SizingInput carries the portfolio and market state a sizer needs.
type SizingInput struct {
	Capital float64
	ATR     float64
	Price   float64
	// Historical stats for the Kelly strategy.
	WinRate float64
	AvgWin  float64
	AvgLoss float64
}

// Sizer computes a position value from portfolio state.
type Sizer interface {
	Name() string
	Size(in SizingInput) (float64, error)
}

// NewSizer resolves a sizing strategy by name. Unknown names are a
// configuration error.
func NewSizer(cfg SizingConfig) (Sizer, error) {
	switch cfg.Strategy {
	case "fixed":
		return fixedSizer{cfg: cfg}, nil
	case "volatility":
		return volatilitySizer{cfg: cfg}, nil
	case "kelly":
		return kellySizer{cfg: cfg}, nil
	default:
		return nil, errs.Config("risk.sizing.strategy", "unknown strategy %q", cfg.Strategy)
	}
}

type fixedSizer struct{ cfg SizingConfig }

func (s fixedSizer) Name() string { return "fixed" }

// Size risks a constant share of capital per trade.
func (s fixedSizer) Size(in SizingInput) (float64, error) {
	if in.Capital <= 0 {
		return 0, errs.Config("risk.sizing.capital", "capital must be positive, got %v", in.Capital)
	}
	return in.Capital * s.cfg.FixedPct, nil
}

type volatilitySizer struct{ cfg SizingConfig }

func (s volatilitySizer) Name() string { return "volatility" }

// Size shrinks the position as volatility grows:
// (capital × riskPct) / (atr/price × atrMultiplier), capped at
// MaxCapitalPct of capital.
func (s volatilitySizer) Size(in SizingInput) (float64, error) {
	if in.Capital <= 0 {
		return 0, errs.Config("risk.sizing.capital", "capital must be positive, got %v", in.Capital)
	}
	if in.ATR <= 0 || in.Price <= 0 {
		return 0, errs.Config("risk.sizing.volatility",
			"ATR and price must be positive, got atr=%v price=%v", in.ATR, in.Price)
	}

	stopDistancePct := in.ATR / in.Price * s.cfg.ATRMultiplier
	value := in.Capital * s.cfg.RiskPct / stopDistancePct

	if limit := in.Capital * s.cfg.MaxCapitalPct; value > limit {
		value = limit
	}
	return value, nil
}

type kellySizer struct{ cfg SizingConfig }

func (s kellySizer) Name() string { return "kelly" }

// Size applies fractional Kelly: f* = (p·b − q) / b with b the win/loss
// odds. Kelly is clamped to [0, 1] so a negative edge sizes to zero and
// no input can demand over-leverage; the fraction (default 0.5) then
// scales it down further.
func (s kellySizer) Size(in SizingInput) (float64, error) {
	if in.Capital <= 0 {
		return 0, errs.Config("risk.sizing.capital", "capital must be positive, got %v", in.Capital)
	}
	if in.AvgLoss <= 0 {
		return 0, errs.Config("risk.sizing.kelly", "average loss must be positive, got %v", in.AvgLoss)
	}
	if in.WinRate < 0 || in.WinRate > 1 {
		return 0, errs.Config("risk.sizing.kelly", "win rate must be in [0,1], got %v", in.WinRate)
	}

	b := in.AvgWin / in.AvgLoss
	if b <= 0 {
		return 0, errs.Config("risk.sizing.kelly", "average win must be positive, got %v", in.AvgWin)
	}

	kelly := (in.WinRate*b - (1 - in.WinRate)) / b
	if kelly < 0 {
		kelly = 0
	}
	if kelly > 1 {
		kelly = 1
	}

	value := in.Capital * kelly * s.cfg.KellyFraction
	if limit := in.Capital * s.cfg.MaxCapitalPct; value > limit {
		value = limit
	}
	return value, nil
}
