package regime

import (
	"github.com/signalmesh/advisor/internal/domain/signal"
)

// WeightTable maps a source category to its base weight. Loaded once per
// run from immutable configuration and never shared mutably.
type WeightTable map[signal.Category]float64

// MultiplierTable maps a regime to per-category weight multipliers.
// Multipliers are multiplicative on the base weight, never additive.
type MultiplierTable map[Regime]map[signal.Category]float64

// DefaultWeightTable returns the base category weights.
func DefaultWeightTable() WeightTable {
	return WeightTable{
		signal.CategorySentiment:     0.25,
		signal.CategoryTechnical:     0.10,
		signal.CategoryMomentum:      0.15,
		signal.CategoryMeanReversion: 0.20,
	}
}

// DefaultMultiplierTable returns the regime-specific weight multipliers.
// Trend followers are boosted when the market trends or turns volatile,
// mean reversion is boosted when it ranges, and sentiment overrides
// everything inside a news window.
func DefaultMultiplierTable() MultiplierTable {
	return MultiplierTable{
		Trending: {
			signal.CategoryMomentum:      1.5,
			signal.CategoryMeanReversion: 0.3,
			signal.CategoryTechnical:     1.0,
			signal.CategorySentiment:     1.0,
		},
		HighVolatility: {
			signal.CategoryMomentum:      1.5,
			signal.CategoryMeanReversion: 0.3,
			signal.CategoryTechnical:     1.0,
			signal.CategorySentiment:     1.2,
		},
		LowVolatility: {
			signal.CategoryMomentum:      0.8,
			signal.CategoryMeanReversion: 1.5,
			signal.CategoryTechnical:     1.2,
			signal.CategorySentiment:     1.0,
		},
		NewsWindow: {
			signal.CategoryMomentum:      1.0,
			signal.CategoryMeanReversion: 0.5,
			signal.CategoryTechnical:     0.5,
			signal.CategorySentiment:     2.0,
		},
		Normal: {
			signal.CategoryMomentum:      1.0,
			signal.CategoryMeanReversion: 1.0,
			signal.CategoryTechnical:     1.0,
			signal.CategorySentiment:     1.0,
		},
	}
}

// AdjustWeights applies the regime's multipliers to the base table and
// returns a fresh table. Missing multipliers default to 1.0; an unknown
// regime falls back to Normal. Results are clamped at zero so a multiplier
// can silence a category but never invert it.
func AdjustWeights(base WeightTable, r Regime, multipliers MultiplierTable) WeightTable {
	regimeMult, ok := multipliers[r]
	if !ok {
		regimeMult = multipliers[Normal]
	}

	adjusted := make(WeightTable, len(base))
	for category, weight := range base {
		mult := 1.0
		if m, ok := regimeMult[category]; ok {
			mult = m
		}
		w := weight * mult
		if w < 0 {
			w = 0
		}
		adjusted[category] = w
	}
	return adjusted
}

// Apply sets each signal's effective weight from the adjusted table.
// Unavailable signals always get zero weight.
func Apply(signals []signal.Signal, adjusted WeightTable) []signal.Signal {
	out := make([]signal.Signal, len(signals))
	for i, s := range signals {
		if s.Unavailable {
			out[i] = s.WithWeight(0)
			continue
		}
		out[i] = s.WithWeight(adjusted[s.Category])
	}
	return out
}
