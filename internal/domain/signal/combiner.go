package signal

import (
	"fmt"
	"math"
)

// CombineConfig carries the combiner knobs. Both values are explicit
// configuration so concurrent runs with different settings cannot interfere.
type CombineConfig struct {
	// BuyThreshold is the symmetric neutral band: score > threshold is Long,
	// score < -threshold is Short, anything between is Hold.
	BuyThreshold float64 `yaml:"buy_threshold"`

	// DampeningFactor multiplies the score when the directional indicators
	// disagree with it (see Combine).
	DampeningFactor float64 `yaml:"dampening_factor"`
}

// DefaultCombineConfig returns the production combiner settings.
func DefaultCombineConfig() CombineConfig {
	return CombineConfig{
		BuyThreshold:    0.25,
		DampeningFactor: 0.3,
	}
}

// Contribution records one signal's share of the combined score, kept for
// the audit trail.
type Contribution struct {
	SourceID     string  `json:"sourceId"`
	Score        float64 `json:"score"`
	Confidence   float64 `json:"confidence"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Combined is the result of reducing a signal set to a single score.
type Combined struct {
	Score         float64        // after dampening
	RawScore      float64        // before dampening
	Action        Direction      // derived from Score and BuyThreshold
	TotalWeight   float64        // Σweight over available signals
	Dampened      bool           // directional conflict dampening applied
	DampenDetail  string         // human-readable conflict description
	Degenerate    bool           // Σweight == 0, action forced to Hold
	Contributions []Contribution // per-signal breakdown, arrival order
	Unavailable   []string       // source IDs excluded as unavailable
}

// Combine reduces a weight-adjusted signal set to one score and a direction.
//
// score = Σ(score × weight × confidence) / Σweight. A zero total weight is a
// degenerate input: the action is forced to Hold rather than dividing by
// zero. Unavailable signals contribute nothing but are listed so the caller
// can record that they were consulted.
//
// After the base score, directional-conflict dampening applies: when at
// least two of the supplied directional indicators point against the score's
// sign, the score is multiplied by cfg.DampeningFactor. The conflict is
// reported in DampenDetail for the decision path.
func Combine(signals []Signal, directional []Direction, cfg CombineConfig) Combined {
	out := Combined{Contributions: make([]Contribution, 0, len(signals))}

	var weightedSum float64
	for _, s := range signals {
		if s.Unavailable {
			out.Unavailable = append(out.Unavailable, s.SourceID)
			continue
		}
		contrib := s.Score * s.Weight * s.Confidence
		weightedSum += contrib
		out.TotalWeight += s.Weight
		out.Contributions = append(out.Contributions, Contribution{
			SourceID:     s.SourceID,
			Score:        s.Score,
			Confidence:   s.Confidence,
			Weight:       s.Weight,
			Contribution: contrib,
		})
	}

	if out.TotalWeight == 0 {
		out.Degenerate = true
		out.Action = Hold
		return out
	}

	out.RawScore = weightedSum / out.TotalWeight
	out.Score = out.RawScore

	if against, opposing := conflictCount(out.RawScore, directional); against >= 2 {
		out.Score = out.RawScore * cfg.DampeningFactor
		out.Dampened = true
		out.DampenDetail = fmt.Sprintf(
			"%d directional indicators point %s against score %.4f, dampened to %.4f",
			against, opposing, out.RawScore, out.Score)
	}

	out.Action = ActionForScore(out.Score, cfg.BuyThreshold)
	return out
}

// conflictCount counts directional indicators opposing the score's sign.
func conflictCount(score float64, directional []Direction) (int, Direction) {
	if score == 0 {
		return 0, Hold
	}
	opposing := Long
	if score > 0 {
		opposing = Short
	}
	n := 0
	for _, d := range directional {
		if d == opposing {
			n++
		}
	}
	return n, opposing
}

// Strength expresses the combined score as 0-100 signal strength.
func (c Combined) Strength() float64 {
	return math.Min(math.Abs(c.Score), 1.0) * 100
}
