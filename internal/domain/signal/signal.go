package signal

// Category groups signal sources for base-weight lookup. The weight table is
// keyed by category, not by individual source, so new sources inherit a
// sensible weight without a config change.
type Category string

const (
	CategorySentiment     Category = "sentiment"
	CategoryTechnical     Category = "technical"
	CategoryMomentum      Category = "momentum"
	CategoryMeanReversion Category = "mean_reversion"
)

// Direction is a trade direction decision.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
	Hold  Direction = "HOLD"
)

// Opposite returns the opposing trade direction. Hold has no opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return Hold
	}
}

// Signal is one source's view of the market, immutable once produced.
// Score is directional in [-1, 1], Confidence in [0, 1]. Weight is the
// effective (regime-adjusted) weight; zero weight removes the signal from
// the combination without hiding that it was consulted.
type Signal struct {
	SourceID    string   `json:"sourceId"`
	Category    Category `json:"category"`
	Score       float64  `json:"score"`
	Confidence  float64  `json:"confidence"`
	Weight      float64  `json:"weight"`
	Unavailable bool     `json:"unavailable,omitempty"`
	Detail      string   `json:"detail,omitempty"`
}

// WithWeight returns a copy with the effective weight set. Signals stay
// immutable; weight adjustment always produces a new value.
func (s Signal) WithWeight(w float64) Signal {
	if w < 0 {
		w = 0
	}
	s.Weight = w
	return s
}

// ActionForScore maps a combined score onto a direction using a symmetric
// neutral band around zero.
func ActionForScore(score, buyThreshold float64) Direction {
	switch {
	case score > buyThreshold:
		return Long
	case score < -buyThreshold:
		return Short
	default:
		return Hold
	}
}
