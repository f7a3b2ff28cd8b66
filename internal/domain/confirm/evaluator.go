package confirm

import (
	"fmt"

	"github.com/signalmesh/advisor/internal/domain/mtf"
	"github.com/signalmesh/advisor/internal/domain/signal"
)

// Config carries the confirmation thresholds.
type Config struct {
	// MinOptional is how many optional conditions must hold on top of all
	// required ones.
	MinOptional int `yaml:"min_optional"`

	RSIOverbought float64 `yaml:"rsi_overbought"`
	RSIOversold   float64 `yaml:"rsi_oversold"`

	// MinTrendADX is the trend-strength floor for the optional ADX check.
	MinTrendADX float64 `yaml:"min_trend_adx"`

	// SentimentOpposeLimit blocks entry when aggregate sentiment opposes
	// the candidate direction by more than this.
	SentimentOpposeLimit float64 `yaml:"sentiment_oppose_limit"`
}

// DefaultConfig returns the production confirmation settings.
func DefaultConfig() Config {
	return Config{
		MinOptional:          2,
		RSIOverbought:        70,
		RSIOversold:          30,
		MinTrendADX:          20,
		SentimentOpposeLimit: 0.3,
	}
}

// State is the evaluated indicator snapshot a checklist runs against.
type State struct {
	Price     float64
	VWAP      float64
	RSI       float64
	ADX       float64
	Sentiment float64 // aggregate sentiment score in [-1, 1]
	Trend1H   mtf.TrendDirection
	Trend4H   mtf.TrendDirection
	SessionOK bool
}

// Check is one evaluated condition. Every condition's outcome is recorded,
// met or not, so the audit trail shows the full checklist.
type Check struct {
	Name      string `json:"name"`
	Required  bool   `json:"required"`
	Satisfied bool   `json:"satisfied"`
	Detail    string `json:"detail"`
}

// Result is the outcome of evaluating the checklist for one direction.
type Result struct {
	Confirmed  bool
	Direction  signal.Direction
	Checks     []Check
	Achieved   int // satisfied conditions, required and optional
	Total      int
	Confidence float64 // Achieved / Total
}

// Confirmations lists the names of satisfied conditions.
func (r Result) Confirmations() []string {
	return r.names(true)
}

// Missing lists the names of unsatisfied conditions.
func (r Result) Missing() []string {
	return r.names(false)
}

func (r Result) names(satisfied bool) []string {
	out := []string{}
	for _, c := range r.Checks {
		if c.Satisfied == satisfied {
			out = append(out, c.Name)
		}
	}
	return out
}

// condition is a named predicate over State. The required tag is fixed at
// definition time, not looked up at evaluation time.
type condition struct {
	name     string
	required bool
	check    func(State) (bool, string)
}

// Evaluator runs the fixed per-direction checklists.
type Evaluator struct {
	cfg Config
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate runs the checklist for the candidate direction. Entry is
// confirmed iff every required condition holds and at least
// cfg.MinOptional optional conditions hold. Confidence is the satisfied
// share of the whole checklist regardless of pass/fail.
func (e *Evaluator) Evaluate(dir signal.Direction, st State) Result {
	if dir == signal.Hold {
		return Result{Direction: signal.Hold}
	}

	conditions := e.checklist(dir)
	result := Result{
		Direction: dir,
		Checks:    make([]Check, 0, len(conditions)),
		Total:     len(conditions),
	}

	requiredOK := true
	optionalMet := 0
	for _, c := range conditions {
		ok, detail := c.check(st)
		result.Checks = append(result.Checks, Check{
			Name:      c.name,
			Required:  c.required,
			Satisfied: ok,
			Detail:    detail,
		})
		if ok {
			result.Achieved++
			if !c.required {
				optionalMet++
			}
		} else if c.required {
			requiredOK = false
		}
	}

	result.Confirmed = requiredOK && optionalMet >= e.cfg.MinOptional
	if result.Total > 0 {
		result.Confidence = float64(result.Achieved) / float64(result.Total)
	}
	return result
}

// Best evaluates both directions and returns the stronger result: a
// confirmed one over an unconfirmed one, higher confidence breaking ties.
func (e *Evaluator) Best(st State) Result {
	long := e.Evaluate(signal.Long, st)
	short := e.Evaluate(signal.Short, st)

	switch {
	case long.Confirmed && !short.Confirmed:
		return long
	case short.Confirmed && !long.Confirmed:
		return short
	case long.Confidence >= short.Confidence:
		return long
	default:
		return short
	}
}

// checklist returns the fixed, ordered condition list for a direction.
// Four required conditions, three optional.
func (e *Evaluator) checklist(dir signal.Direction) []condition {
	cfg := e.cfg
	opposite := mtf.TrendDirectionFor(dir.Opposite())
	aligned := mtf.TrendDirectionFor(dir)

	return []condition{
		{
			name:     "htf_trend_aligned",
			required: true,
			check: func(st State) (bool, string) {
				if st.Trend4H == opposite {
					return false, fmt.Sprintf("4h trend %s opposes %s entry", st.Trend4H, dir)
				}
				return true, fmt.Sprintf("4h trend %s does not oppose %s entry", st.Trend4H, dir)
			},
		},
		{
			name:     "price_vs_vwap",
			required: true,
			check: func(st State) (bool, string) {
				if dir == signal.Long {
					if st.Price > st.VWAP {
						return true, fmt.Sprintf("price %.5f above VWAP %.5f", st.Price, st.VWAP)
					}
					return false, fmt.Sprintf("price %.5f not above VWAP %.5f", st.Price, st.VWAP)
				}
				if st.Price < st.VWAP {
					return true, fmt.Sprintf("price %.5f below VWAP %.5f", st.Price, st.VWAP)
				}
				return false, fmt.Sprintf("price %.5f not below VWAP %.5f", st.Price, st.VWAP)
			},
		},
		{
			name:     "session_window",
			required: true,
			check: func(st State) (bool, string) {
				if st.SessionOK {
					return true, "inside a tradable session window"
				}
				return false, "outside tradable session windows"
			},
		},
		{
			name:     "sentiment_gate",
			required: true,
			check: func(st State) (bool, string) {
				opposing := -st.Sentiment
				if dir == signal.Short {
					opposing = st.Sentiment
				}
				if opposing > cfg.SentimentOpposeLimit {
					return false, fmt.Sprintf("sentiment %.2f opposes %s beyond limit %.2f",
						st.Sentiment, dir, cfg.SentimentOpposeLimit)
				}
				return true, fmt.Sprintf("sentiment %.2f within limit for %s", st.Sentiment, dir)
			},
		},
		{
			name:     "rsi_not_extreme",
			required: false,
			check: func(st State) (bool, string) {
				if dir == signal.Long {
					if st.RSI < cfg.RSIOverbought {
						return true, fmt.Sprintf("RSI %.1f below overbought %.0f", st.RSI, cfg.RSIOverbought)
					}
					return false, fmt.Sprintf("RSI %.1f overbought", st.RSI)
				}
				if st.RSI > cfg.RSIOversold {
					return true, fmt.Sprintf("RSI %.1f above oversold %.0f", st.RSI, cfg.RSIOversold)
				}
				return false, fmt.Sprintf("RSI %.1f oversold", st.RSI)
			},
		},
		{
			name:     "trend_strength",
			required: false,
			check: func(st State) (bool, string) {
				if st.ADX > cfg.MinTrendADX {
					return true, fmt.Sprintf("ADX %.1f shows trend presence", st.ADX)
				}
				return false, fmt.Sprintf("ADX %.1f below trend floor %.0f", st.ADX, cfg.MinTrendADX)
			},
		},
		{
			name:     "ltf_trend_aligned",
			required: false,
			check: func(st State) (bool, string) {
				if st.Trend1H == aligned {
					return true, fmt.Sprintf("1h trend %s agrees with %s entry", st.Trend1H, dir)
				}
				return false, fmt.Sprintf("1h trend %s does not agree with %s entry", st.Trend1H, dir)
			},
		},
	}
}
