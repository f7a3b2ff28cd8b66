package mtf

import (
	"fmt"

	"github.com/signalmesh/advisor/internal/domain/signal"
)

// Timeframe identifies one of the analysis horizons.
type Timeframe string

const (
	TF1H Timeframe = "1h"
	TF4H Timeframe = "4h"
	TF1D Timeframe = "1d"
)

// TrendDirection is the trend reading on a single timeframe.
type TrendDirection string

const (
	TrendUp       TrendDirection = "up"
	TrendDown     TrendDirection = "down"
	TrendSideways TrendDirection = "sideways"
)

// TimeframeTrend is one timeframe's trend with its strength in [0, 1].
type TimeframeTrend struct {
	Timeframe Timeframe      `json:"timeframe"`
	Direction TrendDirection `json:"direction"`
	Strength  float64        `json:"strength"`
}

// Alignment classifies the agreement between the 1h signal direction and
// the three timeframe trends.
type Alignment string

const (
	AlignPerfect  Alignment = "perfect"
	AlignGood     Alignment = "good"
	AlignConflict Alignment = "conflict"
	AlignMixed    Alignment = "mixed"
)

// Modifier is the multiplicative adjustment derived from an alignment
// class. Confidence feeds into the final recommendation confidence.
type Modifier struct {
	Alignment  Alignment `json:"alignment"`
	Multiplier float64   `json:"multiplier"`
	Confidence float64   `json:"confidence"`
}

// Detail returns a one-line summary for the decision path.
func (m Modifier) Detail() string {
	return fmt.Sprintf("%s alignment: multiplier %.1f, confidence %.2f",
		m.Alignment, m.Multiplier, m.Confidence)
}

// Classify maps the timeframe trends and the 1h signal direction onto
// exactly one alignment class. Precedence is fixed:
//
//	Perfect  - all 3 timeframes agree with the signal direction (×1.3)
//	Good     - exactly 2 of 3 agree (×1.1)
//	Conflict - 2 or more timeframes directly oppose the signal (×0.3)
//	Mixed    - none of the above, sideways dominant (×0.7)
//
// The classes are exhaustive and mutually exclusive for every combination
// of trend directions. A Hold signal direction always classifies as Mixed
// since there is nothing to align with.
func Classify(trends []TimeframeTrend, dir signal.Direction) Modifier {
	if dir == signal.Hold {
		return modifierFor(AlignMixed)
	}

	agree := trendFor(dir)
	oppose := trendFor(dir.Opposite())

	agreeing, opposing := 0, 0
	for _, t := range trends {
		switch t.Direction {
		case agree:
			agreeing++
		case oppose:
			opposing++
		}
	}

	switch {
	case agreeing == len(trends) && len(trends) > 0:
		return modifierFor(AlignPerfect)
	case agreeing == 2:
		return modifierFor(AlignGood)
	case opposing >= 2:
		return modifierFor(AlignConflict)
	default:
		return modifierFor(AlignMixed)
	}
}

func modifierFor(a Alignment) Modifier {
	switch a {
	case AlignPerfect:
		return Modifier{Alignment: AlignPerfect, Multiplier: 1.3, Confidence: 0.90}
	case AlignGood:
		return Modifier{Alignment: AlignGood, Multiplier: 1.1, Confidence: 0.70}
	case AlignConflict:
		return Modifier{Alignment: AlignConflict, Multiplier: 0.3, Confidence: 0.30}
	default:
		return Modifier{Alignment: AlignMixed, Multiplier: 0.7, Confidence: 0.50}
	}
}

// trendFor maps a trade direction onto the trend direction that agrees
// with it.
func trendFor(d signal.Direction) TrendDirection {
	if d == signal.Long {
		return TrendUp
	}
	return TrendDown
}

// TrendDirectionFor exposes the same mapping for callers that compare a
// combined score's direction against a trend reading.
func TrendDirectionFor(d signal.Direction) TrendDirection {
	return trendFor(d)
}

// DirectionFor maps a trend reading onto a trade direction; sideways maps
// to Hold.
func DirectionFor(t TrendDirection) signal.Direction {
	switch t {
	case TrendUp:
		return signal.Long
	case TrendDown:
		return signal.Short
	default:
		return signal.Hold
	}
}
