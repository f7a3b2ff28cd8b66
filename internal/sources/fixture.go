package sources

import (
	"context"

	"github.com/signalmesh/advisor/internal/domain/signal"
)

// StaticSource serves a fixed signal. Used for offline runs and tests.
type StaticSource struct {
	SID  string
	Cat  signal.Category
	Sig  signal.Signal
	Err  error
}

func (s *StaticSource) ID() string                { return s.SID }
func (s *StaticSource) Category() signal.Category { return s.Cat }

func (s *StaticSource) Fetch(ctx context.Context, asset string) (signal.Signal, error) {
	select {
	case <-ctx.Done():
		return signal.Signal{}, ctx.Err()
	default:
	}
	if s.Err != nil {
		return signal.Signal{}, s.Err
	}
	return s.Sig, nil
}

// FixtureSet returns a deterministic, mildly bullish set of sources
// spanning every category. It backs the offline CLI mode.
func FixtureSet() []Source {
	return []Source{
		&StaticSource{SID: "finbert", Cat: signal.CategorySentiment,
			Sig: signal.Signal{Score: 0.55, Confidence: 0.85, Detail: "news tone positive"}},
		&StaticSource{SID: "cryptobert", Cat: signal.CategorySentiment,
			Sig: signal.Signal{Score: 0.40, Confidence: 0.75, Detail: "social tone mildly positive"}},
		&StaticSource{SID: "ta_composite", Cat: signal.CategoryTechnical,
			Sig: signal.Signal{Score: 0.30, Confidence: 0.70, Detail: "EMA stack up, RSI 58"}},
		&StaticSource{SID: "momentum_4h", Cat: signal.CategoryMomentum,
			Sig: signal.Signal{Score: 0.45, Confidence: 0.80, Detail: "4h momentum positive"}},
		&StaticSource{SID: "meanrev_band", Cat: signal.CategoryMeanReversion,
			Sig: signal.Signal{Score: -0.10, Confidence: 0.60, Detail: "slightly stretched above VWAP"}},
	}
}
