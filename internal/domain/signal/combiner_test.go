package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombine_WeightedAverage(t *testing.T) {
	signals := []Signal{
		{SourceID: "finbert", Category: CategorySentiment, Score: 0.7, Confidence: 0.85, Weight: 0.25},
		{SourceID: "cryptobert", Category: CategorySentiment, Score: 0.5, Confidence: 0.75, Weight: 0.20},
		{SourceID: "mean_reversion", Category: CategoryMeanReversion, Score: -0.3, Confidence: 0.60, Weight: 0.20},
		{SourceID: "technical", Category: CategoryTechnical, Score: 0.4, Confidence: 0.70, Weight: 0.10},
	}

	result := Combine(signals, nil, DefaultCombineConfig())

	// Σ(score×weight×confidence) / Σweight
	expected := (0.7*0.25*0.85 + 0.5*0.20*0.75 + -0.3*0.20*0.60 + 0.4*0.10*0.70) / 0.75
	assert.InDelta(t, expected, result.Score, 1e-9)
	assert.False(t, result.Degenerate)
	assert.Len(t, result.Contributions, 4)
	assert.InDelta(t, 0.75, result.TotalWeight, 1e-9)
}

func TestCombine_ZeroTotalWeight_ForcesHold(t *testing.T) {
	tests := []struct {
		name    string
		signals []Signal
	}{
		{"no signals", nil},
		{"all zero weight", []Signal{
			{SourceID: "a", Score: 0.9, Confidence: 0.9, Weight: 0},
			{SourceID: "b", Score: 0.8, Confidence: 0.9, Weight: 0},
		}},
		{"all unavailable", []Signal{
			{SourceID: "a", Unavailable: true},
			{SourceID: "b", Unavailable: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Combine(tt.signals, nil, DefaultCombineConfig())
			assert.True(t, result.Degenerate)
			assert.Equal(t, Hold, result.Action)
			assert.Zero(t, result.Score)
		})
	}
}

func TestCombine_UnavailableSourcesRecorded(t *testing.T) {
	signals := []Signal{
		{SourceID: "finbert", Score: 0.8, Confidence: 0.9, Weight: 0.25},
		{SourceID: "cryptobert", Unavailable: true, Detail: "timeout after 2s"},
	}

	result := Combine(signals, nil, DefaultCombineConfig())

	require.Len(t, result.Unavailable, 1)
	assert.Equal(t, "cryptobert", result.Unavailable[0])
	assert.Len(t, result.Contributions, 1)
	assert.InDelta(t, 0.25, result.TotalWeight, 1e-9)
}

func TestCombine_DirectionalConflictDampening(t *testing.T) {
	signals := []Signal{
		{SourceID: "finbert", Score: 0.8, Confidence: 1.0, Weight: 0.5},
	}

	tests := []struct {
		name        string
		directional []Direction
		dampened    bool
	}{
		{"two opposing indicators dampen", []Direction{Short, Short}, true},
		{"one opposing indicator does not", []Direction{Short, Long}, false},
		{"agreeing indicators do not", []Direction{Long, Long}, false},
		{"no indicators", nil, false},
	}

	cfg := DefaultCombineConfig()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Combine(signals, tt.directional, cfg)
			assert.Equal(t, tt.dampened, result.Dampened)
			if tt.dampened {
				assert.InDelta(t, result.RawScore*cfg.DampeningFactor, result.Score, 1e-9)
				assert.NotEmpty(t, result.DampenDetail)
			} else {
				assert.InDelta(t, result.RawScore, result.Score, 1e-9)
			}
		})
	}
}

func TestCombine_ActionThresholds(t *testing.T) {
	cfg := DefaultCombineConfig()

	tests := []struct {
		name   string
		score  float64
		action Direction
	}{
		{"above threshold is long", 0.4, Long},
		{"below negative threshold is short", -0.4, Short},
		{"inside neutral band is hold", 0.2, Hold},
		{"exactly at threshold is hold", 0.25, Hold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := []Signal{{SourceID: "s", Score: tt.score, Confidence: 1.0, Weight: 1.0}}
			result := Combine(signals, nil, cfg)
			assert.Equal(t, tt.action, result.Action)
		})
	}
}

func TestActionForScore_ConfigurableThreshold(t *testing.T) {
	// 0.28 sits between the default 0.25 and the looser 0.3 band.
	assert.Equal(t, Long, ActionForScore(0.28, 0.25))
	assert.Equal(t, Hold, ActionForScore(0.28, 0.3))
}

func TestSignal_WithWeight_ClampsNegative(t *testing.T) {
	s := Signal{SourceID: "x", Weight: 0.5}
	assert.Zero(t, s.WithWeight(-0.1).Weight)
	assert.InDelta(t, 0.3, s.WithWeight(0.3).Weight, 1e-9)
	// original untouched
	assert.InDelta(t, 0.5, s.Weight, 1e-9)
}

func TestDirection_Opposite(t *testing.T) {
	assert.Equal(t, Short, Long.Opposite())
	assert.Equal(t, Long, Short.Opposite())
	assert.Equal(t, Hold, Hold.Opposite())
}
