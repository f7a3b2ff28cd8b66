package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalmesh/advisor/internal/domain/signal"
	"github.com/signalmesh/advisor/internal/errs"
)

func TestComputeLevels_Long(t *testing.T) {
	// ATR 0.02, entry 4.35, sl×1.2, tp×2.4.
	cfg := StopConfig{SLMultiplier: 1.2, TPMultiplier: 2.4}

	levels, err := ComputeLevels(4.35, 0.02, signal.Long, cfg)
	require.NoError(t, err)

	assert.InDelta(t, 4.326, levels.StopLoss, 1e-9)
	assert.InDelta(t, 4.398, levels.TakeProfit, 1e-9)
	assert.InDelta(t, 2.0, levels.RiskReward, 1e-9)
	assert.InDelta(t, 4.35, levels.Entry, 1e-9)
}

func TestComputeLevels_ShortFlipsSigns(t *testing.T) {
	cfg := StopConfig{SLMultiplier: 1.2, TPMultiplier: 2.4}

	levels, err := ComputeLevels(4.35, 0.02, signal.Short, cfg)
	require.NoError(t, err)

	assert.InDelta(t, 4.374, levels.StopLoss, 1e-9)
	assert.InDelta(t, 4.302, levels.TakeProfit, 1e-9)
	assert.InDelta(t, 2.0, levels.RiskReward, 1e-9)
}

func TestComputeLevels_InvalidInputs(t *testing.T) {
	cfg := DefaultStopConfigs()[AssetForex]

	tests := []struct {
		name  string
		entry float64
		atr   float64
	}{
		{"zero atr", 4.35, 0},
		{"negative atr", 4.35, -0.01},
		{"zero entry", 0, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeLevels(tt.entry, tt.atr, signal.Long, cfg)
			require.Error(t, err)
			assert.True(t, errs.IsConfig(err), "expected a configuration error")
		})
	}
}

func TestNewSizer_UnknownStrategy(t *testing.T) {
	cfg := DefaultSizingConfig()
	cfg.Strategy = "martingale"

	_, err := NewSizer(cfg)
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
	assert.Contains(t, err.Error(), "martingale")
}

func TestFixedSizer(t *testing.T) {
	cfg := DefaultSizingConfig()
	cfg.Strategy = "fixed"
	sizer, err := NewSizer(cfg)
	require.NoError(t, err)
	assert.Equal(t, "fixed", sizer.Name())

	value, err := sizer.Size(SizingInput{Capital: 10000})
	require.NoError(t, err)
	assert.InDelta(t, 200, value, 1e-9)

	_, err = sizer.Size(SizingInput{Capital: 0})
	assert.True(t, errs.IsConfig(err))
}

func TestVolatilitySizer(t *testing.T) {
	cfg := DefaultSizingConfig()
	sizer, err := NewSizer(cfg)
	require.NoError(t, err)

	t.Run("scales inversely with volatility", func(t *testing.T) {
		calm, err := sizer.Size(SizingInput{Capital: 10000, ATR: 0.02, Price: 4.35})
		require.NoError(t, err)
		wild, err := sizer.Size(SizingInput{Capital: 10000, ATR: 0.10, Price: 4.35})
		require.NoError(t, err)
		assert.Greater(t, calm, wild)
	})

	t.Run("formula", func(t *testing.T) {
		value, err := sizer.Size(SizingInput{Capital: 10000, ATR: 0.10, Price: 4.35})
		require.NoError(t, err)
		expected := 10000 * 0.02 / (0.10 / 4.35 * 2.0)
		assert.InDelta(t, expected, value, 1e-6)
	})

	t.Run("capped at half capital", func(t *testing.T) {
		value, err := sizer.Size(SizingInput{Capital: 10000, ATR: 0.001, Price: 4.35})
		require.NoError(t, err)
		assert.InDelta(t, 5000, value, 1e-9)
	})

	t.Run("invalid atr", func(t *testing.T) {
		_, err := sizer.Size(SizingInput{Capital: 10000, ATR: 0, Price: 4.35})
		assert.True(t, errs.IsConfig(err))
	})
}

func TestKellySizer(t *testing.T) {
	cfg := DefaultSizingConfig()
	cfg.Strategy = "kelly"
	sizer, err := NewSizer(cfg)
	require.NoError(t, err)

	t.Run("half kelly with positive edge", func(t *testing.T) {
		value, err := sizer.Size(SizingInput{
			Capital: 10000, WinRate: 0.55, AvgWin: 100, AvgLoss: 80,
		})
		require.NoError(t, err)
		b := 100.0 / 80.0
		kelly := (0.55*b - 0.45) / b
		assert.InDelta(t, 10000*kelly*0.5, value, 1e-6)
	})

	t.Run("negative edge clamps to zero", func(t *testing.T) {
		value, err := sizer.Size(SizingInput{
			Capital: 10000, WinRate: 0.30, AvgWin: 50, AvgLoss: 100,
		})
		require.NoError(t, err)
		assert.Zero(t, value)
	})

	t.Run("extreme edge never over-leverages", func(t *testing.T) {
		value, err := sizer.Size(SizingInput{
			Capital: 10000, WinRate: 0.99, AvgWin: 1000, AvgLoss: 1,
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, value, 10000*cfg.MaxCapitalPct)
	})

	t.Run("invalid stats are configuration errors", func(t *testing.T) {
		_, err := sizer.Size(SizingInput{Capital: 10000, WinRate: 1.5, AvgWin: 10, AvgLoss: 10})
		assert.True(t, errs.IsConfig(err))

		_, err = sizer.Size(SizingInput{Capital: 10000, WinRate: 0.5, AvgWin: 10, AvgLoss: 0})
		assert.True(t, errs.IsConfig(err))
	})
}

func TestDefaultStopConfigs_AssetClasses(t *testing.T) {
	configs := DefaultStopConfigs()
	require.Contains(t, configs, AssetForex)
	require.Contains(t, configs, AssetCrypto)
	assert.Greater(t, configs[AssetCrypto].SLMultiplier, configs[AssetForex].SLMultiplier)
}
