package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalmesh/advisor/internal/domain/regime"
	"github.com/signalmesh/advisor/internal/domain/risk"
	"github.com/signalmesh/advisor/internal/domain/signal"
	"github.com/signalmesh/advisor/internal/errs"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.25, cfg.Engine.BuyThreshold)
	assert.Equal(t, 30.0, cfg.Gates.MaxVIX)
	assert.Equal(t, 0.25, cfg.Weights["sentiment"])
	assert.Equal(t, "volatility", cfg.Risk.Sizing.Strategy)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.yaml")
	payload := []byte(`
engine:
  buy_threshold: 0.3
  source_timeout: 2s
gates:
  max_vix: 40
weights:
  sentiment: 0.5
  technical: 0.1
  momentum: 0.15
  mean_reversion: 0.2
risk:
  sizing:
    strategy: kelly
`)
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.Engine.BuyThreshold)
	assert.Equal(t, 2*time.Second, cfg.Engine.SourceTimeout)
	assert.Equal(t, 40.0, cfg.Gates.MaxVIX)
	assert.Equal(t, 0.5, cfg.Weights["sentiment"])
	assert.Equal(t, "kelly", cfg.Risk.Sizing.Strategy)
	// untouched fields keep their defaults
	assert.Equal(t, 0.3, cfg.Engine.DampeningFactor)
	assert.Equal(t, 2, cfg.Confirmation.MinOptional)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights: {}\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty weights", func(c *Config) { c.Weights = nil }},
		{"negative weight", func(c *Config) { c.Weights["momentum"] = -0.1 }},
		{"threshold zero", func(c *Config) { c.Engine.BuyThreshold = 0 }},
		{"threshold one", func(c *Config) { c.Engine.BuyThreshold = 1 }},
		{"dampening zero", func(c *Config) { c.Engine.DampeningFactor = 0 }},
		{"timeout zero", func(c *Config) { c.Engine.SourceTimeout = 0 }},
		{"max vix zero", func(c *Config) { c.Gates.MaxVIX = 0 }},
		{"bad stop multiplier", func(c *Config) {
			c.Risk.Stops["forex"] = risk.StopConfig{SLMultiplier: 0, TPMultiplier: 2.4}
		}},
		{"unknown sizing strategy", func(c *Config) { c.Risk.Sizing.Strategy = "martingale" }},
		{"negative min optional", func(c *Config) { c.Confirmation.MinOptional = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errs.IsConfig(err), "expected a configuration error, got %v", err)
		})
	}
}

func TestDomainTableConversion(t *testing.T) {
	cfg := Default()

	weights := cfg.WeightTable()
	assert.Equal(t, regime.DefaultWeightTable(), weights)

	mults := cfg.MultiplierTable()
	assert.Equal(t, 1.5, mults[regime.Trending][signal.CategoryMomentum])
	assert.Equal(t, 2.0, mults[regime.NewsWindow][signal.CategorySentiment])
}

func TestStopConfigLookup(t *testing.T) {
	cfg := Default()

	stop, err := cfg.StopConfig(risk.AssetCrypto)
	require.NoError(t, err)
	assert.Equal(t, 1.5, stop.SLMultiplier)

	_, err = cfg.StopConfig(risk.AssetClass("bonds"))
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestCalendarSelection(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.Calendar(risk.AssetCrypto).Sessions)
	assert.NotEqual(t, cfg.Calendar(risk.AssetForex), cfg.Calendar(risk.AssetCrypto))
}
