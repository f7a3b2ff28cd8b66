// Package config loads and validates the immutable per-run configuration.
// A Config is loaded once, validated, and then passed by value into the
// pipeline; concurrent runs with different configurations never share
// mutable state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalmesh/advisor/internal/domain/confirm"
	"github.com/signalmesh/advisor/internal/domain/market"
	"github.com/signalmesh/advisor/internal/domain/regime"
	"github.com/signalmesh/advisor/internal/domain/risk"
	"github.com/signalmesh/advisor/internal/domain/signal"
	"github.com/signalmesh/advisor/internal/errs"
	"github.com/signalmesh/advisor/internal/risktrack"
)

// Config is the full advisor configuration.
type Config struct {
	Engine       EngineConfig                      `yaml:"engine"`
	Regime       RegimeConfig                      `yaml:"regime"`
	Weights      map[string]float64                `yaml:"weights"`
	Gates        GatesConfig                       `yaml:"gates"`
	Confirmation confirm.Config                    `yaml:"confirmation"`
	Risk         RiskConfig                        `yaml:"risk"`
	Sessions     SessionsConfig                    `yaml:"sessions"`
}

// EngineConfig holds the combiner and orchestration knobs.
type EngineConfig struct {
	// BuyThreshold is the neutral band for the combined score. The source
	// documentation wavered between 0.25 and 0.3; this is the single
	// configurable knob that settles it.
	BuyThreshold    float64       `yaml:"buy_threshold"`
	DampeningFactor float64       `yaml:"dampening_factor"`
	SourceTimeout   time.Duration `yaml:"source_timeout"`
}

// RegimeConfig holds detection thresholds and per-regime weight
// multipliers keyed by regime then category.
type RegimeConfig struct {
	Thresholds  regime.Thresholds             `yaml:"thresholds"`
	Multipliers map[string]map[string]float64 `yaml:"multipliers"`
}

// GatesConfig holds the veto-stage thresholds.
type GatesConfig struct {
	MaxVIX    float64          `yaml:"max_vix"`
	Avoidance market.Avoidance `yaml:"avoidance"`
}

// RiskConfig holds stop/take-profit multipliers per asset class, the
// sizing strategy, and the shared risk limits.
type RiskConfig struct {
	Stops   map[string]risk.StopConfig `yaml:"stops"`
	Sizing  risk.SizingConfig          `yaml:"sizing"`
	Limits  risktrack.Limits           `yaml:"limits"`
	Capital float64                    `yaml:"capital"`
}

// SessionsConfig holds the per-market session calendars.
type SessionsConfig struct {
	Forex  market.Calendar `yaml:"forex"`
	Crypto market.Calendar `yaml:"crypto"`
}

// Default returns the production configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			BuyThreshold:    0.25,
			DampeningFactor: 0.3,
			SourceTimeout:   5 * time.Second,
		},
		Regime: RegimeConfig{
			Thresholds:  regime.DefaultThresholds(),
			Multipliers: multipliersToYAML(regime.DefaultMultiplierTable()),
		},
		Weights: weightsToYAML(regime.DefaultWeightTable()),
		Gates: GatesConfig{
			MaxVIX:    30,
			Avoidance: market.DefaultAvoidance(),
		},
		Confirmation: confirm.DefaultConfig(),
		Risk: RiskConfig{
			Stops: map[string]risk.StopConfig{
				string(risk.AssetForex):  risk.DefaultStopConfigs()[risk.AssetForex],
				string(risk.AssetCrypto): risk.DefaultStopConfigs()[risk.AssetCrypto],
			},
			Sizing:  risk.DefaultSizingConfig(),
			Limits:  risktrack.DefaultLimits(),
			Capital: 10000,
		},
		Sessions: SessionsConfig{
			Forex:  market.DefaultForexCalendar(),
			Crypto: market.DefaultCryptoCalendar(),
		},
	}
}

// Load reads, parses, and validates a YAML configuration file. Fields
// absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for fatal problems. Violations are
// configuration errors, surfaced to the caller, never silently repaired.
func (c *Config) Validate() error {
	if len(c.Weights) == 0 {
		return errs.Config("weights", "weight table must not be empty")
	}
	for category, w := range c.Weights {
		if w < 0 {
			return errs.Config("weights", "weight for %q must not be negative, got %v", category, w)
		}
	}

	if c.Engine.BuyThreshold <= 0 || c.Engine.BuyThreshold >= 1 {
		return errs.Config("engine.buy_threshold", "must be in (0, 1), got %v", c.Engine.BuyThreshold)
	}
	if c.Engine.DampeningFactor <= 0 || c.Engine.DampeningFactor > 1 {
		return errs.Config("engine.dampening_factor", "must be in (0, 1], got %v", c.Engine.DampeningFactor)
	}
	if c.Engine.SourceTimeout <= 0 {
		return errs.Config("engine.source_timeout", "must be positive, got %v", c.Engine.SourceTimeout)
	}

	if c.Gates.MaxVIX <= 0 {
		return errs.Config("gates.max_vix", "must be positive, got %v", c.Gates.MaxVIX)
	}

	for class, stop := range c.Risk.Stops {
		if stop.SLMultiplier <= 0 || stop.TPMultiplier <= 0 {
			return errs.Config("risk.stops", "%s multipliers must be positive", class)
		}
	}

	// Resolving the sizer verifies the strategy name.
	if _, err := risk.NewSizer(c.Risk.Sizing); err != nil {
		return err
	}

	if c.Confirmation.MinOptional < 0 {
		return errs.Config("confirmation.min_optional", "must not be negative, got %d", c.Confirmation.MinOptional)
	}
	return nil
}

// CombineConfig adapts the engine settings for the signal combiner.
func (c *Config) CombineConfig() signal.CombineConfig {
	return signal.CombineConfig{
		BuyThreshold:    c.Engine.BuyThreshold,
		DampeningFactor: c.Engine.DampeningFactor,
	}
}

// WeightTable converts the YAML weight map into the domain table.
func (c *Config) WeightTable() regime.WeightTable {
	table := make(regime.WeightTable, len(c.Weights))
	for category, w := range c.Weights {
		table[signal.Category(category)] = w
	}
	return table
}

// MultiplierTable converts the YAML multiplier map into the domain table.
func (c *Config) MultiplierTable() regime.MultiplierTable {
	table := make(regime.MultiplierTable, len(c.Regime.Multipliers))
	for r, categories := range c.Regime.Multipliers {
		row := make(map[signal.Category]float64, len(categories))
		for category, m := range categories {
			row[signal.Category(category)] = m
		}
		table[regime.Regime(r)] = row
	}
	return table
}

// StopConfig returns the stop configuration for an asset class. Unknown
// classes are a configuration error.
func (c *Config) StopConfig(class risk.AssetClass) (risk.StopConfig, error) {
	stop, ok := c.Risk.Stops[string(class)]
	if !ok {
		return risk.StopConfig{}, errs.Config("risk.stops", "no stop configuration for asset class %q", class)
	}
	return stop, nil
}

// Calendar returns the session calendar for an asset class.
func (c *Config) Calendar(class risk.AssetClass) market.Calendar {
	if class == risk.AssetCrypto {
		return c.Sessions.Crypto
	}
	return c.Sessions.Forex
}

func weightsToYAML(t regime.WeightTable) map[string]float64 {
	out := make(map[string]float64, len(t))
	for category, w := range t {
		out[string(category)] = w
	}
	return out
}

func multipliersToYAML(t regime.MultiplierTable) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(t))
	for r, categories := range t {
		row := make(map[string]float64, len(categories))
		for category, m := range categories {
			row[string(category)] = m
		}
		out[string(r)] = row
	}
	return out
}
