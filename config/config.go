// Package config loads engine and CLI settings from the environment.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/meenmo/morisk/bump"
	"github.com/meenmo/morisk/curve"
	"github.com/meenmo/morisk/greeks"
	"github.com/meenmo/morisk/logger"
)

// Prefix is prepended to every environment variable name (MORISK_LOG_LEVEL, ...).
const Prefix = "MORISK"

// Config holds logging, bump and curve construction settings. Values are
// passed explicitly to the packages that need them.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`

	// BumpSize is in handler units (1 == 1bp for spread and yield tenors).
	BumpSize float64 `envconfig:"BUMP_SIZE" default:"1"`
	// BumpRelative makes BumpSize a proportion of the quote.
	BumpRelative bool `envconfig:"BUMP_RELATIVE" default:"false"`
	// DeltaMode is "central" or "one-sided".
	DeltaMode string `envconfig:"DELTA_MODE" default:"central"`

	ReevaluateCurves bool `envconfig:"REEVALUATE_CURVES" default:"true"`
	IncludeDelta     bool `envconfig:"INCLUDE_DELTA" default:"true"`

	// CurveGridStepMonths is the spacing of the par-rate bootstrap grid.
	CurveGridStepMonths int `envconfig:"CURVE_GRID_STEP_MONTHS" default:"3"`
	// MinDiscountFactor floors bootstrapped discount factors.
	MinDiscountFactor float64 `envconfig:"MIN_DISCOUNT_FACTOR" default:"1e-9"`
}

// DefaultConfig mirrors the envconfig defaults.
func DefaultConfig() Config {
	cc := curve.DefaultConfig()
	return Config{
		LogLevel:            "info",
		BumpSize:            1,
		DeltaMode:           "central",
		ReevaluateCurves:    true,
		IncludeDelta:        true,
		CurveGridStepMonths: cc.GridStepMonths,
		MinDiscountFactor:   cc.MinDiscountFactor,
	}
}

// Load reads env files into the environment, then maps MORISK_* variables
// onto a Config. With no files named it tries ./.env and tolerates its
// absence; a named file that cannot be read is an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		// A missing .env is normal outside development.
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot use.
func (c Config) Validate() error {
	if c.BumpSize == 0 {
		return fmt.Errorf("config: BUMP_SIZE must be non-zero")
	}
	if _, err := greeks.ParseMode(c.DeltaMode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CurveGridStepMonths <= 0 || 12%c.CurveGridStepMonths != 0 {
		return fmt.Errorf("config: CURVE_GRID_STEP_MONTHS must divide 12, got %d", c.CurveGridStepMonths)
	}
	if c.MinDiscountFactor <= 0 || c.MinDiscountFactor >= 1 {
		return fmt.Errorf("config: MIN_DISCOUNT_FACTOR must be in (0, 1), got %v", c.MinDiscountFactor)
	}
	return nil
}

// Curve returns the bootstrap settings.
func (c Config) Curve() curve.Config {
	return curve.Config{GridStepMonths: c.CurveGridStepMonths, MinDiscountFactor: c.MinDiscountFactor}
}

// Logger returns the logger settings.
func (c Config) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Pretty: c.LogPretty}
}

// BumpFlags returns the up-direction flags for Greeks.
func (c Config) BumpFlags() bump.Flags {
	if c.BumpRelative {
		return bump.Relative
	}
	return bump.Absolute
}

// Mode returns the parsed delta mode. Validate has already checked it.
func (c Config) Mode() greeks.Mode {
	m, _ := greeks.ParseMode(c.DeltaMode)
	return m
}
