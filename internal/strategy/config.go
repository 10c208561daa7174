package strategy

import (
	"math"

	"github.com/rxtech-lab/argo-bh/internal/indicator"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// WindowPolicy decides which adjacent candle pairs the detector looks at.
type WindowPolicy string

const (
	// WindowPolicyLastPair evaluates only the two most recent candles.
	WindowPolicyLastPair WindowPolicy = "last_pair"
	// WindowPolicyScanLast3 evaluates both adjacent pairs of the last three candles, newest pair first.
	WindowPolicyScanLast3 WindowPolicy = "scan_last_3"
)

// DefaultMinBodyPct is the minimum body percentage of the confirming candle.
const DefaultMinBodyPct = 30.0

// ParseWindowPolicy converts a configuration value into a WindowPolicy. An empty value means WindowPolicyLastPair.
func ParseWindowPolicy(value string) (WindowPolicy, error) {
	switch WindowPolicy(value) {
	case "", WindowPolicyLastPair:
		return WindowPolicyLastPair, nil
	case WindowPolicyScanLast3:
		return WindowPolicyScanLast3, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidWindowPolicy, "unknown window policy %q, expected %q or %q", value, WindowPolicyLastPair, WindowPolicyScanLast3)
	}
}

// Config holds the detector parameters.
type Config struct {
	MinBodyPct          float64              `yaml:"min_body_pct" json:"min_body_pct" jsonschema:"title=Minimum body percentage,description=Minimum Heikin-Ashi body size of the confirming candle in percent of its range,minimum=0,maximum=100,default=30"`
	WindowPolicy        WindowPolicy         `yaml:"window_policy" json:"window_policy" jsonschema:"title=Window policy,enum=last_pair,enum=scan_last_3,default=last_pair"`
	BollingerPeriod     int                  `yaml:"bollinger_period" json:"bollinger_period" jsonschema:"title=Bollinger period,minimum=2,default=20"`
	BollingerMultiplier float64              `yaml:"bollinger_multiplier" json:"bollinger_multiplier" jsonschema:"title=Bollinger multiplier,exclusiveMinimum=0,default=2"`
	StdDevMode          indicator.StdDevMode `yaml:"std_dev_mode" json:"std_dev_mode" jsonschema:"title=Standard deviation mode,enum=sample,enum=population,default=sample"`
	HeikinAshiSeed      indicator.SeedMode   `yaml:"heikin_ashi_seed" json:"heikin_ashi_seed" jsonschema:"title=Heikin-Ashi seed,enum=midpoint,enum=raw_open,default=midpoint"`
}

// DefaultConfig returns the 20/2 sample-deviation bands, midpoint seed, 30% body and last pair policy.
func DefaultConfig() Config {
	return Config{
		MinBodyPct:          DefaultMinBodyPct,
		WindowPolicy:        WindowPolicyLastPair,
		BollingerPeriod:     indicator.DefaultBollingerPeriod,
		BollingerMultiplier: indicator.DefaultBollingerMultiplier,
		StdDevMode:          indicator.StdDevSample,
		HeikinAshiSeed:      indicator.SeedMidpoint,
	}
}

// WithDefaults fills zero values with the defaults.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.MinBodyPct == 0 {
		c.MinBodyPct = defaults.MinBodyPct
	}

	if c.WindowPolicy == "" {
		c.WindowPolicy = defaults.WindowPolicy
	}

	if c.BollingerPeriod == 0 {
		c.BollingerPeriod = defaults.BollingerPeriod
	}

	if c.BollingerMultiplier == 0 {
		c.BollingerMultiplier = defaults.BollingerMultiplier
	}

	if c.StdDevMode == "" {
		c.StdDevMode = defaults.StdDevMode
	}

	if c.HeikinAshiSeed == "" {
		c.HeikinAshiSeed = defaults.HeikinAshiSeed
	}

	return c
}

// Validate checks every parameter and returns the first problem found.
func (c Config) Validate() error {
	if math.IsNaN(c.MinBodyPct) || c.MinBodyPct < 0 || c.MinBodyPct > 100 {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "min body percentage must be within [0, 100], got %f", c.MinBodyPct)
	}

	if _, err := ParseWindowPolicy(string(c.WindowPolicy)); err != nil {
		return err
	}

	if c.BollingerPeriod < 2 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "bollinger period must be at least 2, got %d", c.BollingerPeriod)
	}

	if c.BollingerMultiplier <= 0 || math.IsNaN(c.BollingerMultiplier) || math.IsInf(c.BollingerMultiplier, 0) {
		return errors.Newf(errors.ErrCodeInvalidMultiplier, "bollinger multiplier must be a positive finite number, got %f", c.BollingerMultiplier)
	}

	if _, err := indicator.ParseStdDevMode(string(c.StdDevMode)); err != nil {
		return err
	}

	if _, err := indicator.ParseSeedMode(string(c.HeikinAshiSeed)); err != nil {
		return err
	}

	return nil
}
