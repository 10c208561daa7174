package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// StdDevMode selects the denominator of the rolling standard deviation.
type StdDevMode string

const (
	// StdDevSample divides by N-1.
	StdDevSample StdDevMode = "sample"
	// StdDevPopulation divides by N.
	StdDevPopulation StdDevMode = "population"
)

const (
	DefaultBollingerPeriod     = 20
	DefaultBollingerMultiplier = 2.0
)

// ParseStdDevMode converts a configuration value into a StdDevMode. An empty value means StdDevSample.
func ParseStdDevMode(value string) (StdDevMode, error) {
	switch StdDevMode(value) {
	case "", StdDevSample:
		return StdDevSample, nil
	case StdDevPopulation:
		return StdDevPopulation, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unknown standard deviation mode %q, expected %q or %q", value, StdDevSample, StdDevPopulation)
	}
}

// ComputeBollingerBands returns the bands over the raw closes using the sample standard deviation.
// Index i is None while fewer than period closes end at i.
func ComputeBollingerBands(candles []types.MarketData, period int, k float64) ([]optional.Option[types.BollingerBand], error) {
	return computeBands(candles, period, k, StdDevSample)
}

func validateBandParameters(period int, k float64) error {
	if period < 2 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be at least 2, got %d", period)
	}

	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return errors.Newf(errors.ErrCodeInvalidMultiplier, "multiplier must be a positive finite number, got %f", k)
	}

	return nil
}

func computeBands(candles []types.MarketData, period int, k float64, mode StdDevMode) ([]optional.Option[types.BollingerBand], error) {
	if err := validateBandParameters(period, k); err != nil {
		return nil, err
	}

	bands := make([]optional.Option[types.BollingerBand], len(candles))
	for i := range candles {
		if i < period-1 {
			bands[i] = optional.None[types.BollingerBand]()

			continue
		}

		bands[i] = optional.Some(bandForWindow(candles[i-period+1:i+1], k, mode))
	}

	return bands, nil
}

// bandForWindow computes mean and variance in two passes over the window.
func bandForWindow(window []types.MarketData, k float64, mode StdDevMode) types.BollingerBand {
	n := float64(len(window))

	var sum float64
	for _, c := range window {
		sum += c.Close
	}

	middle := sum / n

	var squaredDiffSum float64

	for _, c := range window {
		diff := c.Close - middle
		squaredDiffSum += diff * diff
	}

	denominator := n - 1
	if mode == StdDevPopulation {
		denominator = n
	}

	stdDev := math.Sqrt(squaredDiffSum / denominator)

	return types.BollingerBand{
		Upper:  middle + k*stdDev,
		Middle: middle,
		Lower:  middle - k*stdDev,
		StdDev: stdDev,
	}
}

// BollingerBands implements the Indicator interface for Bollinger Bands.
type BollingerBands struct {
	period int     // Number of periods for moving average
	stdDev float64 // Number of standard deviations
	mode   StdDevMode
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period: DefaultBollingerPeriod,
		stdDev: DefaultBollingerMultiplier,
		mode:   StdDevSample,
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the Bollinger Bands indicator.
// Expected parameters: period (int), stdDev (float64) and optionally mode (StdDevMode or string).
func (bb *BollingerBands) Config(params ...any) error {
	if len(params) != 2 && len(params) != 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 or 3 parameters: period (int), stdDev (float64), mode (StdDevMode)")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	stdDev, ok := params[1].(float64)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for stdDev parameter, expected float64")
	}

	if err := validateBandParameters(period, stdDev); err != nil {
		return err
	}

	mode := bb.mode

	if len(params) == 3 {
		var raw string

		switch v := params[2].(type) {
		case StdDevMode:
			raw = string(v)
		case string:
			raw = v
		default:
			return errors.New(errors.ErrCodeInvalidType, "invalid type for mode parameter, expected StdDevMode")
		}

		parsed, err := ParseStdDevMode(raw)
		if err != nil {
			return err
		}

		mode = parsed
	}

	bb.period = period
	bb.stdDev = stdDev
	bb.mode = mode

	return nil
}

// WarmUp returns the period: the first defined band is at index period-1.
func (bb *BollingerBands) WarmUp() int {
	return bb.period
}

// Period returns the configured lookback period.
func (bb *BollingerBands) Period() int {
	return bb.period
}

// Multiplier returns the configured standard deviation multiplier.
func (bb *BollingerBands) Multiplier() float64 {
	return bb.stdDev
}

// Mode returns the configured standard deviation mode.
func (bb *BollingerBands) Mode() StdDevMode {
	return bb.mode
}

// Calculate returns one band per candle, None before index period-1.
func (bb *BollingerBands) Calculate(candles []types.MarketData) ([]optional.Option[types.BollingerBand], error) {
	return computeBands(candles, bb.period, bb.stdDev, bb.mode)
}
