package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// SeedMode selects how the open of the first smoothed candle is derived.
type SeedMode string

const (
	// SeedMidpoint seeds the first open with (open + close) / 2 of the first raw candle.
	SeedMidpoint SeedMode = "midpoint"
	// SeedRawOpen seeds the first open with the raw open of the first candle.
	SeedRawOpen SeedMode = "raw_open"
)

// ParseSeedMode converts a configuration value into a SeedMode. An empty value means SeedMidpoint.
func ParseSeedMode(value string) (SeedMode, error) {
	switch SeedMode(value) {
	case "", SeedMidpoint:
		return SeedMidpoint, nil
	case SeedRawOpen:
		return SeedRawOpen, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidSeedMode, "unknown heikin ashi seed mode %q, expected %q or %q", value, SeedMidpoint, SeedRawOpen)
	}
}

// FoldHeikinAshi is one step of the Heikin-Ashi recurrence. It derives the smoothed candle for
// candle from the previous smoothed candle. prev is None only for the first candle of a sequence.
func FoldHeikinAshi(prev optional.Option[types.HeikinAshi], candle types.MarketData, seed SeedMode) types.HeikinAshi {
	haClose := (candle.Open + candle.High + candle.Low + candle.Close) / 4

	var haOpen float64

	if prev.IsSome() {
		p := prev.Unwrap()
		haOpen = (p.Open + p.Close) / 2
	} else if seed == SeedRawOpen {
		haOpen = candle.Open
	} else {
		haOpen = (candle.Open + candle.Close) / 2
	}

	return types.HeikinAshi{
		Symbol:      candle.Symbol,
		Time:        candle.Time,
		Open:        haOpen,
		High:        math.Max(candle.High, math.Max(haOpen, haClose)),
		Low:         math.Min(candle.Low, math.Min(haOpen, haClose)),
		Close:       haClose,
		SourceClose: candle.Close,
		Volume:      candle.Volume,
	}
}

// ComputeHeikinAshi folds FoldHeikinAshi over candles in index order and returns a new sequence
// of the same length. The input is never modified. An empty input gives an empty output.
func ComputeHeikinAshi(candles []types.MarketData, seed SeedMode) []types.HeikinAshi {
	result := make([]types.HeikinAshi, 0, len(candles))
	prev := optional.None[types.HeikinAshi]()

	for _, candle := range candles {
		smoothed := FoldHeikinAshi(prev, candle, seed)
		result = append(result, smoothed)
		prev = optional.Some(smoothed)
	}

	return result
}

// HeikinAshi implements the Indicator interface for Heikin-Ashi candles.
type HeikinAshi struct {
	seed SeedMode
}

// NewHeikinAshi creates a new Heikin-Ashi indicator seeded with SeedMidpoint.
func NewHeikinAshi() Indicator {
	return &HeikinAshi{
		seed: SeedMidpoint,
	}
}

// Name returns the name of the indicator.
func (ha *HeikinAshi) Name() types.IndicatorType {
	return types.IndicatorTypeHeikinAshi
}

// Config configures the Heikin-Ashi indicator. Expected parameters: seed (SeedMode or string).
func (ha *HeikinAshi) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: seed (SeedMode)")
	}

	var raw string

	switch v := params[0].(type) {
	case SeedMode:
		raw = string(v)
	case string:
		raw = v
	default:
		return errors.New(errors.ErrCodeInvalidType, "invalid type for seed parameter, expected SeedMode")
	}

	seed, err := ParseSeedMode(raw)
	if err != nil {
		return err
	}

	ha.seed = seed

	return nil
}

// WarmUp returns 1: every candle has a smoothed counterpart.
func (ha *HeikinAshi) WarmUp() int {
	return 1
}

// Seed returns the configured seed mode.
func (ha *HeikinAshi) Seed() SeedMode {
	return ha.seed
}

// Calculate returns the smoothed sequence for candles.
func (ha *HeikinAshi) Calculate(candles []types.MarketData) []types.HeikinAshi {
	return ComputeHeikinAshi(candles, ha.seed)
}
