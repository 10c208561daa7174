package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-bh/internal/indicator"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// Detector evaluates a candle sequence and reports the signal at its most recent candle, if any.
type Detector interface {
	// Evaluate returns None when there is no signal, including when there is not enough history yet.
	Evaluate(candles []types.MarketData) (optional.Option[types.Signal], error)
	// WarmUp returns the minimum number of candles needed before a signal can be produced.
	WarmUp() int
}

// BollingerHeikinAshi detects a Heikin-Ashi reversal right after a Bollinger Band touch.
//
// BUY: the earlier candle of a pair is red and its low or close is at or below the lower band, and the
// later candle is green with a body of at least MinBodyPct percent of its range.
// SELL: the earlier candle is green and its high or close is at or above the upper band, and the later
// candle is red with a body of at least MinBodyPct percent.
type BollingerHeikinAshi struct {
	config     Config
	heikinAshi *indicator.HeikinAshi
	bands      *indicator.BollingerBands
}

// NewBollingerHeikinAshi validates config, fills defaults and configures the underlying indicators.
func NewBollingerHeikinAshi(config Config) (*BollingerHeikinAshi, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	heikinAshi := indicator.NewHeikinAshi().(*indicator.HeikinAshi)
	if err := heikinAshi.Config(config.HeikinAshiSeed); err != nil {
		return nil, err
	}

	bands := indicator.NewBollingerBands().(*indicator.BollingerBands)
	if err := bands.Config(config.BollingerPeriod, config.BollingerMultiplier, config.StdDevMode); err != nil {
		return nil, err
	}

	return &BollingerHeikinAshi{
		config:     config,
		heikinAshi: heikinAshi,
		bands:      bands,
	}, nil
}

// Name returns the name used on emitted signals.
func (s *BollingerHeikinAshi) Name() string {
	return "BB + HA"
}

// Config returns the effective configuration.
func (s *BollingerHeikinAshi) Config() Config {
	return s.config
}

// WarmUp returns period+1: the earlier candle of a pair needs a defined band.
func (s *BollingerHeikinAshi) WarmUp() int {
	return s.bands.WarmUp() + 1
}

// pairs returns the (earlier, later) index pairs to evaluate, newest first.
func (s *BollingerHeikinAshi) pairs(n int) [][2]int {
	if n < 2 {
		return nil
	}

	pairs := [][2]int{{n - 2, n - 1}}
	if s.config.WindowPolicy == WindowPolicyScanLast3 && n >= 3 {
		pairs = append(pairs, [2]int{n - 3, n - 2})
	}

	return pairs
}

// Detect applies the rule to the smoothed candles and bands, which must be aligned by index.
// It returns None when no pair matches or when no pair has a defined band on its earlier candle.
func (s *BollingerHeikinAshi) Detect(smoothed []types.HeikinAshi, bands []optional.Option[types.BollingerBand]) (optional.Option[types.Signal], error) {
	if len(smoothed) != len(bands) {
		return optional.None[types.Signal](), errors.Newf(errors.ErrCodeInvalidParameter,
			"smoothed candles and bands must be aligned: got %d candles and %d bands", len(smoothed), len(bands))
	}

	for _, pair := range s.pairs(len(smoothed)) {
		if bands[pair[0]].IsNone() {
			continue
		}

		signal := s.matchPair(smoothed[pair[0]], smoothed[pair[1]], bands[pair[0]].Unwrap())
		if signal.IsSome() {
			return signal, nil
		}
	}

	return optional.None[types.Signal](), nil
}

// Evaluate computes the Heikin-Ashi sequence and the bands for candles and runs Detect.
// Every candle must be valid and the times strictly increasing.
// Fewer than two candles give None.
func (s *BollingerHeikinAshi) Evaluate(candles []types.MarketData) (optional.Option[types.Signal], error) {
	n := len(candles)
	if n < 2 {
		return optional.None[types.Signal](), nil
	}

	for i := range candles {
		if err := candles[i].Validate(); err != nil {
			return optional.None[types.Signal](), errors.Wrapf(errors.ErrCodeInvalidCandle, err, "candle %d of %s", i, candles[i].Symbol)
		}
	}

	if err := types.ValidateSequence(candles); err != nil {
		return optional.None[types.Signal](), err
	}

	smoothed := s.heikinAshi.Calculate(candles)

	// Detect looks at the last three candles at most, so bands are only needed for those windows.
	tail := n - (s.bands.Period() + 2)
	if tail < 0 {
		tail = 0
	}

	bands, err := s.bands.Calculate(candles[tail:])
	if err != nil {
		return optional.None[types.Signal](), errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to calculate bollinger bands", err)
	}

	return s.Detect(smoothed[tail:], bands)
}

func (s *BollingerHeikinAshi) matchPair(prev, current types.HeikinAshi, band types.BollingerBand) optional.Option[types.Signal] {
	bodyPct := current.BodyPct()
	if bodyPct < s.config.MinBodyPct {
		return optional.None[types.Signal]()
	}

	if prev.IsRed() && current.IsGreen() {
		wick, body := TouchesLowerBand(prev, band)
		if wick || body {
			return optional.Some(s.newSignal(types.SignalTypeBuyLong, prev, current, band, wick, body,
				fmt.Sprintf("red candle touched the lower band %.6f, followed by a green candle with %.2f%% body", band.Lower, bodyPct)))
		}
	}

	if prev.IsGreen() && current.IsRed() {
		wick, body := TouchesUpperBand(prev, band)
		if wick || body {
			return optional.Some(s.newSignal(types.SignalTypeSellLong, prev, current, band, wick, body,
				fmt.Sprintf("green candle touched the upper band %.6f, followed by a red candle with %.2f%% body", band.Upper, bodyPct)))
		}
	}

	return optional.None[types.Signal]()
}

func (s *BollingerHeikinAshi) newSignal(
	signalType types.SignalType,
	prev, current types.HeikinAshi,
	band types.BollingerBand,
	wick, body bool,
	reason string,
) types.Signal {
	name := s.Name() + " Buy"
	if signalType == types.SignalTypeSellLong {
		name = s.Name() + " Sell"
	}

	return types.Signal{
		Time:      current.Time,
		Type:      signalType,
		Price:     current.SourceClose,
		Name:      name,
		Reason:    reason,
		Symbol:    current.Symbol,
		Indicator: types.IndicatorTypeBollingerHeikinAshi,
		Evidence: types.SignalEvidence{
			PreviousTime:   prev.Time,
			PreviousColor:  prev.Color(),
			PreviousOpen:   prev.Open,
			PreviousHigh:   prev.High,
			PreviousLow:    prev.Low,
			PreviousClose:  prev.Close,
			Band:           band,
			WickTouch:      wick,
			BodyTouch:      body,
			CurrentColor:   current.Color(),
			CurrentOpen:    current.Open,
			CurrentClose:   current.Close,
			CurrentBodyPct: current.BodyPct(),
			MinBodyPct:     s.config.MinBodyPct,
		},
	}
}

// TouchesLowerBand reports whether the candle wick (low) and body (close) reached the lower band.
func TouchesLowerBand(candle types.HeikinAshi, band types.BollingerBand) (wick bool, body bool) {
	return candle.Low <= band.Lower, candle.Close <= band.Lower
}

// TouchesUpperBand reports whether the candle wick (high) and body (close) reached the upper band.
func TouchesUpperBand(candle types.HeikinAshi, band types.BollingerBand) (wick bool, body bool) {
	return candle.High >= band.Upper, candle.Close >= band.Upper
}
