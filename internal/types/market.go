package types

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// MarketData is a single OHLCV candle for one instrument.
type MarketData struct {
	Id     string    `csv:"id" json:"id"`
	Symbol string    `csv:"symbol" json:"symbol"`
	Time   time.Time `csv:"time" json:"time"`
	Open   float64   `csv:"open" json:"open"`
	High   float64   `csv:"high" json:"high"`
	Low    float64   `csv:"low" json:"low"`
	Close  float64   `csv:"close" json:"close"`
	Volume float64   `csv:"volume" json:"volume"`
}

// Validate checks the candle invariants: finite prices, low <= open,close <= high and a non-negative volume.
func (m MarketData) Validate() error {
	for _, v := range []float64{m.Open, m.High, m.Low, m.Close, m.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf(errors.ErrCodeInvalidCandle, "candle at %s has a non-finite value", m.Time.Format(time.RFC3339))
		}
	}

	if m.Low > m.High {
		return errors.Newf(errors.ErrCodeInvalidCandle, "candle at %s has low %f above high %f", m.Time.Format(time.RFC3339), m.Low, m.High)
	}

	if m.Open < m.Low || m.Open > m.High || m.Close < m.Low || m.Close > m.High {
		return errors.Newf(errors.ErrCodeInvalidCandle, "candle at %s has open/close outside of [low, high]", m.Time.Format(time.RFC3339))
	}

	if m.Volume < 0 {
		return errors.Newf(errors.ErrCodeInvalidCandle, "candle at %s has negative volume %f", m.Time.Format(time.RFC3339), m.Volume)
	}

	return nil
}

// ValidateSequence checks that the candles are in strictly increasing time order.
// Gaps between candles are allowed.
func ValidateSequence(data []MarketData) error {
	for i := 1; i < len(data); i++ {
		if !data[i].Time.After(data[i-1].Time) {
			return errors.Newf(errors.ErrCodeInvalidCandle,
				"candles must be strictly increasing in time: index %d (%s) is not after index %d (%s)",
				i, data[i].Time.Format(time.RFC3339), i-1, data[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}
