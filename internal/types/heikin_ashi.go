package types

import (
	"math"
	"time"
)

// CandleColor is the direction of a Heikin-Ashi candle.
type CandleColor string

const (
	CandleColorGreen CandleColor = "green"
	// CandleColorRed also covers candles whose close equals their open.
	CandleColorRed CandleColor = "red"
)

// HeikinAshi is a smoothed candle derived from a raw candle and the previous smoothed candle.
type HeikinAshi struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	// SourceClose is the close of the raw candle this one was derived from.
	SourceClose float64 `json:"source_close"`
	Volume      float64 `json:"volume"`
}

// Color returns green when the close is strictly above the open, red otherwise.
func (h HeikinAshi) Color() CandleColor {
	if h.Close > h.Open {
		return CandleColorGreen
	}

	return CandleColorRed
}

// IsGreen reports whether the candle is bullish.
func (h HeikinAshi) IsGreen() bool {
	return h.Color() == CandleColorGreen
}

// IsRed reports whether the candle is bearish or flat.
func (h HeikinAshi) IsRed() bool {
	return h.Color() == CandleColorRed
}

// BodyPct returns the share of the high-low range covered by the body, from 0 to 100.
// A candle without a positive, finite range has a body percentage of 0, as does a non-finite body.
func (h HeikinAshi) BodyPct() float64 {
	total := h.High - h.Low
	if !(total > 0) || math.IsInf(total, 0) {
		return 0
	}

	pct := math.Abs(h.Close-h.Open) / total * 100

	switch {
	case math.IsNaN(pct):
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
