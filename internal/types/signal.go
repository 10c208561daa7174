package types

import "time"

type SignalType string

const (
	// SignalTypeBuyLong is a signal that tells the strategy to open a long position
	SignalTypeBuyLong SignalType = "buy_long"
	// SignalTypeSellLong is a signal that tells the strategy to close a long position
	SignalTypeSellLong SignalType = "sell_long"
)

// SignalEvidence records the values compared when the signal was produced.
type SignalEvidence struct {
	// PreviousTime is the time of the candle that touched the band.
	PreviousTime  time.Time   `json:"previous_time" yaml:"previous_time"`
	PreviousColor CandleColor `json:"previous_color" yaml:"previous_color"`
	PreviousOpen  float64     `json:"previous_open" yaml:"previous_open"`
	PreviousHigh  float64     `json:"previous_high" yaml:"previous_high"`
	PreviousLow   float64     `json:"previous_low" yaml:"previous_low"`
	PreviousClose float64     `json:"previous_close" yaml:"previous_close"`
	// Band is the band of the previous candle.
	Band BollingerBand `json:"band" yaml:"band"`
	// WickTouch is true when the wick reached the band (low <= lower or high >= upper).
	WickTouch bool `json:"wick_touch" yaml:"wick_touch"`
	// BodyTouch is true when the close reached the band.
	BodyTouch bool `json:"body_touch" yaml:"body_touch"`

	CurrentColor   CandleColor `json:"current_color" yaml:"current_color"`
	CurrentOpen    float64     `json:"current_open" yaml:"current_open"`
	CurrentClose   float64     `json:"current_close" yaml:"current_close"`
	CurrentBodyPct float64     `json:"current_body_pct" yaml:"current_body_pct"`
	MinBodyPct     float64     `json:"min_body_pct" yaml:"min_body_pct"`
}

type Signal struct {
	// Time is the time of the confirming candle
	Time time.Time `json:"time" yaml:"time"`
	// Type is the type of the signal
	Type SignalType `json:"type" yaml:"type"`
	// Price is the raw close of the confirming candle. Backtest reports hold the fill price instead.
	Price float64 `json:"price" yaml:"price"`
	// Name is the name of the signal
	Name string `json:"name" yaml:"name"`
	// Reason is the reason for the signal
	Reason string `json:"reason" yaml:"reason"`
	// Symbol is the symbol of the signal
	Symbol string `json:"symbol" yaml:"symbol"`
	// Indicator is the indicator that generated the signal
	Indicator IndicatorType `json:"indicator" yaml:"indicator"`
	// Evidence holds the compared values
	Evidence SignalEvidence `json:"evidence" yaml:"evidence"`
}
