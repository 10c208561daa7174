package types

import (
	"time"
)

type PositionSide string

const (
	PositionSideFlat PositionSide = "FLAT"
	PositionSideLong PositionSide = "LONG"
)

// Position is the single open spot position of a backtest run.
type Position struct {
	Side       PositionSide `yaml:"side" json:"side"`
	EntryPrice float64      `yaml:"entry_price" json:"entry_price"`
	Size       float64      `yaml:"size" json:"size"`
	EntryTime  time.Time    `yaml:"entry_time" json:"entry_time"`
}

// IsLong reports whether the position is open.
func (p Position) IsLong() bool {
	return p.Side == PositionSideLong
}

// Trade is a closed round trip.
type Trade struct {
	Symbol     string    `yaml:"symbol" json:"symbol"`
	EntryTime  time.Time `yaml:"entry_time" json:"entry_time"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price"`
	ExitTime   time.Time `yaml:"exit_time" json:"exit_time"`
	ExitPrice  float64   `yaml:"exit_price" json:"exit_price"`
	Size       float64   `yaml:"size" json:"size"`
	// Profit is size * (exit price - entry price).
	// For example, 100 units bought at 100 and sold at 110 give a profit of 1000.
	Profit float64 `yaml:"profit" json:"profit"`
}

// IsWin reports whether the trade closed with a positive profit.
func (t Trade) IsWin() bool {
	return t.Profit > 0
}

// IsLoss reports whether the trade closed with a negative profit.
func (t Trade) IsLoss() bool {
	return t.Profit < 0
}

// HoldingTime returns how long the position was held.
func (t Trade) HoldingTime() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}
