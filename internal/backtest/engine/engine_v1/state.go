package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type openPosition struct {
	entryPrice decimal.Decimal
	size       decimal.Decimal
	entryTime  time.Time
}

// BacktestState is the FLAT/LONG ledger of a single symbol.
// The whole capital is invested on entry and returned on exit. Amounts are kept in
// decimals so that capital always equals the initial capital plus the realized profits.
type BacktestState struct {
	symbol         string
	initialCapital decimal.Decimal
	capital        decimal.Decimal
	totalProfit    decimal.Decimal
	position       optional.Option[openPosition]
	trades         []types.Trade
	logger         *logger.Logger
}

func NewBacktestState(symbol string, initialCapital float64, logger *logger.Logger) *BacktestState {
	capital := decimal.NewFromFloat(initialCapital)

	return &BacktestState{
		symbol:         symbol,
		initialCapital: capital,
		capital:        capital,
		totalProfit:    decimal.Zero,
		position:       optional.None[openPosition](),
		trades:         nil,
		logger:         logger,
	}
}

// Side returns LONG while a position is open and FLAT otherwise.
func (b *BacktestState) Side() types.PositionSide {
	if b.position.IsSome() {
		return types.PositionSideLong
	}

	return types.PositionSideFlat
}

// Apply moves the state machine with a signal filled at price.
// BUY while FLAT opens, SELL while LONG closes, anything else is ignored.
// It reports whether the state changed.
func (b *BacktestState) Apply(signal types.Signal, price float64, at time.Time) (bool, error) {
	switch {
	case signal.Type == types.SignalTypeBuyLong && b.position.IsNone():
		return true, b.open(price, at)
	case signal.Type == types.SignalTypeSellLong && b.position.IsSome():
		_, err := b.close(price, at)

		return err == nil, err
	default:
		b.logger.Debug("Signal ignored",
			zap.String("symbol", b.symbol),
			zap.String("signal", string(signal.Type)),
			zap.String("side", string(b.Side())),
		)

		return false, nil
	}
}

func (b *BacktestState) open(price float64, at time.Time) error {
	if price <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "cannot open a position at non-positive price %f", price)
	}

	entry := decimal.NewFromFloat(price)
	size := b.capital.Div(entry)

	b.position = optional.Some(openPosition{
		entryPrice: entry,
		size:       size,
		entryTime:  at,
	})

	b.logger.Debug("Position opened",
		zap.String("symbol", b.symbol),
		zap.Float64("price", price),
		zap.String("size", size.String()),
		zap.Time("time", at),
	)

	return nil
}

func (b *BacktestState) close(price float64, at time.Time) (types.Trade, error) {
	if price <= 0 {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidParameter, "cannot close a position at non-positive price %f", price)
	}

	position := b.position.Unwrap()
	exit := decimal.NewFromFloat(price)

	newCapital := position.size.Mul(exit)
	profit := newCapital.Sub(b.capital)

	b.capital = newCapital
	b.totalProfit = b.totalProfit.Add(profit)
	b.position = optional.None[openPosition]()

	trade := types.Trade{
		Symbol:     b.symbol,
		EntryTime:  position.entryTime,
		EntryPrice: position.entryPrice.InexactFloat64(),
		ExitTime:   at,
		ExitPrice:  price,
		Size:       position.size.InexactFloat64(),
		Profit:     profit.InexactFloat64(),
	}
	b.trades = append(b.trades, trade)

	b.logger.Debug("Position closed",
		zap.String("symbol", b.symbol),
		zap.Float64("price", price),
		zap.String("profit", profit.String()),
		zap.Time("time", at),
	)

	return trade, nil
}

// Capital returns the cash value of the ledger. While LONG it is the capital invested at entry.
func (b *BacktestState) Capital() decimal.Decimal {
	return b.capital
}

// InitialCapital returns the starting capital.
func (b *BacktestState) InitialCapital() decimal.Decimal {
	return b.initialCapital
}

// TotalProfit returns the sum of realized profits.
func (b *BacktestState) TotalProfit() decimal.Decimal {
	return b.totalProfit
}

// Trades returns the closed round trips in order.
func (b *BacktestState) Trades() []types.Trade {
	return b.trades
}

// OpenPosition returns the open position, if any.
func (b *BacktestState) OpenPosition() optional.Option[types.Position] {
	if b.position.IsNone() {
		return optional.None[types.Position]()
	}

	position := b.position.Unwrap()

	return optional.Some(types.Position{
		Side:       types.PositionSideLong,
		EntryPrice: position.entryPrice.InexactFloat64(),
		Size:       position.size.InexactFloat64(),
		EntryTime:  position.entryTime,
	})
}

// UnrealizedPnL values the open position at price. It is zero while FLAT.
func (b *BacktestState) UnrealizedPnL(price float64) decimal.Decimal {
	if b.position.IsNone() {
		return decimal.Zero
	}

	position := b.position.Unwrap()

	return position.size.Mul(decimal.NewFromFloat(price).Sub(position.entryPrice))
}

// TradeResult counts the closed trades.
func (b *BacktestState) TradeResult() types.TradeResult {
	result := types.TradeResult{
		NumberOfTrades:        len(b.trades),
		NumberOfWinningTrades: 0,
		NumberOfLosingTrades:  0,
		WinRate:               0,
	}

	for _, trade := range b.trades {
		switch {
		case trade.IsWin():
			result.NumberOfWinningTrades++
		case trade.IsLoss():
			result.NumberOfLosingTrades++
		}
	}

	if result.NumberOfTrades > 0 {
		result.WinRate = float64(result.NumberOfWinningTrades) / float64(result.NumberOfTrades)
	}

	return result
}

// Reset returns the ledger to FLAT with the initial capital.
func (b *BacktestState) Reset() {
	b.capital = b.initialCapital
	b.totalProfit = decimal.Zero
	b.position = optional.None[openPosition]()
	b.trades = nil
}
