package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestPositionIsLong() {
	suite.False(Position{}.IsLong())
	suite.False(Position{Side: PositionSideFlat}.IsLong())
	suite.True(Position{Side: PositionSideLong, EntryPrice: 100, Size: 100}.IsLong())
}

func (suite *TradeTestSuite) TestTradeOutcome() {
	tests := []struct {
		name     string
		profit   float64
		wantWin  bool
		wantLoss bool
	}{
		{name: "profitable trade", profit: 1000, wantWin: true, wantLoss: false},
		{name: "losing trade", profit: -250, wantWin: false, wantLoss: true},
		{name: "break even trade", profit: 0, wantWin: false, wantLoss: false},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			trade := Trade{Profit: tt.profit}
			suite.Equal(tt.wantWin, trade.IsWin())
			suite.Equal(tt.wantLoss, trade.IsLoss())
		})
	}
}

func (suite *TradeTestSuite) TestHoldingTime() {
	entry := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	trade := Trade{
		Symbol:     "SOLUSDT",
		EntryTime:  entry,
		EntryPrice: 100,
		ExitTime:   entry.Add(6 * time.Hour),
		ExitPrice:  110,
		Size:       100,
		Profit:     1000,
	}

	suite.Equal(6*time.Hour, trade.HoldingTime())
	suite.True(trade.IsWin())
}
