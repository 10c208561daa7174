package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type HeikinAshiTestSuite struct {
	suite.Suite
}

func TestHeikinAshiSuite(t *testing.T) {
	suite.Run(t, new(HeikinAshiTestSuite))
}

func (suite *HeikinAshiTestSuite) TestColor() {
	suite.Equal(CandleColorGreen, HeikinAshi{Open: 100, Close: 101}.Color())
	suite.Equal(CandleColorRed, HeikinAshi{Open: 101, Close: 100}.Color())
	// equal open and close counts as red
	suite.Equal(CandleColorRed, HeikinAshi{Open: 100, Close: 100}.Color())

	suite.True(HeikinAshi{Open: 1, Close: 2}.IsGreen())
	suite.True(HeikinAshi{Open: 2, Close: 2}.IsRed())
}

func (suite *HeikinAshiTestSuite) TestBodyPct() {
	tests := []struct {
		name     string
		candle   HeikinAshi
		expected float64
	}{
		{name: "half body", candle: HeikinAshi{Open: 100, Close: 102, High: 103, Low: 99}, expected: 50},
		{name: "large green body", candle: HeikinAshi{Open: 100, Close: 104, High: 104.5, Low: 99.5}, expected: 80},
		{name: "small body", candle: HeikinAshi{Open: 100, Close: 101, High: 102, Low: 98}, expected: 25},
		{name: "red body measured by magnitude", candle: HeikinAshi{Open: 102, Close: 100, High: 103, Low: 99}, expected: 50},
		{name: "zero range", candle: HeikinAshi{Open: 100, Close: 100, High: 100, Low: 100}, expected: 0},
		{name: "inverted range", candle: HeikinAshi{Open: 100, Close: 101, High: 99, Low: 102}, expected: 0},
		{name: "nan close", candle: HeikinAshi{Open: 100, Close: math.NaN(), High: 103, Low: 99}, expected: 0},
		{name: "nan high", candle: HeikinAshi{Open: 100, Close: 102, High: math.NaN(), Low: 99}, expected: 0},
		{name: "infinite range", candle: HeikinAshi{Open: 100, Close: 102, High: math.Inf(1), Low: 99}, expected: 0},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.InDelta(tt.expected, tt.candle.BodyPct(), 1e-9)
		})
	}
}
