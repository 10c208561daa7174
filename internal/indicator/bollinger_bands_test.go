package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/mocks"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BollingerBandsTestSuite struct {
	suite.Suite
	data []types.MarketData
}

func TestBollingerBandsSuite(t *testing.T) {
	suite.Run(t, new(BollingerBandsTestSuite))
}

func (suite *BollingerBandsTestSuite) SetupTest() {
	suite.data = mocks.NewDataGenerator(42).Generate(mocks.GeneratorConfig{
		Symbol:         "BTCUSDT",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       time.Hour,
		Count:          300,
		InitialPrice:   100,
		Volatility:     0.01,
		VolumeBase:     1000,
		VolumeVariance: 0.3,
	})
}

func closesOf(data []types.MarketData) []float64 {
	closes := make([]float64, len(data))
	for i, d := range data {
		closes[i] = d.Close
	}

	return closes
}

func (suite *BollingerBandsTestSuite) TestNewBollingerBands() {
	bb := NewBollingerBands()
	suite.NotNil(bb)

	bbImpl := bb.(*BollingerBands)
	suite.Equal(20, bbImpl.Period())
	suite.Equal(2.0, bbImpl.Multiplier())
	suite.Equal(StdDevSample, bbImpl.Mode())
	suite.Equal(20, bb.WarmUp())
	suite.Equal(types.IndicatorTypeBollingerBands, bb.Name())
}

func (suite *BollingerBandsTestSuite) TestConfig() {
	bb := NewBollingerBands()
	bbImpl := bb.(*BollingerBands)

	suite.NoError(bb.Config(10, 1.5))
	suite.Equal(10, bbImpl.Period())
	suite.Equal(1.5, bbImpl.Multiplier())
	suite.Equal(StdDevSample, bbImpl.Mode())

	suite.NoError(bb.Config(14, 2.5, StdDevPopulation))
	suite.Equal(StdDevPopulation, bbImpl.Mode())

	suite.NoError(bb.Config(14, 2.5, "sample"))
	suite.Equal(StdDevSample, bbImpl.Mode())
}

func (suite *BollingerBandsTestSuite) TestConfigInvalid() {
	tests := []struct {
		name   string
		params []any
		code   errors.ErrorCode
	}{
		{name: "too few params", params: []any{10}, code: errors.ErrCodeMissingParameter},
		{name: "too many params", params: []any{10, 2.0, StdDevSample, "extra"}, code: errors.ErrCodeMissingParameter},
		{name: "period wrong type", params: []any{"10", 2.0}, code: errors.ErrCodeInvalidType},
		{name: "multiplier wrong type", params: []any{10, 2}, code: errors.ErrCodeInvalidType},
		{name: "period below two", params: []any{1, 2.0}, code: errors.ErrCodeInvalidPeriod},
		{name: "zero multiplier", params: []any{20, 0.0}, code: errors.ErrCodeInvalidMultiplier},
		{name: "infinite multiplier", params: []any{20, math.Inf(1)}, code: errors.ErrCodeInvalidMultiplier},
		{name: "unknown mode", params: []any{20, 2.0, "ewm"}, code: errors.ErrCodeInvalidParameter},
		{name: "mode wrong type", params: []any{20, 2.0, 1}, code: errors.ErrCodeInvalidType},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			bb := NewBollingerBands()
			err := bb.Config(tt.params...)
			suite.Error(err)
			suite.True(errors.HasCode(err, tt.code), "got %v", err)

			// failed config keeps the previous values
			suite.Equal(20, bb.(*BollingerBands).Period())
		})
	}
}

func (suite *BollingerBandsTestSuite) TestComputeInvalidParameters() {
	_, err := ComputeBollingerBands(suite.data, 1, 2)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
	suite.True(errors.IsValidationError(err))

	_, err = ComputeBollingerBands(suite.data, 0, 2)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))

	_, err = ComputeBollingerBands(suite.data, 20, -1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidMultiplier))
}

func (suite *BollingerBandsTestSuite) TestUndefinedBeforeWarmUp() {
	bands, err := ComputeBollingerBands(suite.data, 20, 2)
	suite.NoError(err)
	suite.Len(bands, len(suite.data))

	for i := 0; i < 19; i++ {
		suite.True(bands[i].IsNone(), "index %d", i)
	}

	for i := 19; i < len(bands); i++ {
		suite.True(bands[i].IsSome(), "index %d", i)
	}
}

func (suite *BollingerBandsTestSuite) TestShortInput() {
	bands, err := ComputeBollingerBands(suite.data[:5], 20, 2)
	suite.NoError(err)
	suite.Len(bands, 5)

	for _, b := range bands {
		suite.True(b.IsNone())
	}

	empty, err := ComputeBollingerBands(nil, 20, 2)
	suite.NoError(err)
	suite.Empty(empty)
}

func (suite *BollingerBandsTestSuite) TestOrdering() {
	bands, err := ComputeBollingerBands(suite.data, 20, 2)
	suite.NoError(err)

	for _, b := range bands {
		if b.IsNone() {
			continue
		}

		band := b.Unwrap()
		suite.LessOrEqual(band.Lower, band.Middle)
		suite.LessOrEqual(band.Middle, band.Upper)
		suite.GreaterOrEqual(band.StdDev, 0.0)
	}
}

func (suite *BollingerBandsTestSuite) TestKnownValues() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	data := make([]types.MarketData, len(closes))

	for i, c := range closes {
		data[i] = types.MarketData{Time: start.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c}
	}

	// mean 5, sum of squared deviations 32
	sample, err := ComputeBollingerBands(data, 8, 2)
	suite.NoError(err)
	band := sample[7].Unwrap()
	suite.InDelta(5.0, band.Middle, 1e-12)
	suite.InDelta(math.Sqrt(32.0/7.0), band.StdDev, 1e-12)
	suite.InDelta(5+2*math.Sqrt(32.0/7.0), band.Upper, 1e-12)

	bb := NewBollingerBands().(*BollingerBands)
	suite.NoError(bb.Config(8, 2.0, StdDevPopulation))
	population, err := bb.Calculate(data)
	suite.NoError(err)
	band = population[7].Unwrap()
	suite.InDelta(2.0, band.StdDev, 1e-12)
	suite.InDelta(9.0, band.Upper, 1e-12)
	suite.InDelta(1.0, band.Lower, 1e-12)
}

func (suite *BollingerBandsTestSuite) TestFlatWindow() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := make([]types.MarketData, 5)

	for i := range data {
		data[i] = types.MarketData{Time: start.Add(time.Duration(i) * time.Hour), Open: 10, High: 10, Low: 10, Close: 10}
	}

	bands, err := ComputeBollingerBands(data, 3, 2)
	suite.NoError(err)
	band := bands[4].Unwrap()
	suite.Equal(10.0, band.Upper)
	suite.Equal(10.0, band.Lower)
	suite.Equal(0.0, band.StdDev)
}

func (suite *BollingerBandsTestSuite) TestMatchesNaiveRecomputation() {
	bands, err := ComputeBollingerBands(suite.data, 20, 2)
	suite.NoError(err)

	for _, i := range []int{19, 50, 150, 299} {
		window := suite.data[i-19 : i+1]
		single, err := ComputeBollingerBands(window, 20, 2)
		suite.NoError(err)
		suite.Equal(single[19].Unwrap(), bands[i].Unwrap(), "index %d", i)
	}
}

func (suite *BollingerBandsTestSuite) TestPopulationModeMatchesTalib() {
	bb := NewBollingerBands().(*BollingerBands)
	suite.NoError(bb.Config(20, 2.0, StdDevPopulation))

	bands, err := bb.Calculate(suite.data)
	suite.NoError(err)

	upper, middle, lower := talib.BBands(closesOf(suite.data), 20, 2.0, 2.0, talib.SMA)

	for i := 19; i < len(suite.data); i++ {
		band := bands[i].Unwrap()
		suite.InDelta(middle[i], band.Middle, 1e-6, "middle at %d", i)
		suite.InDelta(upper[i], band.Upper, 1e-6, "upper at %d", i)
		suite.InDelta(lower[i], band.Lower, 1e-6, "lower at %d", i)
	}
}
