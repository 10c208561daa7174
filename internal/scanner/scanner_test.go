package scanner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-bh/internal/strategy"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/mocks"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ScannerTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	fetcher  *mocks.MockFetcher
	detector *strategy.BollingerHeikinAshi
	start    time.Time
}

func TestScannerSuite(t *testing.T) {
	suite.Run(t, new(ScannerTestSuite))
}

func (suite *ScannerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.fetcher = mocks.NewMockFetcher(suite.ctrl)

	detector, err := strategy.NewBollingerHeikinAshi(strategy.DefaultConfig())
	suite.Require().NoError(err)
	suite.detector = detector
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *ScannerTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

// buyCandles ends on the confirming BUY candle of the reversal scenario.
func (suite *ScannerTestSuite) buyCandles(symbol string) []types.MarketData {
	return mocks.ReversalScenario(symbol, suite.start, 2*time.Hour)[:mocks.ReversalBuyIndex+1]
}

// sellCandles ends on the confirming SELL candle of the reversal scenario.
func (suite *ScannerTestSuite) sellCandles(symbol string) []types.MarketData {
	return mocks.ReversalScenario(symbol, suite.start, 2*time.Hour)[:mocks.ReversalSellIndex+1]
}

func (suite *ScannerTestSuite) flatCandles(symbol string) []types.MarketData {
	return mocks.ReversalScenario(symbol, suite.start, 2*time.Hour)[:mocks.ReversalTouchLowerIndex]
}

func (suite *ScannerTestSuite) newScanner(config Config) *Scanner {
	s, err := NewScanner(suite.fetcher, suite.detector, config, nil)
	suite.Require().NoError(err)

	return s
}

func (suite *ScannerTestSuite) TestNewScannerDefaults() {
	s := suite.newScanner(Config{})
	suite.Equal(DefaultInterval, s.config.Interval)
	suite.Equal(DefaultLimit, s.config.Limit)
	suite.Equal(DefaultConcurrency, s.config.Concurrency)
}

func (suite *ScannerTestSuite) TestNewScannerValidation() {
	_, err := NewScanner(nil, suite.detector, Config{}, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	_, err = NewScanner(suite.fetcher, suite.detector, Config{Limit: 10}, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	_, err = NewScanner(suite.fetcher, suite.detector, Config{Concurrency: -1}, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ScannerTestSuite) TestScanAggregatesSignals() {
	invalid := suite.buyCandles("BADUSDT")
	invalid[len(invalid)-1].Low = invalid[len(invalid)-1].High + 1

	suite.fetcher.EXPECT().FetchCandles(gomock.Any(), "ARBUSDT", "2h", 100).Return(suite.buyCandles("ARBUSDT"), nil)
	suite.fetcher.EXPECT().FetchCandles(gomock.Any(), "OPUSDT", "2h", 100).Return(suite.sellCandles("OPUSDT"), nil)
	suite.fetcher.EXPECT().FetchCandles(gomock.Any(), "BTCUSDT", "2h", 100).Return(suite.flatCandles("BTCUSDT"), nil)
	suite.fetcher.EXPECT().FetchCandles(gomock.Any(), "DOGEUSDT", "2h", 100).
		Return(nil, errors.New(errors.ErrCodeMarketDataFetchFailed, "timeout"))
	suite.fetcher.EXPECT().FetchCandles(gomock.Any(), "BADUSDT", "2h", 100).Return(invalid, nil)

	result, err := suite.newScanner(Config{}).Scan(context.Background(),
		[]string{"ARBUSDT", "OPUSDT", "BTCUSDT", "DOGEUSDT", "BADUSDT"})
	suite.Require().NoError(err)

	suite.Equal(5, result.Scanned)
	suite.Equal([]string{"ARBUSDT"}, result.BuySymbols())
	suite.Equal([]string{"OPUSDT"}, result.SellSymbols())
	suite.Require().Len(result.Failed, 2)
	suite.Equal("DOGEUSDT", result.Failed[0].Symbol)
	suite.True(errors.HasCode(result.Failed[0].Err, errors.ErrCodeMarketDataFetchFailed))
	suite.Equal("BADUSDT", result.Failed[1].Symbol)
	suite.True(errors.HasCode(result.Failed[1].Err, errors.ErrCodeInvalidCandle))

	buy := result.Buy[0]
	suite.Equal(types.SignalTypeBuyLong, buy.Type)
	suite.Equal(104.0, buy.Price)
	suite.Len(result.Signals(), 2)
	suite.Equal(types.SignalTypeBuyLong, result.Signals()[0].Type)
}

func (suite *ScannerTestSuite) TestScanKeepsSymbolOrder() {
	symbols := make([]string, 12)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("COIN%02dUSDT", i)
		suite.fetcher.EXPECT().FetchCandles(gomock.Any(), symbols[i], "4h", 50).Return(suite.buyCandles(symbols[i]), nil)
	}

	result, err := suite.newScanner(Config{Interval: "4h", Limit: 50, Concurrency: 3}).Scan(context.Background(), symbols)
	suite.Require().NoError(err)
	suite.Equal(symbols, result.BuySymbols())
	suite.Empty(result.Sell)
	suite.Empty(result.Failed)
}

func (suite *ScannerTestSuite) TestScanEmpty() {
	result, err := suite.newScanner(Config{}).Scan(context.Background(), nil)
	suite.Require().NoError(err)
	suite.Equal(0, result.Scanned)
	suite.Empty(result.Buy)
	suite.Empty(result.Sell)
}

func (suite *ScannerTestSuite) TestScanCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	suite.fetcher.EXPECT().FetchCandles(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().
		Return(nil, context.Canceled)

	_, err := suite.newScanner(Config{}).Scan(ctx, []string{"BTCUSDT", "ETHUSDT"})
	suite.ErrorIs(err, context.Canceled)
}

func (suite *ScannerTestSuite) TestScanCandlesWithoutIO() {
	candles := map[string][]types.MarketData{
		"ARBUSDT": suite.buyCandles("ARBUSDT"),
		"OPUSDT":  suite.sellCandles("OPUSDT"),
	}

	result := ScanCandles(suite.detector, []string{"OPUSDT", "ARBUSDT", "MISSING"}, candles, nil)
	suite.Equal(3, result.Scanned)
	suite.Equal([]string{"ARBUSDT"}, result.BuySymbols())
	suite.Equal([]string{"OPUSDT"}, result.SellSymbols())
	suite.Empty(result.Failed)
}

func (suite *ScannerTestSuite) TestScanAgainstMockBinanceServer() {
	server := mocks.NewMockBinanceServer()
	defer server.Close()

	server.SetCandles("ARBUSDT", suite.buyCandles("ARBUSDT"))
	server.SetCandles("OPUSDT", suite.sellCandles("OPUSDT"))

	fetcher, err := provider.NewBinanceClient(server.BaseURL())
	suite.Require().NoError(err)

	s, err := NewScanner(fetcher, suite.detector, Config{}, nil)
	suite.Require().NoError(err)

	result, err := s.Scan(context.Background(), []string{"ARBUSDT", "OPUSDT", "NOPEUSDT"})
	suite.Require().NoError(err)
	suite.Equal([]string{"ARBUSDT"}, result.BuySymbols())
	suite.Equal([]string{"OPUSDT"}, result.SellSymbols())
	suite.Require().Len(result.Failed, 1)
	suite.Equal("NOPEUSDT", result.Failed[0].Symbol)
}
