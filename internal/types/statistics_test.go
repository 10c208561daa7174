package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "statistics_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *StatisticsTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *StatisticsTestSuite) sampleReport() BacktestReport {
	entry := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	return BacktestReport{
		ID:             "run-1",
		Timestamp:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Symbol:         "BTCUSDT",
		InitialCapital: 10000,
		FinalCapital:   11000,
		TotalProfit:    1000,
		ReturnPct:      10,
		TradeResult: TradeResult{
			NumberOfTrades:        1,
			NumberOfWinningTrades: 1,
			WinRate:               1,
		},
		BuyAndHoldPnL: 800,
		Candles:       60,
		Trades: []Trade{
			{Symbol: "BTCUSDT", EntryTime: entry, EntryPrice: 100, ExitTime: entry.Add(time.Hour), ExitPrice: 110, Size: 100, Profit: 1000},
		},
		OpenPosition: &Position{Side: PositionSideLong, EntryPrice: 105, Size: 104.76, EntryTime: entry.Add(2 * time.Hour)},
	}
}

func (suite *StatisticsTestSuite) TestWriteBacktestReports() {
	filePath := filepath.Join(suite.tempDir, "reports.yaml")
	err := WriteBacktestReports(filePath, []BacktestReport{suite.sampleReport()})
	suite.NoError(err)

	data, err := os.ReadFile(filePath)
	suite.NoError(err)

	var raw []map[string]any
	suite.NoError(yaml.Unmarshal(data, &raw))
	suite.Len(raw, 1)
	suite.Equal("BTCUSDT", raw[0]["symbol"])
	suite.Equal(10000, raw[0]["initial_capital"])
	suite.Contains(raw[0], "trade_result")
	suite.Contains(raw[0], "open_position")
}

func (suite *StatisticsTestSuite) TestReadBacktestReports() {
	filePath := filepath.Join(suite.tempDir, "reports.yaml")
	report := suite.sampleReport()
	suite.NoError(WriteBacktestReports(filePath, []BacktestReport{report}))

	reports, err := ReadBacktestReports(filePath)
	suite.NoError(err)
	suite.Len(reports, 1)
	suite.Equal(report.Symbol, reports[0].Symbol)
	suite.Equal(report.FinalCapital, reports[0].FinalCapital)
	suite.Equal(1, reports[0].TotalTrades())
	suite.Equal(1.0, reports[0].TradeResult.WinRate)
	suite.Len(reports[0].Trades, 1)
	suite.Equal(1000.0, reports[0].Trades[0].Profit)
	suite.NotNil(reports[0].OpenPosition)
	suite.True(reports[0].OpenPosition.IsLong())
}

func (suite *StatisticsTestSuite) TestOpenPositionOmittedWhenFlat() {
	filePath := filepath.Join(suite.tempDir, "flat.yaml")
	report := suite.sampleReport()
	report.OpenPosition = nil
	suite.NoError(WriteBacktestReports(filePath, []BacktestReport{report}))

	data, err := os.ReadFile(filePath)
	suite.NoError(err)
	suite.NotContains(string(data), "open_position")
}

func (suite *StatisticsTestSuite) TestWriteBacktestReportsEmpty() {
	filePath := filepath.Join(suite.tempDir, "empty.yaml")
	suite.NoError(WriteBacktestReports(filePath, []BacktestReport{}))

	reports, err := ReadBacktestReports(filePath)
	suite.NoError(err)
	suite.Empty(reports)
}

func (suite *StatisticsTestSuite) TestWriteBacktestReportsInvalidPath() {
	filePath := filepath.Join(suite.tempDir, "nonexistent", "dir", "reports.yaml")
	err := WriteBacktestReports(filePath, []BacktestReport{{Symbol: "BTCUSDT"}})
	suite.Error(err)
}

func (suite *StatisticsTestSuite) TestReadBacktestReportsMissingFile() {
	_, err := ReadBacktestReports(filepath.Join(suite.tempDir, "missing.yaml"))
	suite.Error(err)
}
