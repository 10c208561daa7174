package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-bh/internal/config"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/internal/notifier"
	"github.com/rxtech-lab/argo-bh/internal/recorder"
	"github.com/rxtech-lab/argo-bh/internal/scanner"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata"
	"github.com/stretchr/testify/suite"
)

type AppTestSuite struct {
	suite.Suite
	dir string
	app *app
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

func (suite *AppTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.app = &app{cfg: config.Default(), log: logger.NewNopLogger()}
}

func (suite *AppTestSuite) TestResolveSymbolsFromFlags() {
	symbols, err := suite.app.resolveSymbols([]string{"btc/usdt,ETHUSDT", " arbusdt "})
	suite.Require().NoError(err)
	suite.Equal([]string{"BTCUSDT", "ETHUSDT", "ARBUSDT"}, symbols)

	_, err = suite.app.resolveSymbols([]string{" , "})
	suite.Error(err)
}

func (suite *AppTestSuite) TestResolveSymbolsFromPairsFile() {
	path := filepath.Join(suite.dir, "trading_pairs.csv")
	suite.Require().NoError(os.WriteFile(path, []byte("symbol\nSOLUSDT\n"), 0644))
	suite.app.cfg.Scan.PairsFile = path

	symbols, err := suite.app.resolveSymbols(nil)
	suite.Require().NoError(err)
	suite.Equal([]string{"SOLUSDT"}, symbols)
}

func (suite *AppTestSuite) TestNewNotifier() {
	_, isLog := suite.app.newNotifier(false).(*notifier.LogNotifier)
	suite.True(isLog, "no bots configured")

	suite.app.cfg.Telegram.Bots = []notifier.Target{
		{BotToken: "1:a", ChatID: "1"},
		{BotToken: "2:b", ChatID: "2"},
	}

	multi, ok := suite.app.newNotifier(false).(*notifier.MultiNotifier)
	suite.Require().True(ok)
	suite.Equal(2, multi.Len())

	_, isLog = suite.app.newNotifier(true).(*notifier.LogNotifier)
	suite.True(isLog, "dry run")
}

func (suite *AppTestSuite) TestNewRecorder() {
	suite.app.cfg.Database.SQLitePath = ""

	rec, err := suite.app.newRecorder()
	suite.Require().NoError(err)
	suite.IsType(&recorder.NoopRecorder{}, rec)

	suite.app.cfg.Database.SQLitePath = filepath.Join(suite.dir, "db", "bot.db")

	rec, err = suite.app.newRecorder()
	suite.Require().NoError(err)
	suite.IsType(&recorder.SQLiteRecorder{}, rec)
	suite.NoError(rec.Close())
}

func (suite *AppTestSuite) TestParseSide() {
	side, err := parseSide("BUY")
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeBuyLong, side)

	side, err = parseSide("sell")
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeSellLong, side)

	side, err = parseSide("")
	suite.Require().NoError(err)
	suite.Empty(side)

	_, err = parseSide("short")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *AppTestSuite) TestRenderScanResult() {
	at := time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC)
	result := scanner.Result{
		Buy:     []types.Signal{{Symbol: "BTCUSDT", Type: types.SignalTypeBuyLong, Time: at}},
		Sell:    nil,
		Failed:  []scanner.Failure{{Symbol: "XYZUSDT", Err: errors.New(errors.ErrCodeMarketDataFetchFailed, "boom")}},
		Scanned: 3,
	}

	out := renderScanResult("2h", result)
	suite.Contains(out, "3 pairs")
	suite.Contains(out, "BTC")
	suite.Contains(out, "XYZUSDT")
	suite.Contains(out, "boom")
	suite.Contains(out, "none")
}

func (suite *AppTestSuite) TestLoadEngineConfig() {
	path := filepath.Join(suite.dir, "engine.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("warm_up: 40\n"), 0644))

	cfg, err := loadEngineConfig(suite.app, path, 500)
	suite.Require().NoError(err)
	suite.Equal(40, cfg.WarmUp)
	suite.Equal(500.0, cfg.InitialCapital)
	suite.Equal(suite.app.cfg.Strategy, cfg.Strategy)

	_, err = loadEngineConfig(suite.app, filepath.Join(suite.dir, "missing.yaml"), 0)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
}

func (suite *AppTestSuite) TestWriteSchemas() {
	out := filepath.Join(suite.dir, "config")

	written, err := writeSchemas(out)
	suite.Require().NoError(err)
	suite.Len(written, 5)
	suite.FileExists(filepath.Join(out, "download-binance.json"))
	suite.FileExists(filepath.Join(out, "download-polygon.json"))

	sample, err := config.Load(filepath.Join(out, botSampleName))
	suite.Require().NoError(err)
	suite.NoError(sample.Validate())
	suite.Equal(config.Default().Schedule, sample.Schedule)
	suite.Equal(config.Default().Strategy, sample.Strategy)

	// An existing sample is left untouched.
	written, err = writeSchemas(out)
	suite.Require().NoError(err)
	suite.Len(written, 4)
}

func (suite *AppTestSuite) TestLoadDownloadJob() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "job.json")
	suite.Require().NoError(os.WriteFile(path, []byte(`{"ticker":"SOLUSDT","startDate":"2025-01-01","endDate":"2025-03-01","interval":"2h"}`), 0644))

	params, clientConfig, err := loadDownloadJob("binance", path, dir)
	suite.Require().NoError(err)
	suite.Equal("SOLUSDT", params.Ticker)
	suite.Equal(2, params.Multiplier)
	suite.Equal(marketdata.ProviderBinance, clientConfig.ProviderType)
	suite.Equal(dir, clientConfig.DataPath)

	_, _, err = loadDownloadJob("binance", filepath.Join(dir, "missing.json"), dir)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}
