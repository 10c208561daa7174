package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-bh/internal/backtest/engine"
	"github.com/rxtech-lab/argo-bh/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-bh/internal/backtest/engine/engine_v1/writer"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/internal/strategy"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// BacktestEngineV1 replays candle sequences through the detector and trades a single
// long position per symbol.
type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	dataPaths     []string
	resultsFolder string
	log           *logger.Logger
	detector      strategy.Detector
	datasource    datasource.DataSource
	writer        writer.ResultWriter
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		dataPaths:     nil,
		resultsFolder: "",
		log:           nil,
		detector:      nil,
		datasource:    nil,
		writer:        nil,
	}
}

// NewBacktestEngineV1FromConfig builds a ready to run engine without going through YAML.
func NewBacktestEngineV1FromConfig(config BacktestEngineV1Config, log *logger.Logger) (*BacktestEngineV1, error) {
	b := &BacktestEngineV1{
		config:        config,
		dataPaths:     nil,
		resultsFolder: "",
		log:           log,
		detector:      nil,
		datasource:    nil,
		writer:        nil,
	}

	if err := b.setup(); err != nil {
		return nil, err
	}

	return b, nil
}

// RunBacktest replays candles with the default configuration and the given initial capital.
func RunBacktest(candles []types.MarketData, initialCapital float64) (types.BacktestReport, error) {
	config := EmptyConfig()
	config.InitialCapital = initialCapital

	b, err := NewBacktestEngineV1FromConfig(config, logger.NewNopLogger())
	if err != nil {
		return types.BacktestReport{}, err
	}

	symbol := ""
	if len(candles) > 0 {
		symbol = candles[0].Symbol
	}

	return b.RunCandles(context.Background(), symbol, candles)
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	b.config = EmptyConfig()

	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	if b.log == nil {
		log, err := logger.NewLogger()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", err)
		}

		b.log = log
	}

	if err := b.setup(); err != nil {
		return err
	}

	b.log.Debug("Backtest engine initialized",
		zap.Float64("initial_capital", b.config.InitialCapital),
		zap.Int("warm_up", b.config.WarmUp),
		zap.String("window_policy", string(b.config.Strategy.WithDefaults().WindowPolicy)),
	)

	return nil
}

func (b *BacktestEngineV1) setup() error {
	if b.log == nil {
		b.log = logger.NewNopLogger()
	}

	b.config.Strategy = b.config.Strategy.WithDefaults()

	if err := b.config.Validate(); err != nil {
		return err
	}

	detector, err := strategy.NewBollingerHeikinAshi(b.config.Strategy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create detector", err)
	}

	b.detector = detector

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	files, err := filepath.Glob(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid data path %s", path)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to get absolute path of %s", file)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	if folder == "" {
		b.writer = nil

		return nil
	}

	b.writer = writer.NewParquetResultWriter(folder, b.logger())

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (reports []types.BacktestReport, err error) {
	if err := b.preRunCheck(); err != nil {
		return nil, err
	}

	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(b.dataPaths)); err != nil {
			return nil, err
		}
	}

	if b.resultsFolder != "" {
		if _, statErr := os.Stat(b.resultsFolder); statErr == nil {
			os.RemoveAll(b.resultsFolder)
		}

		if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create results folder", err)
		}
	}

	for _, dataPath := range b.dataPaths {
		jobs, err := b.loadJobs(dataPath)
		if err != nil {
			return nil, err
		}

		results, err := b.RunBatch(ctx, jobs, callbacks)
		if err != nil {
			return nil, err
		}

		reports = append(reports, results...)
	}

	return reports, nil
}

func (b *BacktestEngineV1) loadJobs(dataPath string) ([]BatchJob, error) {
	if err := b.datasource.Initialize(dataPath); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to initialize data source with %s", dataPath)
	}

	symbols, err := b.datasource.GetSymbols()
	if err != nil {
		return nil, err
	}

	interval := optional.None[datasource.Interval]()
	if b.config.Interval != "" {
		interval = optional.Some(b.config.Interval)
	}

	jobs := make([]BatchJob, 0, len(symbols))

	for _, symbol := range symbols {
		candles, err := b.datasource.ReadSymbol(symbol, b.config.StartTime, b.config.EndTime, interval)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeDataNotFound) {
				b.log.Warn("No candles in range", zap.String("symbol", symbol), zap.String("data", dataPath))

				continue
			}

			return nil, err
		}

		jobs = append(jobs, BatchJob{Symbol: symbol, DataPath: dataPath, Candles: candles})
	}

	b.log.Debug("Loaded backtest jobs", zap.String("data", dataPath), zap.Int("symbols", len(jobs)))

	return jobs, nil
}

// RunCandles implements engine.Engine.
func (b *BacktestEngineV1) RunCandles(ctx context.Context, symbol string, candles []types.MarketData) (types.BacktestReport, error) {
	if b.detector == nil {
		return types.BacktestReport{}, errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	return b.runSymbol(ctx, uuid.New().String(), symbol, candles, engine.LifecycleCallbacks{})
}

// runSymbol replays candles step by step. Invalid candles are dropped first. Step i only
// sees candles [0..i]; a signal is filled at the close of candle i. Signals already seen
// at an earlier step are ignored.
func (b *BacktestEngineV1) runSymbol(ctx context.Context, runID string, symbol string, candles []types.MarketData, callbacks engine.LifecycleCallbacks) (types.BacktestReport, error) {
	if len(candles) == 0 {
		return types.BacktestReport{}, errors.Newf(errors.ErrCodeEmptySequence, "no candles to backtest for symbol %s", symbol)
	}

	log := b.logger()
	candles, invalid := dropInvalidCandles(log, symbol, candles)

	n := len(candles)
	if n == 0 {
		return types.BacktestReport{}, errors.Newf(errors.ErrCodeEmptySequence, "no valid candles to backtest for symbol %s", symbol)
	}

	state := NewBacktestState(symbol, b.config.InitialCapital, log)
	report := types.BacktestReport{
		ID:             runID,
		Timestamp:      time.Now(),
		Symbol:         symbol,
		InitialCapital: b.config.InitialCapital,
		Candles:        n,
		InvalidCandles: invalid,
		Signals:        []types.Signal{},
		Trades:         []types.Trade{},
	}

	warmUp := b.config.WarmUp
	if n <= warmUp {
		log.Warn("Not enough candles to backtest",
			zap.String("symbol", symbol),
			zap.Int("candles", n),
			zap.Int("warm_up", warmUp),
		)

		return b.finalizeReport(report, state, candles), nil
	}

	replay := datasource.NewInMemoryDataSource(symbol, candles)
	lastSignalTime := optional.None[time.Time]()
	total := n - warmUp

	for i := warmUp; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrapf(errors.ErrCodeBacktestCancelled, err, "backtest of %s cancelled at candle %d", symbol, i)
		}

		if err := replay.SetCurrentBarIndex(i); err != nil {
			return report, err
		}

		if err := b.step(replay, state, &report, &lastSignalTime, callbacks); err != nil {
			report.SkippedSteps++

			log.Warn("Skipping backtest step",
				zap.String("symbol", symbol),
				zap.Int("index", i),
				zap.Time("time", candles[i].Time),
				zap.Error(err),
			)
		}

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i-warmUp+1, total); err != nil {
				return report, err
			}
		}
	}

	return b.finalizeReport(report, state, candles), nil
}

func (b *BacktestEngineV1) step(
	replay *datasource.InMemoryDataSource,
	state *BacktestState,
	report *types.BacktestReport,
	lastSignalTime *optional.Option[time.Time],
	callbacks engine.LifecycleCallbacks,
) error {
	result, err := b.detector.Evaluate(replay.Prefix())
	if err != nil {
		return err
	}

	if result.IsNone() {
		return nil
	}

	signal := result.Unwrap()
	if lastSignalTime.IsSome() && !signal.Time.After(lastSignalTime.Unwrap()) {
		return nil
	}

	*lastSignalTime = optional.Some(signal.Time)

	if signal.Symbol == "" {
		signal.Symbol = replay.Symbol()
	}

	bar, err := replay.GetBarAtIndex(replay.GetCurrentBarIndex())
	if err != nil {
		return err
	}

	// The recorded signal carries the fill price, which differs from the confirming
	// close when scan_last_3 matched the older pair.
	signal.Price = bar.Close

	report.Signals = append(report.Signals, signal)

	if callbacks.OnSignal != nil {
		(*callbacks.OnSignal)(replay.Symbol(), signal)
	}

	_, err = state.Apply(signal, bar.Close, bar.Time)

	return err
}

func (b *BacktestEngineV1) finalizeReport(report types.BacktestReport, state *BacktestState, candles []types.MarketData) types.BacktestReport {
	initial := state.InitialCapital()
	final := state.Capital()
	n := len(candles)

	// Both fields come from one float so that FinalCapital == InitialCapital + TotalProfit holds exactly.
	report.TotalProfit = state.TotalProfit().InexactFloat64()
	report.FinalCapital = report.InitialCapital + report.TotalProfit
	report.ReturnPct = final.Sub(initial).Div(initial).Mul(decimal.NewFromInt(100)).InexactFloat64()
	report.TradeResult = state.TradeResult()
	report.Trades = append(report.Trades, state.Trades()...)

	if position := state.OpenPosition(); position.IsSome() {
		open := position.Unwrap()
		report.OpenPosition = &open
		report.UnrealizedPnL = state.UnrealizedPnL(candles[n-1].Close).InexactFloat64()
	}

	if b.config.WarmUp < n && candles[b.config.WarmUp].Close > 0 {
		first := decimal.NewFromFloat(candles[b.config.WarmUp].Close)
		last := decimal.NewFromFloat(candles[n-1].Close)
		report.BuyAndHoldPnL = initial.Div(first).Mul(last).Sub(initial).InexactFloat64()
	}

	return report
}

// dropInvalidCandles removes candles that fail validation or do not advance in time.
// Each dropped candle is logged once.
func dropInvalidCandles(log *logger.Logger, symbol string, candles []types.MarketData) ([]types.MarketData, int) {
	valid := make([]types.MarketData, 0, len(candles))

	for i, candle := range candles {
		err := candle.Validate()
		if err == nil && len(valid) > 0 && !candle.Time.After(valid[len(valid)-1].Time) {
			err = errors.Newf(errors.ErrCodeInvalidCandle, "candle at %s is not after the previous candle", candle.Time.Format(time.RFC3339))
		}

		if err != nil {
			log.Warn("Dropping invalid candle",
				zap.String("symbol", symbol),
				zap.Int("index", i),
				zap.Time("time", candle.Time),
				zap.Error(err),
			)

			continue
		}

		valid = append(valid, candle)
	}

	return valid, len(candles) - len(valid)
}

func (b *BacktestEngineV1) logger() *logger.Logger {
	if b.log == nil {
		b.log = logger.NewNopLogger()
	}

	return b.log
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.detector == nil {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeInvalidConfiguration, "no data paths loaded")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	return nil
}
