package engine

import (
	"context"

	"github.com/rxtech-lab/argo-bh/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-bh/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalDataFiles int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called when the replay of one symbol begins.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, symbol string, dataFilePath string, totalCandles int) error

// OnRunEndCallback is called when the replay of one symbol ends.
type OnRunEndCallback func(symbol string, report types.BacktestReport)

// OnProcessDataCallback is called for each evaluated candle.
type OnProcessDataCallback func(current int, total int) error

// OnSignalCallback is called for every signal the detector emits during a run.
type OnSignalCallback func(symbol string, signal types.Signal)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
	OnSignal        *OnSignalCallback
}

type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataPath sets the path to the parquet market data. Accepts glob patterns (e.g., "data/*.parquet").
	// Every symbol found in every file is replayed separately.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// Results are written to <folder>/<symbol>/ as stats.yaml, trades.parquet and signals.parquet.
	// An empty folder disables the export.
	SetResultsFolder(folder string) error
	// SetDataSource sets the data source used to read the data paths.
	SetDataSource(dataSource datasource.DataSource) error
	// Run replays every symbol of every data path and returns one report per symbol.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) ([]types.BacktestReport, error)
	// RunCandles replays a single candle sequence held in memory.
	RunCandles(ctx context.Context, symbol string, candles []types.MarketData) (types.BacktestReport, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
