package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rxtech-lab/argo-bh/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-bh/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-bh/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Replay historical candles through the detector and report the trades",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Glob of parquet files to replay, e.g. data/*.parquet",
			},
			&cli.StringSliceFlag{
				Name:    "symbols",
				Aliases: []string{"s"},
				Usage:   "Fetch recent candles for these symbols instead of reading parquet files. Defaults to the pairs file",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Candles fetched per symbol when fetching",
				Value: 1000,
			},
			&cli.StringFlag{
				Name:  "engine-config",
				Usage: "YAML file with the backtest engine configuration",
			},
			&cli.StringFlag{
				Name:  "results",
				Usage: "Folder for the per-symbol stats and parquet exports",
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Initial capital per symbol. Overrides the engine configuration",
			},
			&cli.BoolFlag{
				Name:  "signals",
				Usage: "Print the signal history of every symbol",
			},
		},
		Action: backtestAction,
	}
}

func loadEngineConfig(a *app, path string, capital float64) (engine_v1.BacktestEngineV1Config, error) {
	config := engine_v1.EmptyConfig()
	config.Strategy = a.cfg.Strategy

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return config, errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "failed to read engine config %s", path)
		}

		if err := yaml.Unmarshal(content, &config); err != nil {
			return config, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
		}
	}

	if capital > 0 {
		config.InitialCapital = capital
	}

	return config, nil
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	config, err := loadEngineConfig(a, cmd.String("engine-config"), cmd.Float("capital"))
	if err != nil {
		return err
	}

	backtester, err := engine_v1.NewBacktestEngineV1FromConfig(config, a.log)
	if err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(cmd.String("results")); err != nil {
		return err
	}

	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)

	onRunEnd := engine.OnRunEndCallback(func(symbol string, report types.BacktestReport) {
		mu.Lock()
		defer mu.Unlock()

		if bar != nil {
			_ = bar.Add(1)
		}
	})
	callbacks := engine.LifecycleCallbacks{
		OnBacktestStart: nil,
		OnBacktestEnd:   nil,
		OnRunStart:      nil,
		OnRunEnd:        &onRunEnd,
		OnProcessData:   nil,
		OnSignal:        nil,
	}

	var reports []types.BacktestReport

	if dataPath := cmd.String("data"); dataPath != "" {
		// The symbol count is only known once the files are opened.
		bar = progressbar.Default(-1, "backtesting")
		reports, err = backtestParquet(ctx, a, backtester, dataPath, callbacks)
	} else {
		var jobs []engine_v1.BatchJob

		jobs, err = fetchJobs(ctx, a, cmd.StringSlice("symbols"), int(cmd.Int("limit")))
		if err != nil {
			return err
		}

		bar = progressbar.Default(int64(len(jobs)), "backtesting")
		reports, err = backtester.RunBatch(ctx, jobs, callbacks)
	}

	if bar != nil {
		_ = bar.Finish()
	}

	if err != nil {
		return err
	}

	fmt.Println()

	for _, report := range reports {
		fmt.Println(TitleStyle.Render(report.Symbol))
		fmt.Print(engine_v1.FormatReport(report))

		if cmd.Bool("signals") && len(report.Signals) > 0 {
			fmt.Println(HelpStyle.Render("Signal history"))
			fmt.Print(engine_v1.FormatSignalHistory(report.Signals))
		}

		fmt.Println()
	}

	fmt.Println(BoxStyle.Render(fmt.Sprintf("%s\n%s", TitleStyle.Render("Summary"), engine_v1.FormatSummary(engine_v1.Summarize(reports)))))

	return nil
}

func backtestParquet(ctx context.Context, a *app, backtester *engine_v1.BacktestEngineV1, dataPath string, callbacks engine.LifecycleCallbacks) ([]types.BacktestReport, error) {
	source, err := datasource.NewDataSource(":memory:", a.log)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if err := backtester.SetDataSource(source); err != nil {
		return nil, err
	}

	if err := backtester.SetDataPath(dataPath); err != nil {
		return nil, err
	}

	return backtester.Run(ctx, callbacks)
}

// fetchJobs downloads recent candles per symbol. Symbols that fail to fetch are skipped.
func fetchJobs(ctx context.Context, a *app, explicit []string, limit int) ([]engine_v1.BatchJob, error) {
	symbols, err := a.resolveSymbols(explicit)
	if err != nil {
		return nil, err
	}

	fetcher, err := a.newFetcher()
	if err != nil {
		return nil, err
	}

	jobs := make([]engine_v1.BatchJob, 0, len(symbols))

	for _, symbol := range symbols {
		candles, err := fetcher.FetchCandles(ctx, symbol, a.cfg.Scan.Timeframe, limit)
		if err != nil {
			a.log.Warn("Skipping symbol, fetch failed", zap.String("symbol", symbol), zap.Error(err))

			continue
		}

		jobs = append(jobs, engine_v1.BatchJob{Symbol: symbol, DataPath: "", Candles: candles})
	}

	if len(jobs) == 0 {
		return nil, errors.New(errors.ErrCodeDataNotFound, "no candles could be fetched for any symbol")
	}

	return jobs, nil
}
