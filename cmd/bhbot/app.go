package main

import (
	"strings"
	"time"

	"github.com/rxtech-lab/argo-bh/internal/config"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/internal/notifier"
	"github.com/rxtech-lab/argo-bh/internal/recorder"
	"github.com/rxtech-lab/argo-bh/internal/scanner"
	"github.com/rxtech-lab/argo-bh/internal/strategy"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

// app holds the loaded configuration and logger shared by every command.
type app struct {
	cfg config.Config
	log *logger.Logger
}

func loadApp(cmd *cli.Command) (*app, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if level := cmd.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) newFetcher() (provider.Fetcher, error) {
	return provider.NewFetcher(provider.ProviderType(a.cfg.Market.Provider), a.cfg.ProviderConfig())
}

func (a *app) newDetector() (*strategy.BollingerHeikinAshi, error) {
	return strategy.NewBollingerHeikinAshi(a.cfg.Strategy)
}

func (a *app) newScanner() (*scanner.Scanner, error) {
	fetcher, err := a.newFetcher()
	if err != nil {
		return nil, err
	}

	detector, err := a.newDetector()
	if err != nil {
		return nil, err
	}

	return scanner.NewScanner(fetcher, detector, a.cfg.ScannerConfig(), a.log)
}

// newNotifier sends to every configured bot. With dryRun or without bots messages are only logged.
func (a *app) newNotifier(dryRun bool) notifier.Notifier {
	if dryRun || len(a.cfg.Telegram.Bots) == 0 {
		return notifier.NewLogNotifier(a.log)
	}

	targets := make([]notifier.Notifier, 0, len(a.cfg.Telegram.Bots))

	for _, bot := range a.cfg.Telegram.Bots {
		opts := []notifier.Option{
			notifier.WithRetry(uint64(a.cfg.Telegram.MaxRetries), time.Second),
			notifier.WithLogger(a.log),
		}

		if a.cfg.Telegram.BaseURL != "" {
			opts = append(opts, notifier.WithBaseURL(a.cfg.Telegram.BaseURL))
		}

		targets = append(targets, notifier.NewTelegramNotifier(bot, opts...))
	}

	return notifier.NewMultiNotifier(a.log, targets...)
}

func (a *app) newRecorder() (recorder.Recorder, error) {
	if a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder(), nil
	}

	rec, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.log)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// resolveSymbols prefers explicit symbols over the configured pairs file.
func (a *app) resolveSymbols(explicit []string) ([]string, error) {
	if len(explicit) == 0 {
		return config.LoadPairs(a.cfg.Scan.PairsFile)
	}

	symbols := make([]string, 0, len(explicit))

	for _, value := range explicit {
		for _, part := range strings.Split(value, ",") {
			if symbol := config.NormalizeSymbol(part); symbol != "" {
				symbols = append(symbols, symbol)
			}
		}
	}

	if len(symbols) == 0 {
		return nil, errors.New(errors.ErrCodeMissingParameter, "no symbols given")
	}

	return symbols, nil
}
