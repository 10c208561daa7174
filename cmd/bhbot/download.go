package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical candles into a parquet file for backtesting",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Symbol to download, e.g. BTCUSDT",
			},
			&cli.TimestampFlag{
				Name:     "start",
				Usage:    "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "End date in `YYYY-MM-DD` format. Defaults to now",
				Value: time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:  "interval",
				Usage: "Candle interval, e.g. 2h. Defaults to scan.timeframe",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: fmt.Sprintf("Data provider (%s). Defaults to market.provider", strings.Join(marketdata.GetSupportedProviders(), ", ")),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Output directory",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:  "job",
				Usage: "JSON download job (see download-<provider>.json from the schema command). Replaces --ticker, --start, --end and --interval",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	providerName := cmd.String("provider")
	if providerName == "" {
		providerName = a.cfg.Market.Provider
	}

	info, err := marketdata.GetProviderInfo(providerName)
	if err != nil {
		return err
	}

	var (
		params       marketdata.DownloadParams
		clientConfig marketdata.ClientConfig
	)

	if jobPath := cmd.String("job"); jobPath != "" {
		params, clientConfig, err = loadDownloadJob(providerName, jobPath, cmd.String("data"))
	} else {
		params, clientConfig, err = a.downloadFromFlags(cmd, providerName)
	}

	if err != nil {
		return err
	}

	if info.RequiresAuth && clientConfig.PolygonApiKey == "" {
		return errors.Newf(errors.ErrCodeMissingParameter, "%s needs an API key", info.DisplayName)
	}

	a.log.Info("Downloading candles",
		zap.String("provider", info.DisplayName),
		zap.String("ticker", params.Ticker),
		zap.Time("start", params.StartDate),
		zap.Time("end", params.EndDate),
	)

	var (
		mu  sync.Mutex
		bar = progressbar.Default(-1, "downloading")
	)

	onProgress := func(current float64, total float64, message string) {
		mu.Lock()
		defer mu.Unlock()

		if total > 0 && bar.GetMax64() != int64(total) {
			bar.ChangeMax64(int64(total))
		}

		bar.Describe(message)
		_ = bar.Set64(int64(current))
	}

	client, err := marketdata.NewClient(clientConfig, onProgress, a.log)
	if err != nil {
		return err
	}

	path, err := client.Download(ctx, params)

	_ = bar.Finish()

	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(BuyStyle.Render(fmt.Sprintf("Saved %d%s candles to %s", params.Multiplier, params.Timespan, path)))

	return nil
}

// loadDownloadJob reads a JSON download job written against the provider's schema.
func loadDownloadJob(providerName, path, dataPath string) (marketdata.DownloadParams, marketdata.ClientConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return marketdata.DownloadParams{}, marketdata.ClientConfig{}, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to read %s", path)
	}

	return marketdata.ParseDownloadConfig(providerName, string(raw), dataPath)
}

func (a *app) downloadFromFlags(cmd *cli.Command, providerName string) (marketdata.DownloadParams, marketdata.ClientConfig, error) {
	if cmd.String("ticker") == "" || !cmd.IsSet("start") {
		return marketdata.DownloadParams{}, marketdata.ClientConfig{}, errors.New(errors.ErrCodeMissingParameter, "--ticker and --start are required without --job")
	}

	interval := cmd.String("interval")
	if interval == "" {
		interval = a.cfg.Scan.Timeframe
	}

	timespan, err := marketdata.ParseTimespan(interval)
	if err != nil {
		return marketdata.DownloadParams{}, marketdata.ClientConfig{}, err
	}

	params := marketdata.DownloadParams{
		Ticker:     cmd.String("ticker"),
		StartDate:  cmd.Timestamp("start"),
		EndDate:    cmd.Timestamp("end"),
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan.Timespan(),
	}

	clientConfig := marketdata.ClientConfig{
		ProviderType:   marketdata.ProviderType(providerName),
		WriterType:     marketdata.WriterDuckDB,
		DataPath:       cmd.String("data"),
		PolygonApiKey:  a.cfg.Market.PolygonAPIKey,
		BinanceBaseURL: a.cfg.Market.BinanceBaseURL,
	}

	return params, clientConfig, nil
}
