package provider

import (
	"context"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

type OnDownloadProgress = func(current float64, total float64, message string)

// Fetcher returns the most recent candles of one symbol, oldest first.
type Fetcher interface {
	// FetchCandles fetches at most limit candles of the given interval (e.g. "2h").
	// The last candle may still be forming.
	FetchCandles(ctx context.Context, symbol string, interval string, limit int) ([]types.MarketData, error)
}

// Downloader downloads a historical range of candles into a writer.
type Downloader interface {
	// ConfigWriter configures the writer the downloaded candles are written to.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download downloads the data for the given ticker and date range and returns the written file.
	// example:
	// Download(ctx, "BTCUSDT", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 2, models.Hour, onProgress)
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
}

// Provider is a market data source that can both fetch recent candles and download history.
type Provider interface {
	Fetcher
	Downloader
}

// Config carries the provider specific settings.
type Config struct {
	// PolygonApiKey is required by the polygon provider.
	PolygonApiKey string
	// BinanceBaseURL overrides the Binance REST endpoint. Empty means the public API.
	BinanceBaseURL string
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, config Config) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient(config.BinanceBaseURL)
	case ProviderPolygon:
		client, err := NewPolygonClient(config.PolygonApiKey)
		if err != nil {
			return nil, err
		}

		return client, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

// NewFetcher creates the fetcher used by the scanner.
func NewFetcher(providerType ProviderType, config Config) (Fetcher, error) {
	return NewMarketDataProvider(providerType, config)
}

func reportProgress(onProgress OnDownloadProgress, current float64, total float64, message string) {
	if onProgress != nil {
		onProgress(current, total, message)
	}
}
