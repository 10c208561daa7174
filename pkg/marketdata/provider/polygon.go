package provider

import (
	"context"
	"fmt"
	"slices"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata/writer"
)

// polygonLookbackFactor widens the fetch window so that closed sessions still leave limit candles.
const polygonLookbackFactor = 3

// PolygonAggsIterator is the iterator returned by ListAggs.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the subset of the polygon REST client used by the client.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIWrapper struct {
	client *polygon.Client
}

func (w *polygonAPIWrapper) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return w.client.ListAggs(ctx, params, options...)
}

// PolygonClient reads aggregates from Polygon.io. Crypto tickers use the X: prefix (e.g. X:BTCUSD).
type PolygonClient struct {
	apiClient PolygonAPIClient
	writer    writer.MarketDataWriter
	now       func() time.Time
}

func NewPolygonClient(apiKey string) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon api key is required")
	}

	return NewPolygonClientWithAPI(&polygonAPIWrapper{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI creates a client on top of the given API implementation.
func NewPolygonClientWithAPI(api PolygonAPIClient) *PolygonClient {
	return &PolygonClient{
		apiClient: api,
		writer:    nil,
		now:       time.Now,
	}
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// FetchCandles returns the latest limit aggregates of symbol, oldest first.
func (c *PolygonClient) FetchCandles(ctx context.Context, symbol string, interval string, limit int) ([]types.MarketData, error) {
	multiplier, timespan, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}

	if limit < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "limit must be positive, got %d", limit)
	}

	candleLength, err := IntervalDuration(interval)
	if err != nil {
		return nil, err
	}

	to := c.now()
	from := to.Add(-time.Duration(limit*polygonLookbackFactor) * candleLength)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithOrder(models.Desc).WithLimit(limit)

	iter := c.apiClient.ListAggs(ctx, params)
	candles := make([]types.MarketData, 0, limit)

	for len(candles) < limit && iter.Next() {
		candles = append(candles, aggToMarketData(symbol, iter.Item()))
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s aggregates for %s", interval, symbol)
	}

	if len(candles) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no aggregates returned for %s", symbol)
	}

	slices.Reverse(candles)

	return candles, nil
}

// Download writes every aggregate between startDate and endDate with the configured writer.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "no writer configured for PolygonClient, call ConfigWriter first")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)
	total := float64(endDate.Sub(startDate).Milliseconds())
	processed := 0

	for iter.Next() {
		agg := iter.Item()

		if err := c.writer.Write(aggToMarketData(ticker, agg)); err != nil {
			_ = c.writer.Close()

			return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write data", err)
		}

		processed++
		if processed%1000 == 0 {
			elapsed := float64(time.Time(agg.Timestamp).Sub(startDate).Milliseconds())
			reportProgress(onProgress, elapsed, total, fmt.Sprintf("Downloading %s", ticker))
		}
	}

	if err := iter.Err(); err != nil {
		_ = c.writer.Close()

		return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", err)
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		_ = c.writer.Close()

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	reportProgress(onProgress, total, total, fmt.Sprintf("Downloaded %d aggregates for %s", processed, ticker))

	return outputPath, nil
}

func aggToMarketData(symbol string, agg models.Agg) types.MarketData {
	return types.MarketData{
		Id:     "",
		Symbol: symbol,
		Time:   time.Time(agg.Timestamp).UTC(),
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: agg.Volume,
	}
}
