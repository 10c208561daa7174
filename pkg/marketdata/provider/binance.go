package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata/writer"
)

const (
	// binancePageSize is the kline limit used while paginating a download.
	binancePageSize = 1000
	// BinanceMaxLimit is the largest limit the klines endpoint accepts.
	BinanceMaxLimit = 1000
)

// BinanceKlinesService is the subset of the go-binance klines service used by the client.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient creates klines services. It is satisfied by a wrapped *binance.Client.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIWrapper struct {
	client *binance.Client
}

func (w *binanceAPIWrapper) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesWrapper{service: w.client.NewKlinesService()}
}

type binanceKlinesWrapper struct {
	service *binance.KlinesService
}

func (w *binanceKlinesWrapper) Symbol(symbol string) BinanceKlinesService {
	w.service.Symbol(symbol)
	return w
}

func (w *binanceKlinesWrapper) Interval(interval string) BinanceKlinesService {
	w.service.Interval(interval)
	return w
}

func (w *binanceKlinesWrapper) StartTime(startTime int64) BinanceKlinesService {
	w.service.StartTime(startTime)
	return w
}

func (w *binanceKlinesWrapper) EndTime(endTime int64) BinanceKlinesService {
	w.service.EndTime(endTime)
	return w
}

func (w *binanceKlinesWrapper) Limit(limit int) BinanceKlinesService {
	w.service.Limit(limit)
	return w
}

func (w *binanceKlinesWrapper) Do(ctx context.Context) ([]*binance.Kline, error) {
	return w.service.Do(ctx)
}

// BinanceClient reads spot klines from the public Binance REST API. No API key is needed.
type BinanceClient struct {
	apiClient BinanceAPIClient
	writer    writer.MarketDataWriter
}

// NewBinanceClient creates a client against the public API, or against baseURL when it is set.
func NewBinanceClient(baseURL string) (*BinanceClient, error) {
	client := binance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = baseURL
	}

	return NewBinanceClientWithAPI(&binanceAPIWrapper{client: client}), nil
}

// NewBinanceClientWithAPI creates a client on top of the given API implementation.
func NewBinanceClientWithAPI(api BinanceAPIClient) *BinanceClient {
	return &BinanceClient{
		apiClient: api,
		writer:    nil,
	}
}

func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// FetchCandles returns the latest limit klines of symbol, oldest first.
func (c *BinanceClient) FetchCandles(ctx context.Context, symbol string, interval string, limit int) ([]types.MarketData, error) {
	if !binanceIntervals[interval] {
		return nil, errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported interval for Binance: %s", interval)
	}

	if limit < 1 || limit > BinanceMaxLimit {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "limit must be between 1 and %d, got %d", BinanceMaxLimit, limit)
	}

	klines, err := c.apiClient.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s klines for %s", interval, symbol)
	}

	if len(klines) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no klines returned for %s", symbol)
	}

	candles := make([]types.MarketData, 0, len(klines))

	for _, k := range klines {
		candle, err := klineToMarketData(symbol, k)
		if err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

// Download downloads the historical klines data for the given ticker and date range from Binance.
// Klines are paginated by open time and written with the configured writer.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	interval, err := convertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not configured")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	current := startMillis

	for current < endMillis {
		if err := ctx.Err(); err != nil {
			return "", c.abort(errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "download cancelled", err))
		}

		klines, err := c.apiClient.NewKlinesService().
			Symbol(ticker).
			Interval(interval).
			StartTime(current).
			EndTime(endMillis).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			return "", c.abort(errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch klines for %s", ticker))
		}

		if err := processKlines(c.writer, ticker, klines); err != nil {
			return "", c.abort(err)
		}

		reportProgress(onProgress, float64(current-startMillis), float64(endMillis-startMillis), fmt.Sprintf("Downloading %s klines from Binance", ticker))

		if len(klines) < binancePageSize {
			break
		}

		// next page starts right after the close of the last kline
		current = klines[len(klines)-1].CloseTime + 1
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	reportProgress(onProgress, float64(endMillis-startMillis), float64(endMillis-startMillis), fmt.Sprintf("Downloaded %s klines from Binance", ticker))

	return outputPath, nil
}

// abort finalizes the writer after a failed download and keeps the original error.
func (c *BinanceClient) abort(cause error) error {
	if _, finalizeErr := c.writer.Finalize(); finalizeErr != nil {
		return errors.Wrapf(errors.GetCode(cause), cause, "also failed to finalize writer: %v", finalizeErr)
	}

	return cause
}

// processKlines converts Binance kline data to our internal MarketData format and writes it.
func processKlines(w writer.MarketDataWriter, ticker string, klines []*binance.Kline) error {
	for _, k := range klines {
		marketData, err := klineToMarketData(ticker, k)
		if err != nil {
			return err
		}

		if err := w.Write(marketData); err != nil {
			return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write market data", err)
		}
	}

	return nil
}

// klineToMarketData parses the string prices of a kline. The open time is used as the candle time.
func klineToMarketData(symbol string, k *binance.Kline) (types.MarketData, error) {
	fields := []string{k.Open, k.High, k.Low, k.Close, k.Volume}
	values := make([]float64, len(fields))

	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return types.MarketData{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q for %s", field, symbol)
		}

		values[i] = v
	}

	return types.MarketData{
		Id:     "",
		Symbol: symbol,
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}
