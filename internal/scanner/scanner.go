package scanner

import (
	"context"

	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/internal/strategy"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata/provider"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval    = "2h"
	DefaultLimit       = 100
	DefaultConcurrency = 8
)

// Config controls how candles are fetched for a scan.
type Config struct {
	// Interval is the candle interval requested from the fetcher.
	Interval string
	// Limit is the number of candles requested per symbol.
	Limit int
	// Concurrency bounds the number of symbols fetched and evaluated at once.
	Concurrency int
}

// Failure records a symbol that produced no result this cycle.
type Failure struct {
	Symbol string
	Err    error
}

// Result aggregates one scan. Signal lists keep the order of the scanned symbols.
type Result struct {
	Buy     []types.Signal
	Sell    []types.Signal
	Failed  []Failure
	Scanned int
}

// BuySymbols returns the symbols with a BUY signal.
func (r Result) BuySymbols() []string {
	return symbols(r.Buy)
}

// SellSymbols returns the symbols with a SELL signal.
func (r Result) SellSymbols() []string {
	return symbols(r.Sell)
}

// Signals returns all signals, BUY first.
func (r Result) Signals() []types.Signal {
	all := make([]types.Signal, 0, len(r.Buy)+len(r.Sell))
	all = append(all, r.Buy...)

	return append(all, r.Sell...)
}

func symbols(signals []types.Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.Symbol
	}

	return out
}

// Scanner applies one detector to many symbols independently.
type Scanner struct {
	fetcher  provider.Fetcher
	detector strategy.Detector
	config   Config
	log      *logger.Logger
}

// NewScanner fills config defaults. A nil logger discards logs.
func NewScanner(fetcher provider.Fetcher, detector strategy.Detector, config Config, log *logger.Logger) (*Scanner, error) {
	if fetcher == nil || detector == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "scanner needs a fetcher and a detector")
	}

	if config.Interval == "" {
		config.Interval = DefaultInterval
	}

	if config.Limit == 0 {
		config.Limit = DefaultLimit
	}

	if config.Concurrency == 0 {
		config.Concurrency = DefaultConcurrency
	}

	if config.Limit < detector.WarmUp() {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"candle limit %d is below the %d candles the detector needs", config.Limit, detector.WarmUp())
	}

	if config.Concurrency < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "concurrency must be at least 1, got %d", config.Concurrency)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Scanner{
		fetcher:  fetcher,
		detector: detector,
		config:   config,
		log:      log,
	}, nil
}

// outcome is the per-symbol slot written by exactly one goroutine.
type outcome struct {
	signal *types.Signal
	err    error
}

// Scan fetches and evaluates every symbol. A symbol that fails to fetch or evaluate is logged and
// reported in Result.Failed; only cancellation of ctx fails the whole scan.
func (s *Scanner) Scan(ctx context.Context, symbols []string) (Result, error) {
	outcomes := make([]outcome, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for i, symbol := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			outcomes[i] = s.scanSymbol(gctx, symbol)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "scan cancelled", err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "scan cancelled", err)
	}

	result := merge(symbols, outcomes)

	s.log.Info("Scan finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("buy_signals", len(result.Buy)),
		zap.Int("sell_signals", len(result.Sell)),
		zap.Int("failed", len(result.Failed)),
	)

	return result, nil
}

func (s *Scanner) scanSymbol(ctx context.Context, symbol string) outcome {
	candles, err := s.fetcher.FetchCandles(ctx, symbol, s.config.Interval, s.config.Limit)
	if err != nil {
		s.log.Warn("Failed to fetch candles, skipping symbol this cycle",
			zap.String("symbol", symbol),
			zap.Error(err),
		)

		return outcome{signal: nil, err: err}
	}

	if len(candles) < s.detector.WarmUp() {
		s.log.Warn("Not enough candles for a signal",
			zap.String("symbol", symbol),
			zap.Int("candles", len(candles)),
			zap.Int("required", s.detector.WarmUp()),
		)
	}

	return evaluate(s.detector, symbol, candles, s.log)
}

// ScanCandles evaluates already fetched sequences without any I/O. Results follow the order of symbols.
func ScanCandles(detector strategy.Detector, symbols []string, candles map[string][]types.MarketData, log *logger.Logger) Result {
	if log == nil {
		log = logger.NewNopLogger()
	}

	outcomes := make([]outcome, len(symbols))
	for i, symbol := range symbols {
		outcomes[i] = evaluate(detector, symbol, candles[symbol], log)
	}

	return merge(symbols, outcomes)
}

func evaluate(detector strategy.Detector, symbol string, candles []types.MarketData, log *logger.Logger) outcome {
	signal, err := detector.Evaluate(candles)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return outcome{signal: nil, err: nil}
		}

		log.Warn("Failed to evaluate symbol",
			zap.String("symbol", symbol),
			zap.Error(err),
		)

		return outcome{signal: nil, err: err}
	}

	if signal.IsNone() {
		return outcome{signal: nil, err: nil}
	}

	found := signal.Unwrap()
	if found.Symbol == "" {
		found.Symbol = symbol
	}

	log.Debug("Signal detected",
		zap.String("symbol", symbol),
		zap.String("type", string(found.Type)),
		zap.Float64("price", found.Price),
		zap.Time("time", found.Time),
	)

	return outcome{signal: &found, err: nil}
}

func merge(symbols []string, outcomes []outcome) Result {
	result := Result{
		Buy:     []types.Signal{},
		Sell:    []types.Signal{},
		Failed:  []Failure{},
		Scanned: len(symbols),
	}

	for i, o := range outcomes {
		switch {
		case o.err != nil:
			result.Failed = append(result.Failed, Failure{Symbol: symbols[i], Err: o.err})
		case o.signal == nil:
		case o.signal.Type == types.SignalTypeBuyLong:
			result.Buy = append(result.Buy, *o.signal)
		case o.signal.Type == types.SignalTypeSellLong:
			result.Sell = append(result.Sell, *o.signal)
		}
	}

	return result
}
