package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-bh/internal/backtest/engine"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchJob is one symbol to replay.
type BatchJob struct {
	Symbol   string
	DataPath string
	Candles  []types.MarketData
}

// RunBatch replays the jobs concurrently, at most config.Concurrency at a time, and
// returns the reports in job order. A job without candles is logged and left out; any
// other failure, a cancelled ctx or a callback error stops the whole batch. Callbacks may be called from several
// goroutines at once.
func (b *BacktestEngineV1) RunBatch(ctx context.Context, jobs []BatchJob, callbacks engine.LifecycleCallbacks) ([]types.BacktestReport, error) {
	results := make([]optional.Option[types.BacktestReport], len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.Concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			runID := uuid.New().String()

			if callbacks.OnRunStart != nil {
				if err := (*callbacks.OnRunStart)(runID, job.Symbol, job.DataPath, len(job.Candles)); err != nil {
					return err
				}
			}

			report, err := b.runSymbol(gctx, runID, job.Symbol, job.Candles, callbacks)
			if err != nil {
				if !errors.HasCode(err, errors.ErrCodeEmptySequence) {
					return err
				}

				b.logger().Warn("Skipping symbol without candles",
					zap.String("symbol", job.Symbol),
					zap.String("data", job.DataPath),
					zap.Error(err),
				)

				results[i] = optional.None[types.BacktestReport]()

				return nil
			}

			if b.writer != nil {
				report, err = b.writer.Write(report)
				if err != nil {
					return err
				}
			}

			results[i] = optional.Some(report)

			if callbacks.OnRunEnd != nil {
				(*callbacks.OnRunEnd)(job.Symbol, report)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	reports := make([]types.BacktestReport, 0, len(jobs))

	for _, result := range results {
		if result.IsSome() {
			reports = append(reports, result.Unwrap())
		}
	}

	return reports, nil
}
