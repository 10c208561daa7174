package scheduler

import (
	"context"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/internal/notifier"
	"github.com/rxtech-lab/argo-bh/internal/recorder"
	"github.com/rxtech-lab/argo-bh/internal/scanner"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"go.uber.org/zap"
)

// DefaultSchedule runs every two hours from 09:30 to 21:30 India Standard Time.
const DefaultSchedule = "CRON_TZ=Asia/Kolkata 30 9,11,13,15,17,19,21 * * *"

// SignalScanner scans a list of symbols.
type SignalScanner interface {
	Scan(ctx context.Context, symbols []string) (scanner.Result, error)
}

// PairSource returns the symbols to scan. It is called once per cycle so edits to the pairs file are picked up.
type PairSource interface {
	Pairs(ctx context.Context) ([]string, error)
}

// PairsFunc adapts a function to PairSource.
type PairsFunc func(ctx context.Context) ([]string, error)

func (f PairsFunc) Pairs(ctx context.Context) ([]string, error) { return f(ctx) }

// StaticPairs always returns the same symbols.
func StaticPairs(symbols ...string) PairSource {
	return PairsFunc(func(context.Context) ([]string, error) { return symbols, nil })
}

type Config struct {
	// Schedule is a five field cron expression. An optional CRON_TZ= prefix selects the time zone.
	Schedule string
	// Timeframe is the candle interval scanned, used in the message header.
	Timeframe string
	// RunOnStart runs one cycle immediately when Run starts.
	RunOnStart bool
}

// CycleReport describes one finished cycle.
type CycleReport struct {
	RunID    string
	Result   scanner.Result
	Message  string
	Notified bool
}

// Scheduler runs the scan cycle on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	config   Config
	scanner  SignalScanner
	pairs    PairSource
	notifier notifier.Notifier
	recorder recorder.Recorder
	log      *logger.Logger
	now      func() time.Time

	// cycleMu keeps a manual cycle from overlapping a scheduled one.
	cycleMu sync.Mutex
}

func NewScheduler(
	config Config,
	scan SignalScanner,
	pairs PairSource,
	notify notifier.Notifier,
	rec recorder.Recorder,
	log *logger.Logger,
) (*Scheduler, error) {
	if scan == nil || pairs == nil || notify == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "scheduler needs a scanner, a pair source and a notifier")
	}

	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}

	if config.Timeframe == "" {
		config.Timeframe = scanner.DefaultInterval
	}

	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	schedule, err := cron.ParseStandard(config.Schedule)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid schedule %q", config.Schedule)
	}

	cronLog := newCronLogger(log)

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		schedule: schedule,
		config:   config,
		scanner:  scan,
		pairs:    pairs,
		notifier: notify,
		recorder: rec,
		log:      log,
		now:      time.Now,
	}, nil
}

// NextRuns returns the next n activation times after from.
func (s *Scheduler) NextRuns(from time.Time, n int) []time.Time {
	runs := make([]time.Time, 0, n)
	next := from

	for range n {
		next = s.schedule.Next(next)
		runs = append(runs, next)
	}

	return runs
}

// Run starts the schedule and blocks until ctx is cancelled. Running cycles finish before it returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		if _, err := s.RunCycle(ctx); err != nil {
			s.logCycleError("Scheduled scan cycle failed", err)
		}
	}))

	s.log.Info("Scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.String("timeframe", s.config.Timeframe),
		zap.Time("next_run", s.schedule.Next(s.now())),
	)

	s.cron.Start()

	if s.config.RunOnStart {
		s.log.Info("Running initial scan cycle")

		if _, err := s.RunCycle(ctx); err != nil {
			s.logCycleError("Initial scan cycle failed", err)
		}
	}

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")

	return nil
}

// logCycleError logs failures that the next cycle may recover from as warnings.
func (s *Scheduler) logCycleError(msg string, err error) {
	if errors.IsRetryable(err) {
		s.log.Warn(msg, zap.Error(err), zap.Bool("retry_next_cycle", true))

		return
	}

	s.log.Error(msg, zap.Error(err))
}

// RunCycle loads the pairs, scans them, sends the formatted signals and records the run.
// Notification and recording failures are logged and do not fail the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleReport, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	started := s.now()
	s.log.Info("Starting scan cycle", zap.String("timeframe", s.config.Timeframe))

	symbols, err := s.pairs.Pairs(ctx)
	if err != nil {
		return CycleReport{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to load trading pairs", err)
	}

	if len(symbols) == 0 {
		return CycleReport{}, errors.New(errors.ErrCodeDataNotFound, "no trading pairs configured")
	}

	result, err := s.scanner.Scan(ctx, symbols)
	if err != nil {
		return CycleReport{}, err
	}

	if len(result.Failed) == result.Scanned {
		return CycleReport{Result: result}, errors.Newf(errors.ErrCodeDataSourceUnavailable,
			"failed to fetch data for all %d trading pairs", result.Scanned)
	}

	buy, sell := result.BuySymbols(), result.SellSymbols()
	s.log.Info("Signals generated",
		zap.Int("buy", len(buy)),
		zap.Int("sell", len(sell)),
		zap.Strings("buy_symbols", buy),
		zap.Strings("sell_symbols", sell),
	)

	report := CycleReport{
		Result:  result,
		Message: notifier.FormatSignals(s.config.Timeframe, buy, sell),
	}

	if err := s.notifier.Send(ctx, report.Message); err != nil {
		s.log.Error("Failed to send signal notification", zap.Error(err))
	} else {
		report.Notified = true
	}

	run := &recorder.ScanRun{
		StartedAt:  started,
		FinishedAt: s.now(),
		Timeframe:  s.config.Timeframe,
		Scanned:    result.Scanned,
		Failed:     len(result.Failed),
		Notified:   report.Notified,
		Signals:    result.Signals(),
	}

	if err := s.recorder.RecordScan(ctx, run); err != nil {
		s.log.Error("Failed to record scan run", zap.Error(err))
	}

	report.RunID = run.ID

	s.log.Info("Scan cycle completed",
		zap.String("run_id", run.ID),
		zap.Duration("elapsed", run.FinishedAt.Sub(started)),
	)

	return report, nil
}
