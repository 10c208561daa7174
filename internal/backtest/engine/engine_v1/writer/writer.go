package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"go.uber.org/zap"
)

const (
	StatsFileName   = "stats.yaml"
	TradesFileName  = "trades.parquet"
	SignalsFileName = "signals.parquet"
)

// ResultWriter exports backtest reports to a results folder.
type ResultWriter interface {
	// Write stores one report under <folder>/<symbol>/ and returns it with the file paths filled in.
	Write(report types.BacktestReport) (types.BacktestReport, error)
}

// ParquetResultWriter writes trades and signals as parquet through an in-memory DuckDB
// and the report itself as YAML.
type ParquetResultWriter struct {
	folder string
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewParquetResultWriter(folder string, logger *logger.Logger) *ParquetResultWriter {
	return &ParquetResultWriter{
		folder: folder,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Write implements ResultWriter.
func (w *ParquetResultWriter) Write(report types.BacktestReport) (types.BacktestReport, error) {
	resultFolder := filepath.Join(w.folder, report.Symbol)
	if report.Symbol == "" {
		resultFolder = filepath.Join(w.folder, report.ID)
	}

	if err := os.MkdirAll(resultFolder, 0755); err != nil {
		return report, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create result folder", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return report, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to open duckdb", err)
	}
	defer db.Close()

	if err := w.createTables(db); err != nil {
		return report, err
	}

	if err := w.insertTrades(db, report.Trades); err != nil {
		return report, err
	}

	if err := w.insertSignals(db, report.Signals); err != nil {
		return report, err
	}

	report.TradesFilePath = filepath.Join(resultFolder, TradesFileName)
	report.SignalsFilePath = filepath.Join(resultFolder, SignalsFileName)

	// squirrel has no COPY builder
	if _, err := db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, report.TradesFilePath)); err != nil {
		return report, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to export trades to parquet", err)
	}

	if _, err := db.Exec(fmt.Sprintf(`COPY signals TO '%s' (FORMAT PARQUET)`, report.SignalsFilePath)); err != nil {
		return report, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to export signals to parquet", err)
	}

	statsPath := filepath.Join(resultFolder, StatsFileName)
	if err := types.WriteBacktestReports(statsPath, []types.BacktestReport{report}); err != nil {
		return report, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to write stats", err)
	}

	w.logger.Info("Exported backtest results",
		zap.String("symbol", report.Symbol),
		zap.String("stats", statsPath),
		zap.String("trades", report.TradesFilePath),
		zap.String("signals", report.SignalsFilePath),
	)

	return report, nil
}

func (w *ParquetResultWriter) createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE trades (
			symbol TEXT,
			entry_time TIMESTAMP,
			entry_price DOUBLE,
			exit_time TIMESTAMP,
			exit_price DOUBLE,
			size DOUBLE,
			profit DOUBLE
		);
		CREATE TABLE signals (
			time TIMESTAMP,
			symbol TEXT,
			type TEXT,
			price DOUBLE,
			name TEXT,
			reason TEXT,
			body_pct DOUBLE,
			lower_band DOUBLE,
			middle_band DOUBLE,
			upper_band DOUBLE
		);
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create result tables", err)
	}

	return nil
}

func (w *ParquetResultWriter) insertTrades(db *sql.DB, trades []types.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	insert := w.sq.Insert("trades").
		Columns("symbol", "entry_time", "entry_price", "exit_time", "exit_price", "size", "profit")

	for _, trade := range trades {
		insert = insert.Values(trade.Symbol, trade.EntryTime, trade.EntryPrice, trade.ExitTime, trade.ExitPrice, trade.Size, trade.Profit)
	}

	if _, err := insert.RunWith(db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert trades", err)
	}

	return nil
}

func (w *ParquetResultWriter) insertSignals(db *sql.DB, signals []types.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	insert := w.sq.Insert("signals").
		Columns("time", "symbol", "type", "price", "name", "reason", "body_pct", "lower_band", "middle_band", "upper_band")

	for _, signal := range signals {
		insert = insert.Values(
			signal.Time, signal.Symbol, string(signal.Type), signal.Price, signal.Name, signal.Reason,
			signal.Evidence.CurrentBodyPct, signal.Evidence.Band.Lower, signal.Evidence.Band.Middle, signal.Evidence.Band.Upper,
		)
	}

	if _, err := insert.RunWith(db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert signals", err)
	}

	return nil
}
