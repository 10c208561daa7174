package recorder

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const defaultSignalQueryLimit = 50

var signalColumns = []string{"run_id", "symbol", "signal_type", "signal_time", "price", "body_pct", "reason"}

// SQLiteRecorder stores scan runs and their signals in a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	mu  sync.Mutex
	log *logger.Logger
	now func() time.Time
}

// NewSQLiteRecorder opens or creates the database at dbPath and creates the tables.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeRecorderFailed, err, "failed to create directory for %s", dbPath)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to open sqlite database", err)
	}

	// WAL lets readers query history while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()

		return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to enable WAL mode", err)
	}

	r := &SQLiteRecorder{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log,
		now: time.Now,
	}

	if err := r.migrate(); err != nil {
		_ = db.Close()

		return nil, err
	}

	log.Info("SQLite recorder opened", zap.String("path", dbPath))

	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	// squirrel has no DDL builder
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			timeframe   TEXT NOT NULL,
			scanned     INTEGER NOT NULL,
			failed      INTEGER NOT NULL,
			buy_count   INTEGER NOT NULL,
			sell_count  INTEGER NOT NULL,
			notified    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_started ON scan_runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS scan_signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES scan_runs(id),
			symbol      TEXT NOT NULL,
			signal_type TEXT NOT NULL,
			signal_time INTEGER NOT NULL,
			price       REAL NOT NULL,
			body_pct    REAL,
			reason      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_signals_symbol_time ON scan_signals(symbol, signal_time)`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to migrate sqlite schema", err)
		}
	}

	return nil
}

// RecordScan stores run and its signals in one transaction. An empty run.ID is filled in.
func (r *SQLiteRecorder) RecordScan(ctx context.Context, run *ScanRun) error {
	if run == nil {
		return errors.New(errors.ErrCodeMissingParameter, "scan run is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	if run.FinishedAt.IsZero() {
		run.FinishedAt = r.now()
	}

	buy, sell := 0, 0

	for _, s := range run.Signals {
		switch s.Type {
		case types.SignalTypeBuyLong:
			buy++
		case types.SignalTypeSellLong:
			sell++
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to begin transaction", err)
	}

	query, args, err := r.sq.Insert("scan_runs").
		Columns("id", "started_at", "finished_at", "timeframe", "scanned", "failed", "buy_count", "sell_count", "notified").
		Values(run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.Timeframe,
			run.Scanned, run.Failed, buy, sell, run.Notified).
		ToSql()
	if err != nil {
		_ = tx.Rollback()

		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to build scan run insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()

		return errors.Wrapf(errors.ErrCodeRecorderFailed, err, "failed to insert scan run %s", run.ID)
	}

	if len(run.Signals) > 0 {
		insert := r.sq.Insert("scan_signals").Columns(signalColumns...)
		for _, s := range run.Signals {
			insert = insert.Values(run.ID, s.Symbol, string(s.Type), s.Time.UnixMilli(), s.Price, s.Evidence.CurrentBodyPct, s.Reason)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to build signal insert", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()

			return errors.Wrapf(errors.ErrCodeRecorderFailed, err, "failed to insert signals of run %s", run.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to commit scan run", err)
	}

	r.log.Debug("Scan run recorded",
		zap.String("run_id", run.ID),
		zap.Int("buy", buy),
		zap.Int("sell", sell),
	)

	return nil
}

// RecentSignals returns stored signals, newest first.
func (r *SQLiteRecorder) RecentSignals(ctx context.Context, q SignalQuery) ([]SignalRecord, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSignalQueryLimit
	}

	conditions := squirrel.And{}
	if q.Symbol != "" {
		conditions = append(conditions, squirrel.Eq{"symbol": q.Symbol})
	}

	if q.Type != "" {
		conditions = append(conditions, squirrel.Eq{"signal_type": string(q.Type)})
	}

	query, args, err := r.sq.Select(signalColumns...).
		From("scan_signals").
		Where(conditions).
		OrderBy("signal_time DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to build signal query", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to query signals", err)
	}
	defer rows.Close()

	records := []SignalRecord{}

	for rows.Next() {
		var (
			record     SignalRecord
			signalType string
			signalTime int64
			bodyPct    sql.NullFloat64
			reason     sql.NullString
		)

		if err := rows.Scan(&record.RunID, &record.Signal.Symbol, &signalType, &signalTime, &record.Signal.Price, &bodyPct, &reason); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to scan signal row", err)
		}

		record.Signal.Type = types.SignalType(signalType)
		record.Signal.Time = time.UnixMilli(signalTime).UTC()
		record.Signal.Evidence.CurrentBodyPct = bodyPct.Float64
		record.Signal.Reason = reason.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to read signal rows", err)
	}

	return records, nil
}

// CountRuns returns the number of recorded scan runs.
func (r *SQLiteRecorder) CountRuns(ctx context.Context) (int, error) {
	query, args, err := r.sq.Select("COUNT(*)").From("scan_runs").ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to build count query", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to count scan runs", err)
	}

	return count, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("Closing SQLite recorder")

	return r.db.Close()
}
