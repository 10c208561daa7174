package recorder

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-bh/internal/types"
)

// ScanRun is one completed scan cycle.
type ScanRun struct {
	// ID is generated by the recorder when empty.
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Timeframe  string
	Scanned    int
	Failed     int
	// Notified is true when at least one notification target received the message.
	Notified bool
	Signals  []types.Signal
}

// SignalRecord is a stored signal together with the run that produced it.
type SignalRecord struct {
	RunID  string
	Signal types.Signal
}

// SignalQuery filters RecentSignals. Zero values mean no filter; Limit defaults to 50.
type SignalQuery struct {
	Symbol string
	Type   types.SignalType
	Limit  int
}

// Recorder persists scan history for later analysis.
type Recorder interface {
	RecordScan(ctx context.Context, run *ScanRun) error
	Close() error
}
