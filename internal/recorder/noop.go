package recorder

import "context"

// NoopRecorder discards everything. It is used when no SQLite path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ context.Context, _ *ScanRun) error { return nil }
func (n *NoopRecorder) Close() error                                   { return nil }
