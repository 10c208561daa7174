package writer

import (
	"github.com/rxtech-lab/argo-bh/internal/types"
)

// MarketDataWriter defines the interface for writing downloaded candles to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, creating tables or files.
	Initialize() error
	// Write persists a single candle.
	Write(data types.MarketData) error
	// Finalize commits the written candles and exports them. It returns the written file.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
