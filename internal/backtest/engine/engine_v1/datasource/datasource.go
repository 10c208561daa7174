package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-bh/internal/types"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

// DataSource is a store of historical candles for one or more symbols.
type DataSource interface {
	// Initialize initializes the data source with the given data path in parquet format
	Initialize(path string) error
	// ReadAll reads all the data from the data source and yields it to the caller
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool)
	// GetSymbols returns the distinct symbols in the data source, sorted
	GetSymbols() ([]string, error)
	// ReadSymbol returns the candles of one symbol in time order.
	// When interval is set the candles are resampled into buckets of that width.
	ReadSymbol(symbol string, start optional.Option[time.Time], end optional.Option[time.Time], interval optional.Option[Interval]) ([]types.MarketData, error)
	// Count returns the number of rows in the data source
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// PrefixDataSource replays one candle sequence bar by bar.
// Reads never return a candle after the current bar.
type PrefixDataSource interface {
	// SetCurrentBarIndex moves the replay cursor.
	SetCurrentBarIndex(index int) error
	// GetCurrentBarIndex returns the replay cursor.
	GetCurrentBarIndex() int
	// Prefix returns candles [0..current] as a capped slice.
	Prefix() []types.MarketData
	// GetPreviousNBars returns up to count candles ending at the current bar, oldest first.
	GetPreviousNBars(count int) ([]types.MarketData, error)
	// GetBarAtIndex returns the candle at index, which must not be after the current bar.
	GetBarAtIndex(index int) (types.MarketData, error)
	// GetTotalBars returns the length of the whole sequence.
	GetTotalBars() int
}
