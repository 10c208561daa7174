package datasource

import (
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// InMemoryDataSource replays a single candle sequence held in memory.
// The cursor starts before the first bar; nothing is visible until SetCurrentBarIndex is called.
type InMemoryDataSource struct {
	symbol       string
	data         []types.MarketData
	currentIndex int
}

// NewInMemoryDataSource wraps candles for bar-by-bar replay. The slice is not copied
// but is never written to.
func NewInMemoryDataSource(symbol string, candles []types.MarketData) *InMemoryDataSource {
	return &InMemoryDataSource{
		symbol:       symbol,
		data:         candles,
		currentIndex: -1,
	}
}

// Symbol returns the symbol of the replayed sequence.
func (m *InMemoryDataSource) Symbol() string {
	return m.symbol
}

// SetCurrentBarIndex implements PrefixDataSource.
func (m *InMemoryDataSource) SetCurrentBarIndex(index int) error {
	if index < 0 || index >= len(m.data) {
		return errors.Newf(errors.ErrCodeInvalidParameter, "bar index %d out of range [0, %d)", index, len(m.data))
	}

	m.currentIndex = index

	return nil
}

// GetCurrentBarIndex implements PrefixDataSource.
func (m *InMemoryDataSource) GetCurrentBarIndex() int {
	return m.currentIndex
}

// Prefix implements PrefixDataSource. The capacity is capped so appending to the
// result cannot overwrite later candles.
func (m *InMemoryDataSource) Prefix() []types.MarketData {
	end := m.currentIndex + 1

	return m.data[:end:end]
}

// GetPreviousNBars implements PrefixDataSource. The result is a copy.
func (m *InMemoryDataSource) GetPreviousNBars(count int) ([]types.MarketData, error) {
	if m.currentIndex < 0 {
		return nil, errors.NewInsufficientDataErrorf(count, 0, m.symbol, "no bars replayed yet for symbol %s", m.symbol)
	}

	available := m.currentIndex + 1
	start := available - count

	if start < 0 {
		result := make([]types.MarketData, available)
		copy(result, m.data[:available])

		return result, errors.NewInsufficientDataErrorf(count, available, m.symbol,
			"insufficient data points for symbol %s: requested %d, got %d", m.symbol, count, available)
	}

	result := make([]types.MarketData, count)
	copy(result, m.data[start:available])

	return result, nil
}

// GetBarAtIndex implements PrefixDataSource.
func (m *InMemoryDataSource) GetBarAtIndex(index int) (types.MarketData, error) {
	if index < 0 {
		return types.MarketData{}, errors.Newf(errors.ErrCodeInvalidParameter, "bar index %d is negative", index)
	}

	if index > m.currentIndex {
		return types.MarketData{}, errors.Newf(errors.ErrCodeDataNotFound,
			"bar index %d is after the current bar %d", index, m.currentIndex)
	}

	return m.data[index], nil
}

// GetTotalBars implements PrefixDataSource.
func (m *InMemoryDataSource) GetTotalBars() int {
	return len(m.data)
}
