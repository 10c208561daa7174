package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-bh/internal/types"
)

// DataGenerator generates realistic candle sequences for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	// Symbol is the trading pair (e.g., "BTCUSDT")
	Symbol string
	// StartTime is the open time of the first candle
	StartTime time.Time
	// Interval is the duration between candles
	Interval time.Duration
	// Count is the number of candles to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement per candle (0.01 = 1%)
	Volatility float64
	// Trend is the total drift over the sequence (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per candle
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a 2h crypto-like configuration with 500 candles.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "BTCUSDT",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       2 * time.Hour,
		Count:          500,
		InitialPrice:   100.0,
		Volatility:     0.01,
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate creates a candle sequence following a geometric Brownian motion.
// Every candle satisfies low <= open,close <= high and times are strictly increasing.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	data := make([]types.MarketData, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a standard normal sample
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := 0.0
		if config.Count > 0 {
			drift = config.Trend / float64(config.Count)
		}

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := g.rng.Float64() * config.Volatility * open * 0.5
		lowExtension := g.rng.Float64() * config.Volatility * open * 0.5

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		data[i] = types.MarketData{
			Symbol: config.Symbol,
			Time:   currentTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(volume, 2),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return data
}

// GenerateBySymbol generates one independent sequence per symbol, keyed by symbol.
func (g *DataGenerator) GenerateBySymbol(symbols []string, baseConfig GeneratorConfig) map[string][]types.MarketData {
	result := make(map[string][]types.MarketData, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		// Vary initial price and volatility slightly per symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		result[symbol] = g.Generate(config)
	}

	return result
}

// Indices of the notable candles in ReversalScenario.
const (
	ReversalTouchLowerIndex = 35
	ReversalBuyIndex        = 36
	ReversalTouchUpperIndex = 37
	ReversalSellIndex       = 38
	ReversalScenarioLength  = 42
)

// ReversalScenario returns a hand-built sequence for the 20/2 Bollinger and midpoint-seeded Heikin-Ashi
// combination. It is flat at 100 until ReversalTouchLowerIndex, where a red candle dips through the lower
// band. A strong green candle follows (BUY at close 104), then a green candle pierces the upper band and a
// red gap-down candle follows (SELL at close 96). The sequence ends with flat candles at 96.
func ReversalScenario(symbol string, start time.Time, interval time.Duration) []types.MarketData {
	data := make([]types.MarketData, 0, ReversalScenarioLength)
	at := func(i int) time.Time { return start.Add(time.Duration(i) * interval) }

	for i := 0; i < ReversalTouchLowerIndex; i++ {
		data = append(data, types.MarketData{Symbol: symbol, Time: at(i), Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 1000})
	}

	data = append(data,
		types.MarketData{Symbol: symbol, Time: at(ReversalTouchLowerIndex), Open: 100, High: 100, Low: 98, Close: 99, Volume: 1500},
		types.MarketData{Symbol: symbol, Time: at(ReversalBuyIndex), Open: 99, High: 104, Low: 99, Close: 104, Volume: 3000},
		types.MarketData{Symbol: symbol, Time: at(ReversalTouchUpperIndex), Open: 104, High: 110, Low: 104, Close: 109, Volume: 2500},
		types.MarketData{Symbol: symbol, Time: at(ReversalSellIndex), Open: 100, High: 100, Low: 96, Close: 96, Volume: 4000},
	)

	for i := ReversalSellIndex + 1; i < ReversalScenarioLength; i++ {
		data = append(data, types.MarketData{Symbol: symbol, Time: at(i), Open: 96, High: 96, Low: 96, Close: 96, Volume: 800})
	}

	return data
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
