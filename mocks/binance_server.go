package mocks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-bh/internal/types"
)

// MockBinanceServer serves the Binance spot klines endpoint from registered candle sequences.
type MockBinanceServer struct {
	mu       sync.RWMutex
	server   *httptest.Server
	candles  map[string][]types.MarketData
	failing  map[string]int
	requests int
}

// NewMockBinanceServer starts the server. Call Close when done.
func NewMockBinanceServer() *MockBinanceServer {
	s := &MockBinanceServer{
		mu:       sync.RWMutex{},
		server:   nil,
		candles:  make(map[string][]types.MarketData),
		failing:  make(map[string]int),
		requests: 0,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/v3/klines", s.handleKlines).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}).Methods(http.MethodGet)

	s.server = httptest.NewServer(router)

	return s
}

// BaseURL returns the base URL for the server.
func (s *MockBinanceServer) BaseURL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *MockBinanceServer) Close() {
	s.server.Close()
}

// SetCandles registers the klines returned for symbol.
func (s *MockBinanceServer) SetCandles(symbol string, candles []types.MarketData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candles[symbol] = candles
}

// SetStatus makes every request for symbol fail with the given HTTP status.
func (s *MockBinanceServer) SetStatus(symbol string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failing[symbol] = status
}

// Requests returns the number of klines requests served.
func (s *MockBinanceServer) Requests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.requests
}

// handleKlines handles GET /api/v3/klines
func (s *MockBinanceServer) handleKlines(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	symbol := query.Get("symbol")
	interval := query.Get("interval")

	s.mu.Lock()
	s.requests++
	status, failing := s.failing[symbol]
	candles, known := s.candles[symbol]
	s.mu.Unlock()

	if symbol == "" || interval == "" {
		writeBinanceError(w, http.StatusBadRequest, -1102, "Mandatory parameter was not sent.")
		return
	}

	if failing {
		writeBinanceError(w, status, -1000, "An unknown error occurred while processing the request.")
		return
	}

	if !known {
		writeBinanceError(w, http.StatusBadRequest, -1121, "Invalid symbol.")
		return
	}

	intervalDuration, ok := binanceIntervalDurations[interval]
	if !ok {
		writeBinanceError(w, http.StatusBadRequest, -1120, "Invalid interval.")
		return
	}

	limit := 500
	if v := query.Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	var startTime, endTime int64 = 0, -1
	if v := query.Get("startTime"); v != "" {
		startTime, _ = strconv.ParseInt(v, 10, 64)
	}

	if v := query.Get("endTime"); v != "" {
		endTime, _ = strconv.ParseInt(v, 10, 64)
	}

	selected := make([]types.MarketData, 0, len(candles))

	for _, c := range candles {
		openTime := c.Time.UnixMilli()
		if openTime < startTime || (endTime >= 0 && openTime > endTime) {
			continue
		}

		selected = append(selected, c)
	}

	// with a start time the first candles are returned, otherwise the latest ones
	if len(selected) > limit {
		if query.Get("startTime") != "" {
			selected = selected[:limit]
		} else {
			selected = selected[len(selected)-limit:]
		}
	}

	// [openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, takerBase, takerQuote, ignore]
	klines := make([][]any, 0, len(selected))
	for _, c := range selected {
		klines = append(klines, []any{
			c.Time.UnixMilli(),
			strconv.FormatFloat(c.Open, 'f', 8, 64),
			strconv.FormatFloat(c.High, 'f', 8, 64),
			strconv.FormatFloat(c.Low, 'f', 8, 64),
			strconv.FormatFloat(c.Close, 'f', 8, 64),
			strconv.FormatFloat(c.Volume, 'f', 8, 64),
			c.Time.Add(intervalDuration).UnixMilli() - 1,
			"0",
			0,
			"0",
			"0",
			"0",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(klines)
}

func writeBinanceError(w http.ResponseWriter, status int, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg})
}

var binanceIntervalDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}
