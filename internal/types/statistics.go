package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeResult struct {
	// Count of closed round trips.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// Count of trades that has positive profit.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	// Count of trades that has negative profit.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades" json:"number_of_losing_trades"`
	// Win rate as a fraction of closed trades. 0 when there are no trades.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
}

// BacktestReport is the result of replaying the detector over one candle sequence.
type BacktestReport struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the trading pair.
	Symbol string `yaml:"symbol" json:"symbol"`

	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	FinalCapital   float64 `yaml:"final_capital" json:"final_capital"`
	// TotalProfit is the sum of realized trade profits. FinalCapital = InitialCapital + TotalProfit.
	TotalProfit float64 `yaml:"total_profit" json:"total_profit"`
	// ReturnPct is (FinalCapital - InitialCapital) / InitialCapital * 100.
	ReturnPct float64 `yaml:"return_pct" json:"return_pct"`

	TradeResult TradeResult `yaml:"trade_result" json:"trade_result"`
	// BuyAndHoldPnL is the profit of buying at the first evaluated close and holding to the last close.
	BuyAndHoldPnL float64 `yaml:"buy_and_hold_pnl" json:"buy_and_hold_pnl"`
	// UnrealizedPnL values the open position, if any, at the last close.
	UnrealizedPnL float64 `yaml:"unrealized_pnl" json:"unrealized_pnl"`

	// Candles is the length of the replayed sequence.
	Candles int `yaml:"candles" json:"candles"`
	// SkippedSteps counts evaluation steps that failed and were skipped.
	SkippedSteps int `yaml:"skipped_steps" json:"skipped_steps"`
	// InvalidCandles counts input candles dropped before the replay.
	InvalidCandles int `yaml:"invalid_candles" json:"invalid_candles"`

	Signals      []Signal  `yaml:"signals" json:"signals"`
	Trades       []Trade   `yaml:"trades" json:"trades"`
	OpenPosition *Position `yaml:"open_position,omitempty" json:"open_position,omitempty"`

	// TradesFilePath is the path to the trades parquet file, when results were exported.
	TradesFilePath string `yaml:"trades_file_path,omitempty" json:"trades_file_path,omitempty"`
	// SignalsFilePath is the path to the signals parquet file, when results were exported.
	SignalsFilePath string `yaml:"signals_file_path,omitempty" json:"signals_file_path,omitempty"`
}

// TotalTrades returns the number of closed round trips.
func (r BacktestReport) TotalTrades() int {
	return r.TradeResult.NumberOfTrades
}

func WriteBacktestReports(path string, reports []BacktestReport) error {
	data, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest reports to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest reports to file: %w", err)
	}

	return nil
}

// ReadBacktestReports reads reports previously written by WriteBacktestReports.
func ReadBacktestReports(path string) ([]BacktestReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backtest reports: %w", err)
	}

	var reports []BacktestReport
	if err := yaml.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backtest reports: %w", err)
	}

	return reports, nil
}
