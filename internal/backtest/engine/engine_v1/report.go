package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-bh/internal/types"
)

// Summary aggregates the reports of a multi-symbol backtest.
type Summary struct {
	PairsTested           int     `yaml:"pairs_tested" json:"pairs_tested"`
	ProfitablePairs       int     `yaml:"profitable_pairs" json:"profitable_pairs"`
	TotalTrades           int     `yaml:"total_trades" json:"total_trades"`
	TotalSignals          int     `yaml:"total_signals" json:"total_signals"`
	BuySignals            int     `yaml:"buy_signals" json:"buy_signals"`
	SellSignals           int     `yaml:"sell_signals" json:"sell_signals"`
	AverageFinalCapital   float64 `yaml:"average_final_capital" json:"average_final_capital"`
	AverageBuyAndHoldPnL  float64 `yaml:"average_buy_and_hold_pnl" json:"average_buy_and_hold_pnl"`
	AverageWinRate        float64 `yaml:"average_win_rate" json:"average_win_rate"`
	TotalSkippedSteps     int     `yaml:"total_skipped_steps" json:"total_skipped_steps"`
	PairsWithOpenPosition int     `yaml:"pairs_with_open_position" json:"pairs_with_open_position"`
}

// Summarize folds the reports into a Summary. A pair is profitable when its total profit is positive.
func Summarize(reports []types.BacktestReport) Summary {
	summary := Summary{PairsTested: len(reports)}
	if len(reports) == 0 {
		return summary
	}

	var capital, buyAndHold, winRate float64

	for _, report := range reports {
		if report.TotalProfit > 0 {
			summary.ProfitablePairs++
		}

		if report.OpenPosition != nil {
			summary.PairsWithOpenPosition++
		}

		summary.TotalTrades += report.TotalTrades()
		summary.TotalSkippedSteps += report.SkippedSteps

		for _, signal := range report.Signals {
			summary.TotalSignals++

			if signal.Type == types.SignalTypeBuyLong {
				summary.BuySignals++
			} else {
				summary.SellSignals++
			}
		}

		capital += report.FinalCapital
		buyAndHold += report.BuyAndHoldPnL
		winRate += report.TradeResult.WinRate
	}

	count := float64(len(reports))
	summary.AverageFinalCapital = capital / count
	summary.AverageBuyAndHoldPnL = buyAndHold / count
	summary.AverageWinRate = winRate / count

	return summary
}

// FormatReport renders a report as plain text.
func FormatReport(report types.BacktestReport) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== Backtest Report for %s ===\n", report.Symbol)
	fmt.Fprintf(&sb, "Initial Capital: $%.2f\n", report.InitialCapital)
	fmt.Fprintf(&sb, "Final Capital: $%.2f\n", report.FinalCapital)
	fmt.Fprintf(&sb, "Total Profit/Loss: $%.2f\n", report.TotalProfit)
	fmt.Fprintf(&sb, "Returns: %.2f%%\n", report.ReturnPct)
	fmt.Fprintf(&sb, "Buy and Hold P/L: $%.2f\n", report.BuyAndHoldPnL)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Total Trades: %d\n", report.TradeResult.NumberOfTrades)
	fmt.Fprintf(&sb, "Winning Trades: %d\n", report.TradeResult.NumberOfWinningTrades)
	fmt.Fprintf(&sb, "Losing Trades: %d\n", report.TradeResult.NumberOfLosingTrades)
	fmt.Fprintf(&sb, "Win Rate: %.2f%%\n", report.TradeResult.WinRate*100)

	if report.OpenPosition != nil {
		fmt.Fprintf(&sb, "Open Position: %.6f @ $%.4f (unrealized $%.2f)\n",
			report.OpenPosition.Size, report.OpenPosition.EntryPrice, report.UnrealizedPnL)
	}

	if report.SkippedSteps > 0 {
		fmt.Fprintf(&sb, "Skipped Steps: %d\n", report.SkippedSteps)
	}

	if report.InvalidCandles > 0 {
		fmt.Fprintf(&sb, "Invalid Candles: %d\n", report.InvalidCandles)
	}

	return sb.String()
}

// FormatSignalHistory renders one line per signal: time, side, price and body percentage.
func FormatSignalHistory(signals []types.Signal) string {
	var sb strings.Builder

	for _, signal := range signals {
		side := "BUY"
		if signal.Type == types.SignalTypeSellLong {
			side = "SELL"
		}

		fmt.Fprintf(&sb, "%s | %-4s | Price: $%.4f | Body: %.2f%%\n",
			signal.Time.UTC().Format(time.DateTime), side, signal.Price, signal.Evidence.CurrentBodyPct)
	}

	return sb.String()
}

// FormatSummary renders a Summary as plain text.
func FormatSummary(summary Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Total pairs backtested: %d\n", summary.PairsTested)
	fmt.Fprintf(&sb, "Profitable pairs: %d\n", summary.ProfitablePairs)
	fmt.Fprintf(&sb, "Total trades executed: %d\n", summary.TotalTrades)
	fmt.Fprintf(&sb, "Total signals: %d (buy %d, sell %d)\n", summary.TotalSignals, summary.BuySignals, summary.SellSignals)
	fmt.Fprintf(&sb, "Average capital per pair: $%.2f\n", summary.AverageFinalCapital)

	return sb.String()
}
