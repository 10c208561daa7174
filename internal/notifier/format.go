package notifier

import (
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata"
)

// QuoteAsset is stripped from symbols when they are shown as coin names.
const QuoteAsset = "USDT"

// CoinName strips the quote asset from a pair symbol: "ARB/USDT" and "ARBUSDT" both give "ARB".
func CoinName(symbol string) string {
	name := strings.TrimSuffix(symbol, "/"+QuoteAsset)
	if name == symbol {
		name = strings.TrimSuffix(symbol, QuoteAsset)
	}

	if name == "" {
		return symbol
	}

	return name
}

// FormatSignals renders the BUY and SELL symbols of one cycle as a Markdown message.
// timeframe is an interval such as "2h" and is shown as its label ("2Hr").
func FormatSignals(timeframe string, buy, sell []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s BH*:\n\n", marketdata.Timespan(timeframe).Label())

	writeSection(&b, "BUY", buy)
	b.WriteString("\n")
	writeSection(&b, "SELL", sell)

	return b.String()
}

// FormatSignalList splits signals by type and renders them with FormatSignals.
func FormatSignalList(timeframe string, signals []types.Signal) string {
	var buy, sell []string

	for _, s := range signals {
		switch s.Type {
		case types.SignalTypeBuyLong:
			buy = append(buy, s.Symbol)
		case types.SignalTypeSellLong:
			sell = append(sell, s.Symbol)
		}
	}

	return FormatSignals(timeframe, buy, sell)
}

func writeSection(b *strings.Builder, title string, symbols []string) {
	fmt.Fprintf(b, "*%s*:\n", title)

	if len(symbols) == 0 {
		b.WriteString("  • None\n")

		return
	}

	for _, symbol := range symbols {
		fmt.Fprintf(b, "  • %s\n", CoinName(symbol))
	}
}
