package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-bh/internal/notifier"
	"github.com/rxtech-lab/argo-bh/internal/scanner"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata"
)

// listItem implements list.Item for the interval list.
type listItem struct {
	name        string
	description string
}

func (i listItem) Title() string       { return i.name }
func (i listItem) Description() string { return i.description }
func (i listItem) FilterValue() string { return i.name }

// NewIntervalList lists every supported candle interval.
func NewIntervalList() list.Model {
	items := make([]list.Item, 0, len(marketdata.SupportedTimespans))
	for _, timespan := range marketdata.SupportedTimespans {
		items = append(items, listItem{name: string(timespan), description: timespan.Label() + " candles"})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select Interval"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// NewSignalTable creates the table of the watch view.
func NewSignalTable() table.Model {
	columns := []table.Column{
		{Title: "Coin", Width: 12},
		{Title: "Signal", Width: 8},
		{Title: "Price", Width: 16},
		{Title: "Body %", Width: 8},
		{Title: "Candle", Width: 18},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

func signalRow(signal types.Signal) table.Row {
	side := "BUY"
	if signal.Type == types.SignalTypeSellLong {
		side = "SELL"
	}

	return table.Row{
		notifier.CoinName(signal.Symbol),
		side,
		fmt.Sprintf("%.6g", signal.Price),
		fmt.Sprintf("%.1f", signal.Evidence.CurrentBodyPct),
		signal.Time.Local().Format("01-02 15:04"),
	}
}

// UpdateSignalRows shows BUY rows, then SELL rows, then failed symbols.
func UpdateSignalRows(t table.Model, result scanner.Result) table.Model {
	rows := make([]table.Row, 0, len(result.Buy)+len(result.Sell)+len(result.Failed))

	for _, signal := range result.Signals() {
		rows = append(rows, signalRow(signal))
	}

	for _, failure := range result.Failed {
		rows = append(rows, table.Row{notifier.CoinName(failure.Symbol), "ERROR", "", "", ""})
	}

	t.SetRows(rows)

	return t
}
