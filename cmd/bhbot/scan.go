package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-bh/internal/notifier"
	"github.com/rxtech-lab/argo-bh/internal/scanner"
	"github.com/rxtech-lab/argo-bh/internal/scheduler"
	"github.com/urfave/cli/v3"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan the trading pairs once and print the signals",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "symbols",
				Aliases: []string{"s"},
				Usage:   "Symbols to scan instead of the pairs file, e.g. BTCUSDT,ETH/USDT",
			},
			&cli.BoolFlag{
				Name:  "send",
				Usage: "Send the message to the configured Telegram bots and record the run",
			},
		},
		Action: scanAction,
	}
}

func scanAction(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.newScanner()
	if err != nil {
		return err
	}

	symbols, err := a.resolveSymbols(cmd.StringSlice("symbols"))
	if err != nil {
		return err
	}

	if !cmd.Bool("send") {
		result, err := s.Scan(ctx, symbols)
		if err != nil {
			return err
		}

		fmt.Println(renderScanResult(a.cfg.Scan.Timeframe, result))

		return nil
	}

	if err := a.cfg.ValidateForDelivery(); err != nil {
		return err
	}

	rec, err := a.newRecorder()
	if err != nil {
		return err
	}
	defer rec.Close()

	sched, err := scheduler.NewScheduler(a.cfg.SchedulerConfig(), s, scheduler.StaticPairs(symbols...), a.newNotifier(false), rec, a.log)
	if err != nil {
		return err
	}

	report, err := sched.RunCycle(ctx)
	if err != nil {
		return err
	}

	fmt.Println(renderScanResult(a.cfg.Scan.Timeframe, report.Result))

	if !report.Notified {
		fmt.Println(ErrorStyle.Render("Notification was not delivered to any bot"))
	}

	return nil
}

// renderScanResult renders the coloured terminal view of a scan.
func renderScanResult(timeframe string, result scanner.Result) string {
	var sb strings.Builder

	sb.WriteString(TitleStyle.Render(fmt.Sprintf("Scan (%s), %d pairs", timeframe, result.Scanned)))
	sb.WriteString("\n\n")

	writeSide := func(title string, style func(...string) string, symbols []string) {
		sb.WriteString(style(title))
		sb.WriteString("\n")

		if len(symbols) == 0 {
			sb.WriteString(HelpStyle.Render("  none"))
			sb.WriteString("\n")

			return
		}

		for _, symbol := range symbols {
			fmt.Fprintf(&sb, "  %s\n", notifier.CoinName(symbol))
		}
	}

	writeSide("BUY", BuyStyle.Render, result.BuySymbols())
	sb.WriteString("\n")
	writeSide("SELL", SellStyle.Render, result.SellSymbols())

	if len(result.Failed) > 0 {
		sb.WriteString("\n")
		sb.WriteString(ErrorStyle.Render(fmt.Sprintf("Failed (%d)", len(result.Failed))))
		sb.WriteString("\n")

		for _, failure := range result.Failed {
			fmt.Fprintf(&sb, "  %s: %v\n", failure.Symbol, failure.Err)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(BoxStyle.Render(strings.TrimRight(notifier.FormatSignals(timeframe, result.BuySymbols(), result.SellSymbols()), "\n")))

	return sb.String()
}
