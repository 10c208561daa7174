package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-bh/internal/config"
	"github.com/rxtech-lab/argo-bh/internal/recorder"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show signals recorded by previous scan cycles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "symbol",
				Usage: "Only show this symbol",
			},
			&cli.StringFlag{
				Name:  "side",
				Usage: "Only show buy or sell signals",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of signals",
				Value:   50,
			},
		},
		Action: historyAction,
	}
}

func parseSide(side string) (types.SignalType, error) {
	switch strings.ToLower(side) {
	case "":
		return "", nil
	case "buy":
		return types.SignalTypeBuyLong, nil
	case "sell":
		return types.SignalTypeSellLong, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "side must be buy or sell, got %q", side)
	}
}

func historyAction(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Database.SQLitePath == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "signal history needs database.sqlite_path")
	}

	side, err := parseSide(cmd.String("side"))
	if err != nil {
		return err
	}

	rec, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.log)
	if err != nil {
		return err
	}
	defer rec.Close()

	runs, err := rec.CountRuns(ctx)
	if err != nil {
		return err
	}

	records, err := rec.RecentSignals(ctx, recorder.SignalQuery{
		Symbol: config.NormalizeSymbol(cmd.String("symbol")),
		Type:   side,
		Limit:  int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("%d signals from %d recorded scans", len(records), runs)))

	for _, record := range records {
		label := BuyStyle.Render("BUY ")
		if record.Signal.Type == types.SignalTypeSellLong {
			label = SellStyle.Render("SELL")
		}

		fmt.Printf("%s  %s  %-12s  %.6g  %s\n",
			record.Signal.Time.Local().Format(time.DateTime),
			label,
			record.Signal.Symbol,
			record.Signal.Price,
			HelpStyle.Render(fmt.Sprintf("body %.1f%%", record.Signal.Evidence.CurrentBodyPct)),
		)
	}

	return nil
}
