package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-bh/internal/config"
	"github.com/rxtech-lab/argo-bh/internal/scheduler"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the scheduled scan loop until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Log messages instead of sending them to Telegram",
			},
			&cli.BoolFlag{
				Name:  "now",
				Usage: "Run one cycle immediately after start, same as schedule.run_on_start",
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	dryRun := cmd.Bool("dry-run")
	if !dryRun {
		if err := a.cfg.ValidateForDelivery(); err != nil {
			return err
		}
	}

	s, err := a.newScanner()
	if err != nil {
		return err
	}

	rec, err := a.newRecorder()
	if err != nil {
		return err
	}
	defer rec.Close()

	schedConfig := a.cfg.SchedulerConfig()
	if cmd.Bool("now") {
		schedConfig.RunOnStart = true
	}

	sched, err := scheduler.NewScheduler(schedConfig, s, config.PairsFile{Path: a.cfg.Scan.PairsFile}, a.newNotifier(dryRun), rec, a.log)
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render("Upcoming scans"))

	for _, next := range sched.NextRuns(time.Now(), 3) {
		fmt.Println(HelpStyle.Render("  " + next.Local().Format(time.RFC1123)))
	}

	a.log.Info("Starting bot",
		zap.String("schedule", schedConfig.Schedule),
		zap.String("timeframe", schedConfig.Timeframe),
		zap.Bool("dry_run", dryRun),
		zap.Int("bots", len(a.cfg.Telegram.Bots)),
	)

	return sched.Run(ctx)
}
