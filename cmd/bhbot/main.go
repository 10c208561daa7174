package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-bh/internal/version"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:    "bhbot",
		Usage:   "Bollinger Band and Heikin-Ashi reversal signals for crypto pairs",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the bot configuration `FILE`. A missing file means defaults plus environment",
				Value:   "config/bhbot.yaml",
				Sources: cli.EnvVars("BH_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			scanCommand(),
			watchCommand(),
			runCommand(),
			backtestCommand(),
			downloadCommand(),
			historyCommand(),
			schemaCommand(),
			versionCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		stop()
		os.Exit(errors.ExitCode(err))
	}
}
