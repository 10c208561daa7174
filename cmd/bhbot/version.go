package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rxtech-lab/argo-bh/internal/version"
	"github.com/urfave/cli/v3"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Printf("bhbot %s (%s, %s/%s)\n", version.GetVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)

			return nil
		},
	}
}
