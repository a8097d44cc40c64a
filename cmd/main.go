package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/openfun/marsha-lambdas/pkg/build"
	"github.com/openfun/marsha-lambdas/pkg/telemetry"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("cmd")

func main() {
	logging.SetLogLevel("*", "info")

	var shutdownTelemetry func()
	app := &cli.App{
		Name:    "marsha-lambdas",
		Usage:   "Run the Marsha lambda operations from the command line.",
		Version: build.Version,
		Before: func(cCtx *cli.Context) error {
			shutdown, err := telemetry.SetupClientTelemetry(cCtx.Context)
			if err != nil {
				return err
			}
			shutdownTelemetry = func() { _ = shutdown(cCtx.Context) }
			return nil
		},
		After: func(cCtx *cli.Context) error {
			if shutdownTelemetry != nil {
				shutdownTelemetry()
			}
			return nil
		},
		Commands: []*cli.Command{
			timedTextCmd,
			migrateCmd,
			presetsCmd,
			attendanceCmd,
			signatureCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
