package main

import (
	"fmt"

	"github.com/openfun/marsha-lambdas/pkg/aws"
	"github.com/openfun/marsha-lambdas/pkg/service/migration"
	"github.com/urfave/cli/v2"
)

var migrateCmd = &cli.Command{
	Name:      "migrate",
	Usage:     "run data migrations, all of them when no name is given",
	ArgsUsage: "[name...]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "source-bucket",
			EnvVars:  []string{"S3_SOURCE_BUCKET"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "encode-function",
			EnvVars:  []string{"LAMBDA_ENCODE_TIMED_TEXT_NAME"},
			Usage:    "name of the timed text encoding lambda",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "maximum invocations in flight, a whole listing page when 0",
		},
		&cli.BoolFlag{
			Name:  "list",
			Usage: "only list the migrations",
		},
	},
	Action: func(cCtx *cli.Context) error {
		cfg := aws.FromEnv(cCtx.Context)
		runner := migration.NewRunner(
			migration.EncodeTimedTextTracks(
				aws.NewS3Client(cfg.Config),
				aws.NewLambdaInvoker(cfg.Config),
				cCtx.String("source-bucket"),
				cCtx.String("encode-function"),
				migration.WithConcurrency(cCtx.Int("concurrency")),
			),
		)
		if cCtx.Bool("list") {
			for _, name := range runner.Names() {
				fmt.Println(name)
			}
			return nil
		}

		processed, err := runner.Run(cCtx.Context, cCtx.Args().Slice()...)
		for name, n := range processed {
			fmt.Printf("%s: %d\n", name, n)
		}
		return err
	},
}
