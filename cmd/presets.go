package main

import (
	"fmt"

	"github.com/openfun/marsha-lambdas/pkg/aws"
	"github.com/openfun/marsha-lambdas/pkg/presets"
	"github.com/openfun/marsha-lambdas/pkg/service/presetsync"
	"github.com/urfave/cli/v2"
)

var presetsCmd = &cli.Command{
	Name:  "presets",
	Usage: "manage the MediaConvert presets",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "list the presets shipped with this binary",
			Flags: []cli.Flag{envFlag},
			Action: func(cCtx *cli.Context) error {
				all, err := presets.All()
				if err != nil {
					return err
				}
				for _, p := range all {
					fmt.Printf("%s\t%s\n", p.QualifiedName(cCtx.String("env")), p.Description)
				}
				return nil
			},
		},
		{
			Name:  "sync",
			Usage: "create or update the presets of an environment",
			Flags: []cli.Flag{envFlag},
			Action: func(cCtx *cli.Context) error {
				cfg := aws.FromEnv(cCtx.Context)
				client, err := aws.NewMediaConvertClient(cCtx.Context, cfg.Config)
				if err != nil {
					return err
				}
				syncer, err := presetsync.NewSyncer(client, cCtx.String("env"))
				if err != nil {
					return err
				}
				res, err := syncer.Sync(cCtx.Context)
				for _, name := range res.Created {
					fmt.Printf("created %s\n", name)
				}
				for _, name := range res.Updated {
					fmt.Printf("updated %s\n", name)
				}
				return err
			},
		},
	},
}

var envFlag = &cli.StringFlag{
	Name:     "env",
	EnvVars:  []string{"ENV_TYPE"},
	Usage:    "environment prefixing the preset names",
	Required: true,
}
