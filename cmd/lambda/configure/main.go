package main

import (
	"context"

	"github.com/openfun/marsha-lambdas/cmd/lambda"
	"github.com/openfun/marsha-lambdas/pkg/aws"
	"github.com/openfun/marsha-lambdas/pkg/service/presetsync"
	"github.com/openfun/marsha-lambdas/pkg/telemetry"
)

var log = telemetry.NewSentryLogger("lambda/configure")

func main() {
	lambda.Start(makeHandler)
}

func makeHandler(cfg aws.Config) any {
	env := aws.MustBeSet("ENV_TYPE", cfg.EnvType)

	return func(ctx context.Context) (presetsync.Result, error) {
		client, err := aws.NewMediaConvertClient(ctx, cfg.Config)
		if err != nil {
			log.Errorf("configuring mediaconvert: %s", err)
			lambda.FlushErrors()
			return presetsync.Result{}, err
		}
		syncer, err := presetsync.NewSyncer(client, env)
		if err != nil {
			return presetsync.Result{}, err
		}
		res, err := syncer.Sync(ctx)
		if err != nil {
			log.Errorf("syncing presets: %s", err)
			lambda.FlushErrors()
			return res, err
		}
		return res, nil
	}
}
