package main

import (
	"context"

	"github.com/openfun/marsha-lambdas/cmd/lambda"
	"github.com/openfun/marsha-lambdas/pkg/aws"
	"github.com/openfun/marsha-lambdas/pkg/service/migration"
	"github.com/openfun/marsha-lambdas/pkg/telemetry"
)

var log = telemetry.NewSentryLogger("lambda/migrate")

func main() {
	lambda.Start(makeHandler)
}

// Event selects the migrations to run, all of them when empty.
type Event struct {
	Migrations []string `json:"migrations"`
}

func makeHandler(cfg aws.Config) any {
	runner := migration.NewRunner(
		migration.EncodeTimedTextTracks(
			aws.NewS3Client(cfg.Config),
			aws.NewLambdaInvoker(cfg.Config),
			aws.MustBeSet("S3_SOURCE_BUCKET", cfg.SourceBucket),
			aws.MustBeSet("LAMBDA_ENCODE_TIMED_TEXT_NAME", cfg.EncodeTimedTextFunction),
		),
	)

	return func(ctx context.Context, event Event) (map[string]int, error) {
		processed, err := runner.Run(ctx, event.Migrations...)
		if err != nil {
			log.Errorf("running migrations: %s", err)
			lambda.FlushErrors()
			return processed, err
		}
		return processed, nil
	}
}
