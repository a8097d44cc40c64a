package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/openfun/marsha-lambdas/cmd/lambda"
	"github.com/openfun/marsha-lambdas/pkg/aws"
	"github.com/openfun/marsha-lambdas/pkg/redis"
	"github.com/openfun/marsha-lambdas/pkg/service/harvest"
	"github.com/openfun/marsha-lambdas/pkg/telemetry"
)

var log = telemetry.NewSentryLogger("lambda/checkharvested")

func main() {
	lambda.Start(makeHandler)
}

func makeHandler(cfg aws.Config) any {
	var opts []harvest.Option
	if cfg.HarvestLedgerRedis != nil {
		opts = append(opts, harvest.WithLedger(redis.NewHarvestLedger(lambda.NewRedisClient(cfg, cfg.HarvestLedgerRedis))))
	}
	poller := harvest.NewPoller(aws.NewS3BucketOpener(aws.NewS3Client(cfg.Config)), lambda.NewMarshaClient(cfg), opts...)

	return func(ctx context.Context, event events.EventBridgeEvent) (bool, error) {
		harvested, err := handleEvent(ctx, poller, cfg.DestinationBucket, event)
		if err != nil {
			log.Errorf("checking harvest: %s", err)
			lambda.FlushErrors()
			return false, err
		}
		return harvested, nil
	}
}

// handleEvent checks the harvest described by the event detail. Manifests
// without a bucket are read from defaultBucket.
func handleEvent(ctx context.Context, poller *harvest.Poller, defaultBucket string, event events.EventBridgeEvent) (bool, error) {
	var detail harvest.Event
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return false, fmt.Errorf("decoding event detail: %w", err)
	}
	if detail.Bucket == "" {
		detail.Bucket = defaultBucket
	}

	logGroupName, requestID := lambda.Invocation(ctx)
	harvested, err := poller.Check(ctx, detail, harvest.Invocation{LogGroupName: logGroupName, RequestID: requestID})
	if err != nil {
		return false, fmt.Errorf("%s: %w", detail.Key, err)
	}
	return harvested, nil
}
