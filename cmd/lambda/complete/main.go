package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/openfun/marsha-lambdas/cmd/lambda"
	"github.com/openfun/marsha-lambdas/pkg/aws"
	"github.com/openfun/marsha-lambdas/pkg/service/complete"
	"github.com/openfun/marsha-lambdas/pkg/telemetry"
)

var log = telemetry.NewSentryLogger("lambda/complete")

func main() {
	lambda.Start(makeHandler)
}

func makeHandler(cfg aws.Config) any {
	reporter := complete.NewReporter(lambda.NewMarshaClient(cfg))

	return func(ctx context.Context, event events.EventBridgeEvent) error {
		if _, err := handleEvent(ctx, reporter, event); err != nil {
			log.Errorf("reporting job: %s", err)
			lambda.FlushErrors()
			return err
		}
		return nil
	}
}

// handleEvent reports the job carried by a "MediaConvert Job State Change"
// event and returns whether Marsha was notified.
func handleEvent(ctx context.Context, reporter *complete.Reporter, event events.EventBridgeEvent) (bool, error) {
	var detail complete.JobDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return false, fmt.Errorf("decoding job detail: %w", err)
	}
	return reporter.Report(ctx, detail)
}
