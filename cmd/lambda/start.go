package lambda

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/openfun/marsha-lambdas/pkg/aws"
	"github.com/openfun/marsha-lambdas/pkg/marsha"
	"github.com/openfun/marsha-lambdas/pkg/telemetry"
	goredis "github.com/redis/go-redis/v9"
)

// handlerFactory is a factory function that returns a function suitable to use as a lambda handler. See
// https://docs.aws.amazon.com/lambda/latest/dg/golang-handler.html#golang-handler-signatures for information on the
// valid signatures a handler function can have to be used as a lambda handler.
type handlerFactory func(cfg aws.Config) any

// webhookTimeout bounds every call to Marsha.
const webhookTimeout = 30 * time.Second

var flushErrors = func() {}

// Start starts the lambda with the handler obtained from the factory function. makeHandler is a factory function that
// returns a handler suitable to use as a lambda handler.
// The handler is instrumented with OpenTelemetry if a Honeycomb API key is provided, and errors are reported to
// Sentry if a DSN is provided.
func Start(makeHandler handlerFactory) {
	ctx := context.Background()
	cfg := aws.FromEnv(ctx)

	flush, err := telemetry.SetupSentry(cfg.SentryDSN, cfg.EnvType)
	if err != nil {
		panic(err)
	}
	flushErrors = flush
	onSIGTERM := []func(){flush}

	// an empty API key disables instrumentation
	if cfg.HoneycombAPIKey != "" {
		telemetryShutdown, err := telemetry.SetupTelemetry(ctx, &cfg.Config)
		if err != nil {
			panic(err)
		}
		onSIGTERM = append(onSIGTERM, func() { telemetryShutdown(ctx) })

		handler := telemetry.GetInstrumentedLambdaHandler(makeHandler(cfg))
		lambda.StartWithOptions(handler, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(onSIGTERM...))
	} else {
		lambda.StartWithOptions(makeHandler(cfg), lambda.WithContext(ctx), lambda.WithEnableSIGTERM(onSIGTERM...))
	}
}

// FlushErrors sends the errors captured during the invocation before the
// execution environment is frozen.
func FlushErrors() {
	flushErrors()
}

// Invocation returns the log group and request id of the running invocation.
// Outside of lambda the log group is empty and a random request id is used.
func Invocation(ctx context.Context) (logGroupName string, requestID string) {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lambdacontext.LogGroupName, lc.AwsRequestID
	}
	return lambdacontext.LogGroupName, uuid.NewString()
}

// NewMarshaClient returns the webhook client configured by MARSHA_URL and the
// shared secret.
func NewMarshaClient(cfg aws.Config) *marsha.Client {
	var opts []marsha.Option
	if cfg.HoneycombAPIKey != "" {
		opts = append(opts, marsha.WithHTTPClient(telemetry.GetInstrumentedHTTPClient(webhookTimeout)))
	}
	client, err := marsha.New(
		aws.MustBeSet("MARSHA_URL", cfg.MarshaURL),
		aws.MustBeSet("SHARED_SECRET", cfg.SharedSecret),
		opts...,
	)
	if err != nil {
		panic(fmt.Errorf("creating marsha client: %w", err))
	}
	return client
}

// NewRedisClient returns a client for opts, traced when telemetry is enabled.
func NewRedisClient(cfg aws.Config, opts *goredis.Options) *goredis.Client {
	if cfg.HoneycombAPIKey == "" {
		return goredis.NewClient(opts)
	}
	client, err := telemetry.GetInstrumentedRedisClient(opts)
	if err != nil {
		panic(err)
	}
	return client
}
