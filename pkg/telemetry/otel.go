package telemetry

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	lambdadetector "go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/trace"
)

var tracerProvider *trace.TracerProvider

// SetupTelemetry configures the OpenTelemetry SDK by setting up a global tracer provider.
// It also adds instrumentation middleware to the config so that all AWS SDK clients based on that config are instrumented.
// This function updates the configuration in place. It should be called before any AWS SDK clients are created.
func SetupTelemetry(ctx context.Context, cfg *aws.Config) (func(context.Context), error) {
	// traces go to the collector layer running next to the function
	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	resource, err := lambdadetector.NewResourceDetector().Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detecting lambda resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(resource),
	)
	tracerProvider = tp
	otel.SetTracerProvider(tp)

	// instrument all aws clients
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	return func(ctx context.Context) {
		if err := tp.Shutdown(ctx); err != nil {
			fmt.Printf("error shutting down tracer provider: %v", err)
		}
	}, nil
}

// GetInstrumentedLambdaHandler wraps handler so every invocation is traced.
// Spans are flushed at the end of each invocation since the execution
// environment may be frozen right after.
func GetInstrumentedLambdaHandler(handler any) any {
	opts := []otellambda.Option{otellambda.WithTracerProvider(otel.GetTracerProvider())}
	if tracerProvider != nil {
		opts = append(opts, otellambda.WithFlusher(tracerProvider))
	}
	return otellambda.InstrumentHandler(handler, opts...)
}

// GetInstrumentedHTTPClient returns the client used for the Marsha webhooks.
func GetInstrumentedHTTPClient(timeout time.Duration) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   timeout,
	}
}

func GetInstrumentedRedisClient(opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrumenting redis client: %w", err)
	}
	return client, nil
}
