package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/openfun/marsha-lambdas/cmd/lambda"
	"github.com/openfun/marsha-lambdas/pkg/aws"
	"github.com/openfun/marsha-lambdas/pkg/service/timedtextconv"
	"github.com/openfun/marsha-lambdas/pkg/telemetry"
)

var log = telemetry.NewSentryLogger("lambda/encodetimedtext")

func main() {
	lambda.Start(makeHandler)
}

func makeHandler(cfg aws.Config) any {
	s3Client := aws.NewS3Client(cfg.Config)
	destination := aws.NewS3StoreWithClient(s3Client, aws.MustBeSet("S3_DESTINATION_BUCKET", cfg.DestinationBucket), "")
	var opts []timedtextconv.Option
	if cfg.ConversionTableName != "" {
		opts = append(opts, timedtextconv.WithRecorder(aws.NewDynamoConversionTable(cfg.Config, cfg.ConversionTableName)))
	}
	conv := timedtextconv.NewConverter(aws.NewS3BucketOpener(s3Client), destination, opts...)

	return func(ctx context.Context, event events.S3Event) (string, error) {
		formats, err := handleEvent(ctx, conv, event)
		if err != nil {
			log.Errorf("encoding timed text: %s", err)
			lambda.FlushErrors()
			return "", err
		}
		return strings.Join(formats, ","), nil
	}
}

// handleEvent converts every object of the event in order and returns the
// detected source formats.
func handleEvent(ctx context.Context, conv *timedtextconv.Converter, event events.S3Event) ([]string, error) {
	var formats []string
	for _, record := range event.Records {
		// S3 event keys are URL encoded with spaces as '+'
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return formats, fmt.Errorf("decoding key %q: %w", record.S3.Object.Key, err)
		}
		format, err := conv.Convert(ctx, record.S3.Bucket.Name, key)
		if err != nil {
			return formats, err
		}
		formats = append(formats, format.String())
	}
	return formats, nil
}
