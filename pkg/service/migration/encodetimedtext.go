package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"
)

// EncodeTimedTextTracksName is the name of the timed text re-encoding
// migration.
const EncodeTimedTextTracksName = "0001_encode_timed_text_tracks"

const timedTextTrackMarker = "/timedtexttrack/"

// Invoker asynchronously invokes a lambda function with a JSON payload.
type Invoker interface {
	InvokeAsync(ctx context.Context, function string, payload []byte) error
}

type encodeConfig struct {
	concurrency int
}

type EncodeOption func(*encodeConfig)

// WithConcurrency caps the invocations in flight. By default, or when
// concurrency is not positive, a whole listing page is invoked at once.
func WithConcurrency(concurrency int) EncodeOption {
	return func(c *encodeConfig) {
		c.concurrency = concurrency
		if concurrency <= 0 {
			c.concurrency = -1
		}
	}
}

// EncodeTimedTextTracks returns the migration that asks the timed text
// encoding function to convert every timed text track found in bucket again.
// The function is invoked with the same S3 event it receives on upload.
func EncodeTimedTextTracks(lister s3.ListObjectsV2APIClient, invoker Invoker, bucket, function string, opts ...EncodeOption) Migration {
	cfg := encodeConfig{concurrency: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return Migration{
		Name: EncodeTimedTextTracksName,
		Run: func(ctx context.Context) (int, error) {
			return encodeTimedTextTracks(ctx, lister, invoker, bucket, function, cfg)
		},
	}
}

func encodeTimedTextTracks(ctx context.Context, lister s3.ListObjectsV2APIClient, invoker Invoker, bucket, function string, cfg encodeConfig) (int, error) {
	paginator := s3.NewListObjectsV2Paginator(lister, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})

	invoked := 0
	var errs error
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return invoked, errors.Join(errs, fmt.Errorf("listing %s: %w", bucket, err))
		}

		var keys []string
		for _, obj := range page.Contents {
			if key := aws.ToString(obj.Key); strings.Contains(key, timedTextTrackMarker) {
				keys = append(keys, key)
			}
		}

		// invoke for the page in parallel, failures do not stop the others
		results := make(chan error, len(keys))
		var g errgroup.Group
		g.SetLimit(cfg.concurrency)
		for _, key := range keys {
			g.Go(func() error {
				results <- invokeForKey(ctx, invoker, bucket, function, key)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
		for err := range results {
			if err != nil {
				errs = errors.Join(errs, err)
				continue
			}
			invoked++
		}
		log.Infow("page processed", "bucket", bucket, "objects", len(page.Contents), "tracks", len(keys))
	}
	return invoked, errs
}

func invokeForKey(ctx context.Context, invoker Invoker, bucket, function, key string) error {
	payload, err := json.Marshal(S3Event(bucket, key))
	if err != nil {
		return fmt.Errorf("encoding event for %s: %w", key, err)
	}
	if err := invoker.InvokeAsync(ctx, function, payload); err != nil {
		return fmt.Errorf("invoking %s for %s: %w", function, key, err)
	}
	return nil
}

// S3Event builds the single record event S3 sends when key is created in
// bucket. The key is URL encoded like S3 does.
func S3Event(bucket, key string) events.S3Event {
	return events.S3Event{
		Records: []events.S3EventRecord{{
			EventVersion: "2.1",
			EventSource:  "aws:s3",
			EventName:    "ObjectCreated:Put",
			S3: events.S3Entity{
				SchemaVersion: "1.0",
				Bucket:        events.S3Bucket{Name: bucket},
				Object:        events.S3Object{Key: escapeKey(key)},
			},
		}},
	}
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.QueryEscape(s)
	}
	return strings.Join(segments, "/")
}
