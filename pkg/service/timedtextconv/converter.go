package timedtextconv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/openfun/marsha-lambdas/pkg/timedtext"
	"github.com/openfun/marsha-lambdas/pkg/types"
)

var log = logging.Logger("timedtextconv")

// BucketOpener returns the store for the named bucket.
type BucketOpener func(bucket string) types.ObjectStore

// Conversion describes a completed conversion.
type Conversion struct {
	ObjectKey      string
	DestinationKey string
	SourceKey      string
	Format         timedtext.Format
	Mode           timedtext.Mode
	ConvertedAt    time.Time
}

// Recorder keeps track of completed conversions.
type Recorder interface {
	Record(ctx context.Context, conversion Conversion) error
}

// InvalidFormatError means the uploaded object is not a readable timed text file.
type InvalidFormatError struct {
	Key string
	Err error
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("Invalid timed text format for %s.", e.Key)
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// Converter turns uploaded timed text tracks into WebVTT files.
type Converter struct {
	openBucket  BucketOpener
	destination types.ObjectStore
	recorder    Recorder
	now         func() time.Time
}

type Option func(*Converter)

// WithRecorder records every successful conversion.
func WithRecorder(recorder Recorder) Option {
	return func(c *Converter) {
		c.recorder = recorder
	}
}

// WithClock sets the clock used to timestamp conversions.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.now = now
	}
}

// NewConverter returns a converter reading uploads from buckets opened with
// openBucket and writing results to destination.
func NewConverter(openBucket BucketOpener, destination types.ObjectStore, opts ...Option) *Converter {
	c := &Converter{
		openBucket:  openBucket,
		destination: destination,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert reads the track uploaded at bucket/key, writes its WebVTT rendition
// and a copy of the original to the destination store and returns the format
// the track was uploaded in.
func (c *Converter) Convert(ctx context.Context, bucket string, key string) (timedtext.Format, error) {
	body, err := c.openBucket(bucket).Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("reading timed text track %s: %w", key, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading timed text track %s: %w", key, err)
	}

	format, captions, err := timedtext.Parse(string(data))
	if err != nil {
		return "", &InvalidFormatError{Key: key, Err: err}
	}

	mode := timedtext.ModeFromKey(key)
	vtt := []byte(timedtext.BuildVTT(captions, timedtext.Options{Escape: mode.Escape()}))
	destinationKey := timedtext.DestinationKey(key)
	if err := c.destination.Put(ctx, destinationKey, uint64(len(vtt)), bytes.NewReader(vtt)); err != nil {
		return "", fmt.Errorf("writing %s: %w", destinationKey, err)
	}
	sourceKey := timedtext.SourceKey(key)
	if err := c.destination.Put(ctx, sourceKey, uint64(len(data)), bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("writing %s: %w", sourceKey, err)
	}
	log.Infow("converted timed text track", "key", key, "format", format, "mode", mode, "cues", len(captions))

	if c.recorder != nil {
		err := c.recorder.Record(ctx, Conversion{
			ObjectKey:      key,
			DestinationKey: destinationKey,
			SourceKey:      sourceKey,
			Format:         format,
			Mode:           mode,
			ConvertedAt:    c.now().UTC(),
		})
		if err != nil {
			log.Warnf("recording conversion of %s: %s", key, err)
		}
	}
	return format, nil
}
