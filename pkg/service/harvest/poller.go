// Package harvest checks whether the files produced by harvesting a live are
// all available and reports the live as harvested once they are.
package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	logging "github.com/ipfs/go-log/v2"
	"github.com/openfun/marsha-lambdas/pkg/marsha"
	"github.com/openfun/marsha-lambdas/pkg/types"
)

var log = logging.Logger("harvest")

// ErrInvalidManifest means the manifest could not be used to check a harvest
var ErrInvalidManifest = errors.New("invalid harvest manifest")

// Event names the manifest object describing a harvest.
type Event struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Resolution is a video height in pixels. Manifests may list them as JSON
// numbers or strings.
type Resolution int

func (r *Resolution) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(bytes.TrimSpace(data))
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid resolution %s: %w", data, err)
	}
	*r = Resolution(n)
	return nil
}

// Manifest lists the files a harvest is expected to produce.
type Manifest struct {
	VideoID     string       `json:"video_id"`
	Files       []string     `json:"files"`
	Resolutions []Resolution `json:"resolutions"`
}

// Invocation identifies the lambda invocation reporting the state.
type Invocation struct {
	LogGroupName string
	RequestID    string
}

// LiveStateUpdater sends live state updates to Marsha.
type LiveStateUpdater interface {
	UpdateLiveState(ctx context.Context, videoID string, update marsha.LiveStateUpdate) error
}

// Ledger remembers which videos were already reported as harvested.
type Ledger interface {
	Notified(ctx context.Context, videoID string) (bool, error)
	MarkNotified(ctx context.Context, videoID string) error
}

// BucketOpener returns the store for the named bucket.
type BucketOpener func(bucket string) types.ObjectStore

// Poller checks harvest manifests.
type Poller struct {
	openBucket BucketOpener
	updater    LiveStateUpdater
	ledger     Ledger
}

type Option func(*Poller)

// WithLedger skips videos the ledger already knows as reported.
func WithLedger(ledger Ledger) Option {
	return func(p *Poller) {
		p.ledger = ledger
	}
}

// NewPoller returns a poller reading manifests and harvested files from
// buckets opened with openBucket.
func NewPoller(openBucket BucketOpener, updater LiveStateUpdater, opts ...Option) *Poller {
	p := &Poller{openBucket: openBucket, updater: updater}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check reads the manifest named by event and reports the live as harvested
// when every listed file exists. A missing file is not an error, the harvest
// is simply not complete yet. It returns whether the live is harvested.
func (p *Poller) Check(ctx context.Context, event Event, invocation Invocation) (bool, error) {
	bucket := p.openBucket(event.Bucket)
	manifest, err := readManifest(ctx, bucket, event.Key)
	if err != nil {
		return false, err
	}

	for _, file := range manifest.Files {
		ok, err := bucket.Has(ctx, file)
		if err != nil {
			return false, fmt.Errorf("checking %s: %w", file, err)
		}
		if !ok {
			log.Infow("harvested file not available yet", "video", manifest.VideoID, "file", file)
			return false, nil
		}
	}

	if p.ledger != nil {
		notified, err := p.ledger.Notified(ctx, manifest.VideoID)
		if err != nil {
			log.Warnf("reading harvest ledger for %s: %s", manifest.VideoID, err)
		} else if notified {
			log.Infow("harvest already reported", "video", manifest.VideoID)
			return true, nil
		}
	}

	resolutions := make([]int, 0, len(manifest.Resolutions))
	for _, r := range manifest.Resolutions {
		resolutions = append(resolutions, int(r))
	}
	err = p.updater.UpdateLiveState(ctx, manifest.VideoID, marsha.LiveStateUpdate{
		LogGroupName:    invocation.LogGroupName,
		RequestID:       invocation.RequestID,
		State:           types.LiveStateHarvested,
		ExtraParameters: &marsha.ExtraParameters{Resolutions: resolutions},
	})
	if err != nil {
		return false, fmt.Errorf("reporting harvested state for %s: %w", manifest.VideoID, err)
	}
	log.Infow("live harvested", "video", manifest.VideoID, "resolutions", resolutions)

	if p.ledger != nil {
		if err := p.ledger.MarkNotified(ctx, manifest.VideoID); err != nil {
			log.Warnf("writing harvest ledger for %s: %s", manifest.VideoID, err)
		}
	}
	return true, nil
}

func readManifest(ctx context.Context, bucket types.ObjectStore, key string) (Manifest, error) {
	body, err := bucket.Get(ctx, key)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest %s: %w", key, err)
	}
	defer body.Close()
	var manifest Manifest
	if err := json.NewDecoder(body).Decode(&manifest); err != nil {
		return Manifest{}, fmt.Errorf("%w: decoding %s: %w", ErrInvalidManifest, key, err)
	}
	if manifest.VideoID == "" {
		return Manifest{}, fmt.Errorf("%w: %s has no video_id", ErrInvalidManifest, key)
	}
	return manifest, nil
}
