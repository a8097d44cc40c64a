// Package complete reports the outcome of MediaConvert transcoding jobs to
// Marsha.
package complete

import (
	"context"
	"errors"
	"fmt"
	"slices"

	logging "github.com/ipfs/go-log/v2"
	"github.com/openfun/marsha-lambdas/pkg/marsha"
	"github.com/openfun/marsha-lambdas/pkg/types"
)

var log = logging.Logger("complete")

// ErrMissingObjectKey means the job carries no ObjectKey user metadata, so the
// upload it belongs to is unknown.
var ErrMissingObjectKey = errors.New("job has no ObjectKey user metadata")

// MediaConvert job statuses carried by "MediaConvert Job State Change" events.
const (
	StatusComplete = "COMPLETE"
	StatusError    = "ERROR"
)

type VideoDetails struct {
	WidthInPx  int `json:"widthInPx"`
	HeightInPx int `json:"heightInPx"`
}

type OutputDetail struct {
	OutputFilePaths []string      `json:"outputFilePaths"`
	DurationInMs    int64         `json:"durationInMs"`
	VideoDetails    *VideoDetails `json:"videoDetails,omitempty"`
}

type OutputGroupDetail struct {
	Type          string         `json:"type"`
	OutputDetails []OutputDetail `json:"outputDetails"`
}

// JobDetail is the detail of a "MediaConvert Job State Change" event.
type JobDetail struct {
	JobID              string              `json:"jobId"`
	Status             string              `json:"status"`
	ErrorCode          int                 `json:"errorCode,omitempty"`
	ErrorMessage       string              `json:"errorMessage,omitempty"`
	UserMetadata       map[string]string   `json:"userMetadata"`
	OutputGroupDetails []OutputGroupDetail `json:"outputGroupDetails,omitempty"`
}

// Resolutions returns the distinct output heights of the job in ascending
// order.
func (d JobDetail) Resolutions() []int {
	var heights []int
	for _, group := range d.OutputGroupDetails {
		for _, output := range group.OutputDetails {
			if output.VideoDetails == nil || output.VideoDetails.HeightInPx <= 0 {
				continue
			}
			heights = append(heights, output.VideoDetails.HeightInPx)
		}
	}
	slices.Sort(heights)
	return slices.Compact(heights)
}

// StateUpdater sends upload state updates to Marsha.
type StateUpdater interface {
	UpdateState(ctx context.Context, update marsha.StateUpdate) error
}

type Reporter struct {
	updater StateUpdater
}

func NewReporter(updater StateUpdater) *Reporter {
	return &Reporter{updater: updater}
}

// Report forwards a finished job to Marsha: COMPLETE jobs mark the upload
// ready with the produced resolutions, ERROR jobs mark it as errored. Any
// other status is ignored and Report returns false.
func (r *Reporter) Report(ctx context.Context, detail JobDetail) (bool, error) {
	var update marsha.StateUpdate
	switch detail.Status {
	case StatusComplete:
		update.State = types.UploadStateReady
		if resolutions := detail.Resolutions(); len(resolutions) > 0 {
			update.ExtraParameters = &marsha.ExtraParameters{Resolutions: resolutions}
		}
	case StatusError:
		update.State = types.UploadStateError
		log.Warnw("transcoding failed", "job", detail.JobID, "code", detail.ErrorCode, "message", detail.ErrorMessage)
	default:
		log.Debugw("ignoring job status", "job", detail.JobID, "status", detail.Status)
		return false, nil
	}

	update.Key = detail.UserMetadata["ObjectKey"]
	if update.Key == "" {
		return false, fmt.Errorf("job %s: %w", detail.JobID, ErrMissingObjectKey)
	}
	if err := r.updater.UpdateState(ctx, update); err != nil {
		return false, fmt.Errorf("updating state of %s: %w", update.Key, err)
	}
	log.Infow("upload state reported", "key", update.Key, "state", update.State)
	return true, nil
}
