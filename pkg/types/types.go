package types

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrKeyNotFound means the key did not exist in the store
var ErrKeyNotFound = errors.New("key not found")

// ObjectStore is a flat blob store addressed by key, typically one bucket.
type ObjectStore interface {
	// Get returns the object body. If the object does not exist, it should
	// return [ErrKeyNotFound].
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, length uint64, data io.Reader) error
	// Has reports whether an object exists at key.
	Has(ctx context.Context, key string) (bool, error)
}

// UploadState is the processing state of an uploaded object (video, document,
// thumbnail, timed text track) as exposed by the Marsha API.
type UploadState string

const (
	UploadStatePending    UploadState = "pending"
	UploadStateUploading  UploadState = "uploading"
	UploadStateProcessing UploadState = "processing"
	UploadStateReady      UploadState = "ready"
	UploadStateError      UploadState = "error"
	UploadStateDeleted    UploadState = "deleted"
)

var uploadChain = []UploadState{
	UploadStatePending,
	UploadStateUploading,
	UploadStateProcessing,
	UploadStateReady,
}

// ParseUploadState returns the UploadState matching the wire value s.
func ParseUploadState(s string) (UploadState, error) {
	switch st := UploadState(s); st {
	case UploadStatePending, UploadStateUploading, UploadStateProcessing,
		UploadStateReady, UploadStateError, UploadStateDeleted:
		return st, nil
	}
	return "", fmt.Errorf("invalid upload state: %q", s)
}

// Terminal reports whether no further processing happens from this state.
func (s UploadState) Terminal() bool {
	return s == UploadStateError || s == UploadStateDeleted
}

// CanTransitionTo reports whether moving from s to next is allowed. Objects
// move one step along the pending -> uploading -> processing -> ready chain,
// may fail from any non terminal state and may be deleted at any time.
func (s UploadState) CanTransitionTo(next UploadState) bool {
	if _, err := ParseUploadState(string(s)); err != nil {
		return false
	}
	switch {
	case next == UploadStateDeleted:
		return s != UploadStateDeleted
	case s.Terminal():
		return false
	case next == UploadStateError:
		return true
	}
	n, ok := nextInChain(uploadChain, s)
	return ok && n == next
}

// LiveState is the state of a live broadcast.
type LiveState string

const (
	LiveStateIdle       LiveState = "idle"
	LiveStateStarting   LiveState = "starting"
	LiveStateRunning    LiveState = "running"
	LiveStateStopping   LiveState = "stopping"
	LiveStateStopped    LiveState = "stopped"
	LiveStateHarvesting LiveState = "harvesting"
	LiveStateHarvested  LiveState = "harvested"
)

var liveChain = []LiveState{
	LiveStateIdle,
	LiveStateStarting,
	LiveStateRunning,
	LiveStateStopping,
	LiveStateStopped,
	LiveStateHarvesting,
	LiveStateHarvested,
}

// ParseLiveState returns the LiveState matching the wire value s.
func ParseLiveState(s string) (LiveState, error) {
	for _, st := range liveChain {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid live state: %q", s)
}

// CanTransitionTo reports whether a live in state s may move to next: one step
// forward, or back to starting once stopped.
func (s LiveState) CanTransitionTo(next LiveState) bool {
	if s == LiveStateStopped && next == LiveStateStarting {
		return true
	}
	n, ok := nextInChain(liveChain, s)
	return ok && n == next
}

// nextInChain returns the state following cur, false when cur is last or
// not part of chain.
func nextInChain[S comparable](chain []S, cur S) (S, bool) {
	for i, st := range chain {
		if st == cur && i+1 < len(chain) {
			return chain[i+1], true
		}
	}
	var zero S
	return zero, false
}
