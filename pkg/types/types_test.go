package types_test

import (
	"testing"

	"github.com/openfun/marsha-lambdas/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestParseUploadState(t *testing.T) {
	st, err := types.ParseUploadState("processing")
	require.NoError(t, err)
	require.Equal(t, types.UploadStateProcessing, st)

	_, err = types.ParseUploadState("PROCESSING")
	require.Error(t, err)
}

func TestUploadStateTransitions(t *testing.T) {
	testCases := []struct {
		from, to types.UploadState
		allowed  bool
	}{
		{types.UploadStatePending, types.UploadStateUploading, true},
		{types.UploadStateUploading, types.UploadStateProcessing, true},
		{types.UploadStateProcessing, types.UploadStateReady, true},
		{types.UploadStatePending, types.UploadStateReady, false},
		{types.UploadStateReady, types.UploadStatePending, false},
		{types.UploadStateProcessing, types.UploadStateError, true},
		{types.UploadStateError, types.UploadStateProcessing, false},
		{types.UploadStateError, types.UploadStateDeleted, true},
		{types.UploadStateReady, types.UploadStateDeleted, true},
		{types.UploadStateDeleted, types.UploadStateDeleted, false},
		{types.UploadStateReady, types.UploadStateReady, false},
		{types.UploadStateReady, "", false},
		{types.UploadStatePending, "", false},
		{types.UploadStateDeleted, "", false},
		{"bogus", "", false},
		{"bogus", types.UploadStateDeleted, false},
		{"bogus", types.UploadStateError, false},
	}
	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestLiveStateTransitions(t *testing.T) {
	require.True(t, types.LiveStateIdle.CanTransitionTo(types.LiveStateStarting))
	require.True(t, types.LiveStateStopping.CanTransitionTo(types.LiveStateStopped))
	require.True(t, types.LiveStateHarvesting.CanTransitionTo(types.LiveStateHarvested))
	require.True(t, types.LiveStateStopped.CanTransitionTo(types.LiveStateStarting))
	require.False(t, types.LiveStateRunning.CanTransitionTo(types.LiveStateHarvested))
	require.False(t, types.LiveStateHarvested.CanTransitionTo(types.LiveStateIdle))
	require.False(t, types.LiveStateHarvested.CanTransitionTo(""))
	require.False(t, types.LiveStateIdle.CanTransitionTo(""))
	require.False(t, types.LiveState("bogus").CanTransitionTo(""))
	require.False(t, types.LiveState("bogus").CanTransitionTo(types.LiveStateIdle))

	st, err := types.ParseLiveState("harvesting")
	require.NoError(t, err)
	require.Equal(t, types.LiveStateHarvesting, st)
	_, err = types.ParseLiveState("paused")
	require.Error(t, err)
}
