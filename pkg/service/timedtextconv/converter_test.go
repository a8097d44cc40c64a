package timedtextconv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openfun/marsha-lambdas/pkg/internal/extmocks"
	"github.com/openfun/marsha-lambdas/pkg/internal/testutil"
	"github.com/openfun/marsha-lambdas/pkg/service/timedtextconv"
	"github.com/openfun/marsha-lambdas/pkg/timedtext"
	"github.com/openfun/marsha-lambdas/pkg/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const srt = `1
00:00:00,600 --> 00:00:02,240
<b>Bienvenue</b> & bonjour
`

const (
	escapedVTT   = "WEBVTT\n\n1\n00:00:00.600 --> 00:00:02.240\n&lt;b&gt;Bienvenue&lt;/b&gt; &amp; bonjour\n\n"
	unescapedVTT = "WEBVTT\n\n1\n00:00:00.600 --> 00:00:02.240\n<b>Bienvenue</b> & bonjour\n\n"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, conversion timedtextconv.Conversion) error {
	return m.Called(ctx, conversion).Error(0)
}

func TestConvert(t *testing.T) {
	const bucket = "marsha-source"
	const prefix = "630dfaaa-8b1c-4d40-a2c4-0ac1a7b5e3d6/timedtexttrack/dba1512e-d0b3-424b-a9ae-ef6a2d64daa1/"

	testCases := []struct {
		name        string
		key         string
		expectedKey string
		expectedVTT string
	}{
		{
			name:        "subtitles are escaped",
			key:         prefix + "1542967735_fr_st",
			expectedKey: "630dfaaa-8b1c-4d40-a2c4-0ac1a7b5e3d6/timedtext/1542967735_fr_st.vtt",
			expectedVTT: escapedVTT,
		},
		{
			name:        "transcripts are not escaped",
			key:         prefix + "1542967735_fr_ts",
			expectedKey: "630dfaaa-8b1c-4d40-a2c4-0ac1a7b5e3d6/timedtext/1542967735_fr_ts.vtt",
			expectedVTT: unescapedVTT,
		},
		{
			name:        "unknown mode defaults to escaped",
			key:         prefix + "1542967735_fr_zz",
			expectedKey: "630dfaaa-8b1c-4d40-a2c4-0ac1a7b5e3d6/timedtext/1542967735_fr_zz.vtt",
			expectedVTT: escapedVTT,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			source := testutil.NewMapStore(map[string][]byte{tc.key: []byte(srt)})
			destination := testutil.NewMapStore(nil)
			converter := timedtextconv.NewConverter(func(b string) types.ObjectStore {
				require.Equal(t, bucket, b)
				return source
			}, destination)

			format, err := converter.Convert(t.Context(), bucket, tc.key)
			require.NoError(t, err)
			require.Equal(t, timedtext.FormatSRT, format)

			require.Equal(t, 2, destination.Len())
			vtt, ok := destination.Object(tc.expectedKey)
			require.True(t, ok)
			require.Equal(t, tc.expectedVTT, string(vtt))
			raw, ok := destination.Object(timedtext.SourceKey(tc.key))
			require.True(t, ok)
			require.Equal(t, srt, string(raw))
		})
	}
}

func TestConvertInvalidFormat(t *testing.T) {
	key := testutil.RandomTimedTextKey("en", "st")
	source := testutil.NewMapStore(map[string][]byte{key: []byte("some invalid content")})
	destination := testutil.NewMapStore(nil)
	converter := timedtextconv.NewConverter(func(string) types.ObjectStore { return source }, destination)

	_, err := converter.Convert(t.Context(), "bucket", key)
	require.EqualError(t, err, "Invalid timed text format for "+key+".")
	var invalid *timedtextconv.InvalidFormatError
	require.ErrorAs(t, err, &invalid)
	require.ErrorIs(t, err, timedtext.ErrUnknownFormat)
	require.Zero(t, destination.Len())
}

func TestConvertStoreErrors(t *testing.T) {
	key := testutil.RandomTimedTextKey("fr", "cc")

	t.Run("missing source", func(t *testing.T) {
		converter := timedtextconv.NewConverter(func(string) types.ObjectStore { return testutil.NewMapStore(nil) }, testutil.NewMapStore(nil))
		_, err := converter.Convert(t.Context(), "bucket", key)
		require.ErrorIs(t, err, types.ErrKeyNotFound)
	})

	t.Run("destination write fails", func(t *testing.T) {
		source := testutil.NewMapStore(map[string][]byte{key: []byte(srt)})
		destination := testutil.NewMapStore(nil)
		destination.PutErr = errors.New("access denied")
		converter := timedtextconv.NewConverter(func(string) types.ObjectStore { return source }, destination)
		_, err := converter.Convert(t.Context(), "bucket", key)
		require.ErrorContains(t, err, "access denied")
	})
}

func TestConvertRecordsConversion(t *testing.T) {
	key := testutil.RandomTimedTextKey("fr", "ts")
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	source := testutil.NewMapStore(map[string][]byte{key: []byte(srt)})

	recorder := &MockRecorder{}
	recorder.On("Record", extmocks.AnyContext, timedtextconv.Conversion{
		ObjectKey:      key,
		DestinationKey: timedtext.DestinationKey(key),
		SourceKey:      timedtext.SourceKey(key),
		Format:         timedtext.FormatSRT,
		Mode:           timedtext.ModeTranscript,
		ConvertedAt:    now,
	}).Return(errors.New("table unavailable"))

	converter := timedtextconv.NewConverter(
		func(string) types.ObjectStore { return source },
		testutil.NewMapStore(nil),
		timedtextconv.WithRecorder(recorder),
		timedtextconv.WithClock(func() time.Time { return now }),
	)

	// recording is best effort
	format, err := converter.Convert(t.Context(), "bucket", key)
	require.NoError(t, err)
	require.Equal(t, timedtext.FormatSRT, format)
	recorder.AssertExpectations(t)
}
