package migration_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/openfun/marsha-lambdas/pkg/internal/testutil"
	"github.com/openfun/marsha-lambdas/pkg/service/migration"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	pages [][]string
	calls int
	err   error
}

func (f *fakeLister) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.err != nil {
		return nil, f.err
	}
	page := 0
	if params.ContinuationToken != nil {
		page, _ = strconv.Atoi(*params.ContinuationToken)
	}
	f.calls++
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(page < len(f.pages)-1)}
	for _, key := range f.pages[page] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
	}
	if page < len(f.pages)-1 {
		out.NextContinuationToken = aws.String(strconv.Itoa(page + 1))
	}
	return out, nil
}

type fakeInvoker struct {
	lk       sync.Mutex
	payloads map[string][]byte
	fail     map[string]bool
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{payloads: map[string][]byte{}, fail: map[string]bool{}}
}

func (f *fakeInvoker) InvokeAsync(ctx context.Context, function string, payload []byte) error {
	var event events.S3Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	key, err := url.QueryUnescape(event.Records[0].S3.Object.Key)
	if err != nil {
		return err
	}
	f.lk.Lock()
	defer f.lk.Unlock()
	if f.fail[key] {
		return errors.New("throttled")
	}
	f.payloads[key] = payload
	return nil
}

type countingInvoker struct {
	inFlight atomic.Int32
	max      atomic.Int32
}

func (c *countingInvoker) InvokeAsync(ctx context.Context, function string, payload []byte) error {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		m := c.max.Load()
		if n <= m || c.max.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return nil
}

func TestEncodeTimedTextTracks(t *testing.T) {
	tracks := []string{
		testutil.RandomTimedTextKey("fr", "st"),
		testutil.RandomTimedTextKey("en", "ts"),
		testutil.RandomTimedTextKey("de", "cc"),
		"a1b2/timedtexttrack/c3d4/1606230873_pt br_st",
	}
	lister := &fakeLister{pages: [][]string{
		{tracks[0], testutil.RandomVideoKey(), tracks[1]},
		{testutil.RandomVideoKey(), "a1b2/thumbnail/c3d4/1606230873"},
		{tracks[2], tracks[3]},
	}}

	t.Run("invokes once per track across pages", func(t *testing.T) {
		invoker := newFakeInvoker()
		m := migration.EncodeTimedTextTracks(lister, invoker, "marsha-source", "marsha-encode-timed-text")
		require.Equal(t, migration.EncodeTimedTextTracksName, m.Name)

		count, err := m.Run(t.Context())
		require.NoError(t, err)
		require.Equal(t, len(tracks), count)
		require.Len(t, invoker.payloads, len(tracks))
		for _, key := range tracks {
			payload, ok := invoker.payloads[key]
			require.True(t, ok, key)
			var event events.S3Event
			require.NoError(t, json.Unmarshal(payload, &event))
			require.Len(t, event.Records, 1)
			require.Equal(t, "marsha-source", event.Records[0].S3.Bucket.Name)
		}
	})

	t.Run("failed invocations are aggregated", func(t *testing.T) {
		invoker := newFakeInvoker()
		invoker.fail[tracks[1]] = true
		invoker.fail[tracks[2]] = true

		count, err := migration.EncodeTimedTextTracks(lister, invoker, "marsha-source", "fn").Run(t.Context())
		require.ErrorContains(t, err, tracks[1])
		require.ErrorContains(t, err, tracks[2])
		require.Equal(t, len(tracks)-2, count)
	})

	t.Run("bounded concurrency", func(t *testing.T) {
		invoker := &countingInvoker{}
		count, err := migration.EncodeTimedTextTracks(lister, invoker, "marsha-source", "fn", migration.WithConcurrency(2)).Run(t.Context())
		require.NoError(t, err)
		require.Equal(t, len(tracks), count)
		require.LessOrEqual(t, invoker.max.Load(), int32(2))
	})

	t.Run("listing failure", func(t *testing.T) {
		_, err := migration.EncodeTimedTextTracks(&fakeLister{err: errors.New("access denied")}, newFakeInvoker(), "marsha-source", "fn").Run(t.Context())
		require.ErrorContains(t, err, "access denied")
	})
}

func TestS3Event(t *testing.T) {
	event := migration.S3Event("bucket", "a1b2/timedtexttrack/c3d4/1606230873_pt br_st")
	require.Equal(t, "a1b2/timedtexttrack/c3d4/1606230873_pt+br_st", event.Records[0].S3.Object.Key)
	require.Equal(t, "aws:s3", event.Records[0].EventSource)
}

func TestRunner(t *testing.T) {
	var ran []string
	record := func(name string, n int, err error) migration.Migration {
		return migration.Migration{Name: name, Run: func(ctx context.Context) (int, error) {
			ran = append(ran, name)
			return n, err
		}}
	}

	t.Run("runs in name order", func(t *testing.T) {
		ran = nil
		runner := migration.NewRunner(record("0002_b", 2, nil), record("0001_a", 1, nil))
		require.Equal(t, []string{"0001_a", "0002_b"}, runner.Names())

		processed, err := runner.Run(t.Context())
		require.NoError(t, err)
		require.Equal(t, []string{"0001_a", "0002_b"}, ran)
		require.Equal(t, map[string]int{"0001_a": 1, "0002_b": 2}, processed)
	})

	t.Run("runs selected migrations", func(t *testing.T) {
		ran = nil
		runner := migration.NewRunner(record("0001_a", 1, nil), record("0002_b", 2, nil))
		_, err := runner.Run(t.Context(), "0002_b")
		require.NoError(t, err)
		require.Equal(t, []string{"0002_b"}, ran)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		ran = nil
		runner := migration.NewRunner(record("0001_a", 0, errors.New("boom")), record("0002_b", 2, nil))
		_, err := runner.Run(t.Context())
		require.ErrorContains(t, err, "0001_a")
		require.Equal(t, []string{"0001_a"}, ran)
	})

	t.Run("unknown migration", func(t *testing.T) {
		ran = nil
		_, err := migration.NewRunner(record("0001_a", 1, nil)).Run(t.Context(), "0001_a", "0099_missing")
		require.ErrorIs(t, err, migration.ErrUnknownMigration)
		require.Empty(t, ran)
	})
}

func TestParseNames(t *testing.T) {
	require.Equal(t, []string{"0001_a", "0002_b"}, migration.ParseNames(" 0001_a,,0002_b "))
	require.Nil(t, migration.ParseNames(""))
}
