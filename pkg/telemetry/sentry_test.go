package telemetry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/getsentry/sentry-go"
	logging "github.com/ipfs/go-log/v2"
	"github.com/openfun/marsha-lambdas/pkg/internal/extmocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSentry struct {
	mock.Mock
}

func (m *MockSentry) CaptureException(err error) *sentry.EventID {
	args := m.Called(err)
	id := sentry.EventID(args.String(0))
	return &id
}

func TestSentryLogger(t *testing.T) {
	errConversion := errors.New("Invalid timed text format for a/timedtexttrack/b/1_fr_st.")

	testCases := []struct {
		name     string
		method   string
		call     func(l *SentryLogger)
		expected []any
		captured error
		level    logging.LogLevel
	}{
		{name: "debug", method: "Debug", call: func(l *SentryLogger) { l.Debug("listing") }, expected: []any{"listing"}},
		{name: "infof", method: "Infof", call: func(l *SentryLogger) { l.Infof("converted %s", "srt") }, expected: []any{"converted %s", "srt"}},
		{name: "warnf", method: "Warnf", call: func(l *SentryLogger) { l.Warnf("retrying %d", 2) }, expected: []any{"retrying %d", 2}},
		{
			name:     "error is captured",
			method:   "Error",
			call:     func(l *SentryLogger) { l.Error(errConversion) },
			expected: []any{errConversion},
			captured: fmt.Errorf("%+v", errConversion),
		},
		{
			name:   "error without args is not captured",
			method: "Error",
			call:   func(l *SentryLogger) { l.Error() },
		},
		{
			name:     "errorf is captured",
			method:   "Errorf",
			call:     func(l *SentryLogger) { l.Errorf("converting: %s", "boom") },
			expected: []any{"converting: %s", "boom"},
			captured: fmt.Errorf("converting: %s", "boom"),
		},
		{
			name:     "error below level is not captured",
			method:   "Errorf",
			call:     func(l *SentryLogger) { l.Errorf("converting: %s", "boom") },
			expected: []any{"converting: %s", "boom"},
			level:    logging.LevelPanic,
		},
		{
			name:     "panicf is captured",
			method:   "Panicf",
			call:     func(l *SentryLogger) { l.Panicf("invariant %s", "broken") },
			expected: []any{"invariant %s", "broken"},
			captured: fmt.Errorf("invariant %s", "broken"),
		},
		{
			name:     "panic below level is not captured",
			method:   "Panic",
			call:     func(l *SentryLogger) { l.Panic("boom") },
			expected: []any{"boom"},
			level:    logging.LevelFatal,
		},
		{
			name:     "fatal is captured",
			method:   "Fatal",
			call:     func(l *SentryLogger) { l.Fatal("boom", 1) },
			expected: []any{"boom", 1},
			captured: fmt.Errorf("%+v %+v", "boom", 1),
		},
		{
			name:     "fatalf above every level is not captured",
			method:   "Fatalf",
			call:     func(l *SentryLogger) { l.Fatalf("boom %s", "arg") },
			expected: []any{"boom %s", "arg"},
			level:    logging.LogLevel(99),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockSentry := &MockSentry{}
			mockLog := extmocks.NewMockEventLogger(t)
			system := "test-" + tc.name

			cfg := logging.GetConfig()
			cfg.SubsystemLevels[system] = tc.level
			logging.SetupLogging(cfg)

			mockLog.On(tc.method, tc.expected...).Return()
			if tc.captured != nil {
				mockSentry.On("CaptureException", tc.captured).Return("eventID")
			}

			tc.call(&SentryLogger{system: system, log: mockLog, captureException: mockSentry.CaptureException})

			mockSentry.AssertExpectations(t)
			if tc.captured == nil {
				mockSentry.AssertNotCalled(t, "CaptureException", mock.Anything)
			}
		})
	}
}

func TestSetupSentry(t *testing.T) {
	flush, err := SetupSentry("", "test")
	require.NoError(t, err)
	flush()

	_, err = SetupSentry("not a dsn", "test")
	require.Error(t, err)
}
