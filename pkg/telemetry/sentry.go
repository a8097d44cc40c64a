package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	logging "github.com/ipfs/go-log/v2"
	"github.com/openfun/marsha-lambdas/pkg/build"
)

// SetupSentry initializes the Sentry client. An empty dsn leaves Sentry
// disabled, captures are then dropped. The returned function flushes pending
// events and must run before the process is frozen or exits.
func SetupSentry(dsn string, environment string) (func(), error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     build.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing sentry: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

type SentryExceptionCaptureFunc func(err error) *sentry.EventID

// SentryLogger is a logger that sends errors messages to Sentry for error,
// panic and fatal logs.
type SentryLogger struct {
	system           string
	log              logging.EventLogger
	captureException SentryExceptionCaptureFunc
}

var _ logging.EventLogger = (*SentryLogger)(nil)

// NewSentryLogger returns a logger for the system subsystem that also sends
// error, panic and fatal logs to Sentry. Call [SetupSentry] first.
func NewSentryLogger(system string) *SentryLogger {
	return &SentryLogger{
		system:           system,
		log:              logging.Logger(system),
		captureException: sentry.CaptureException,
	}
}

// capture reports err when the subsystem logs at level.
func (s *SentryLogger) capture(level logging.LogLevel, err error) {
	if err != nil && enabledLevel(s.system) <= level {
		s.captureException(err)
	}
}

func (s *SentryLogger) Debug(args ...any) { s.log.Debug(args...) }

func (s *SentryLogger) Debugf(format string, args ...any) { s.log.Debugf(format, args...) }

func (s *SentryLogger) Info(args ...any) { s.log.Info(args...) }

func (s *SentryLogger) Infof(format string, args ...any) { s.log.Infof(format, args...) }

func (s *SentryLogger) Warn(args ...any) { s.log.Warn(args...) }

func (s *SentryLogger) Warnf(format string, args ...any) { s.log.Warnf(format, args...) }

func (s *SentryLogger) Error(args ...any) {
	s.capture(logging.LevelError, argsError(args))
	s.log.Error(args...)
}

func (s *SentryLogger) Errorf(format string, args ...any) {
	s.capture(logging.LevelError, fmt.Errorf(format, args...))
	s.log.Errorf(format, args...)
}

func (s *SentryLogger) Panic(args ...any) {
	s.capture(logging.LevelPanic, argsError(args))
	s.log.Panic(args...)
}

func (s *SentryLogger) Panicf(format string, args ...any) {
	s.capture(logging.LevelPanic, fmt.Errorf(format, args...))
	s.log.Panicf(format, args...)
}

func (s *SentryLogger) Fatal(args ...any) {
	s.capture(logging.LevelFatal, argsError(args))
	s.log.Fatal(args...)
}

func (s *SentryLogger) Fatalf(format string, args ...any) {
	s.capture(logging.LevelFatal, fmt.Errorf(format, args...))
	s.log.Fatalf(format, args...)
}

// argsError formats args the way the Print family of loggers does. It is nil
// when there is nothing to report.
func argsError(args []any) error {
	if len(args) == 0 {
		return nil
	}
	return fmt.Errorf(strings.Repeat(" %+v", len(args))[1:], args...)
}

func enabledLevel(system string) logging.LogLevel {
	cfg := logging.GetConfig()
	if lvl, ok := cfg.SubsystemLevels[system]; ok {
		return lvl
	}
	return cfg.Level
}
