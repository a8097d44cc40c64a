package extmocks

import (
	logging "github.com/ipfs/go-log/v2"
	"github.com/stretchr/testify/mock"
)

// MockEventLogger is a testify mock of logging.EventLogger
type MockEventLogger struct {
	mock.Mock
}

var _ logging.EventLogger = (*MockEventLogger)(nil)

// NewMockEventLogger returns a mock that asserts its expectations when the test ends.
func NewMockEventLogger(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEventLogger {
	m := &MockEventLogger{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockEventLogger) Debug(args ...any)                 { m.Called(args...) }
func (m *MockEventLogger) Debugf(format string, args ...any) { m.Called(append([]any{format}, args...)...) }
func (m *MockEventLogger) Error(args ...any)                 { m.Called(args...) }
func (m *MockEventLogger) Errorf(format string, args ...any) { m.Called(append([]any{format}, args...)...) }
func (m *MockEventLogger) Fatal(args ...any)                 { m.Called(args...) }
func (m *MockEventLogger) Fatalf(format string, args ...any) { m.Called(append([]any{format}, args...)...) }
func (m *MockEventLogger) Info(args ...any)                  { m.Called(args...) }
func (m *MockEventLogger) Infof(format string, args ...any)  { m.Called(append([]any{format}, args...)...) }
func (m *MockEventLogger) Panic(args ...any)                 { m.Called(args...) }
func (m *MockEventLogger) Panicf(format string, args ...any) { m.Called(append([]any{format}, args...)...) }
func (m *MockEventLogger) Warn(args ...any)                  { m.Called(args...) }
func (m *MockEventLogger) Warnf(format string, args ...any)  { m.Called(append([]any{format}, args...)...) }
