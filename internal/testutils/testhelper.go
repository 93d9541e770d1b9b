package testutils

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// testLogWriter routes log lines through t.Log so they only show for failing tests or -v.
type testLogWriter struct {
	t testing.TB
}

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// NewTestLogger creates a debug-level logger that writes to the test log.
func NewTestLogger(t testing.TB) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel) // enable debug logs to track execution flow
	logger.SetOutput(testLogWriter{t: t})
	return logger
}
