// Package loggertest captures output of the global logger in tests.
package loggertest

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/schmitthub/fixture/internal/logger"
)

// TestLogger is a goroutine-safe capture of JSON log lines.
type TestLogger struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (tl *TestLogger) Write(p []byte) (int, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buf.Write(p)
}

// Output returns captured log output as a string.
func (tl *TestLogger) Output() string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buf.String()
}

// Reset clears captured output.
func (tl *TestLogger) Reset() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.buf.Reset()
}

// Capture points the global logger at a new TestLogger at debug level and
// restores the previous logger when the test ends.
func Capture(t testing.TB) *TestLogger {
	t.Helper()
	tl := &TestLogger{}
	prev := logger.Log
	logger.Log = zerolog.New(tl).Level(zerolog.DebugLevel)
	t.Cleanup(func() {
		logger.Log = prev
		logger.SetRunID("")
	})
	return tl
}
