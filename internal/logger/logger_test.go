package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	Init(false)
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())

	Init(true)
	assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())
}

func TestInitWithFile(t *testing.T) {
	t.Run("writes json to rotated file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, InitWithFile(false, dir, &LoggingConfig{MaxSizeMB: 1}))
		t.Cleanup(func() { CloseFileWriter() })

		Info().Str("phase", "build").Msg("hello")

		assert.Equal(t, filepath.Join(dir, FileName), GetLogFilePath())
		data, err := os.ReadFile(GetLogFilePath())
		require.NoError(t, err)
		assert.Contains(t, string(data), `"phase":"build"`)
		assert.Contains(t, string(data), `"message":"hello"`)
	})

	t.Run("disabled falls back to console only", func(t *testing.T) {
		off := false
		require.NoError(t, InitWithFile(false, t.TempDir(), &LoggingConfig{FileEnabled: &off}))
		assert.Empty(t, GetLogFilePath())
	})

	t.Run("empty dir falls back to console only", func(t *testing.T) {
		require.NoError(t, InitWithFile(true, "", &LoggingConfig{}))
		assert.Empty(t, GetLogFilePath())
		assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())
	})
}

func TestSetRunID(t *testing.T) {
	buf := &bytes.Buffer{}
	Log = zerolog.New(buf)
	t.Cleanup(func() {
		SetRunID("")
		Log = zerolog.Nop()
	})

	SetRunID("abc-123")
	Info().Msg("tagged")
	assert.Contains(t, buf.String(), `"run_id":"abc-123"`)

	buf.Reset()
	SetRunID("")
	Info().Msg("untagged")
	assert.False(t, strings.Contains(buf.String(), "run_id"))
}

func TestLoggingConfigDefaults(t *testing.T) {
	cfg := &LoggingConfig{}
	assert.True(t, cfg.IsFileEnabled())
	assert.Equal(t, 10, cfg.GetMaxSizeMB())
	assert.Equal(t, 7, cfg.GetMaxAgeDays())
	assert.Equal(t, 3, cfg.GetMaxBackups())

	off := false
	cfg = &LoggingConfig{FileEnabled: &off, MaxSizeMB: 5, MaxAgeDays: 1, MaxBackups: 9}
	assert.False(t, cfg.IsFileEnabled())
	assert.Equal(t, 5, cfg.GetMaxSizeMB())
	assert.Equal(t, 1, cfg.GetMaxAgeDays())
	assert.Equal(t, 9, cfg.GetMaxBackups())
}
