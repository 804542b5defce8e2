package cmdutil

import (
	"path/filepath"
	"testing"

	"github.com/schmitthub/fixture/internal/config"
	"github.com/schmitthub/fixture/internal/logger"
	"github.com/schmitthub/fixture/internal/logger/loggertest"
	"github.com/stretchr/testify/assert"
)

func TestInitLogger(t *testing.T) {
	loggertest.Capture(t)
	t.Cleanup(func() { _ = logger.CloseFileWriter() })

	root := t.TempDir()
	loader := config.NewLoader(root, "")
	f := &Factory{ConfigLoader: func() *config.Loader { return loader }}

	InitLogger(f, nil)
	assert.NoDirExists(t, filepath.Join(root, config.StateDirName), "nil config is console only")
	assert.Empty(t, logger.GetLogFilePath())

	InitLogger(f, config.DefaultConfig())
	assert.DirExists(t, config.LogsDir(root))
	assert.Equal(t, filepath.Join(config.LogsDir(root), logger.FileName), logger.GetLogFilePath())
}

func TestInitLogger_FileDisabled(t *testing.T) {
	loggertest.Capture(t)
	t.Cleanup(func() { _ = logger.CloseFileWriter() })

	root := t.TempDir()
	loader := config.NewLoader(root, "")
	f := &Factory{ConfigLoader: func() *config.Loader { return loader }}
	cfg := config.DefaultConfig()
	disabled := false
	cfg.Logging.FileEnabled = &disabled

	InitLogger(f, cfg)
	assert.NoDirExists(t, config.LogsDir(root))
}
