package cmdutil

import (
	"github.com/schmitthub/fixture/internal/config"
	"github.com/schmitthub/fixture/internal/logger"
)

// InitLogger sets up console logging plus the fixture log file under the
// root's state directory. A nil cfg gives console-only logging and touches
// no files. It falls back to console-only logging on any error.
func InitLogger(f *Factory, cfg *config.Config) {
	if cfg == nil || f.ConfigLoader == nil {
		logger.Init(f.Debug)
		return
	}

	logCfg := &logger.LoggingConfig{
		FileEnabled: cfg.Logging.FileEnabled,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
		MaxBackups:  cfg.Logging.MaxBackups,
	}

	logsDir := config.LogsDir(f.ConfigLoader().Root())
	if err := logger.InitWithFile(f.Debug, logsDir, logCfg); err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
