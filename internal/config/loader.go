package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Loader reads a fixture definition rooted at a directory.
type Loader struct {
	root  string
	path  string
	viper *viper.Viper
}

// NewLoader creates a loader for the fixture rooted at root. An empty path
// means "<root>/fixture.yaml if it exists, defaults otherwise".
func NewLoader(root, path string) *Loader {
	return &Loader{
		root:  root,
		path:  path,
		viper: viper.New(),
	}
}

// Root returns the fixture root directory.
func (l *Loader) Root() string {
	return l.root
}

// ConfigPath returns the file the loader reads (it may not exist).
func (l *Loader) ConfigPath() string {
	if l.path != "" {
		return l.path
	}
	return filepath.Join(l.root, ConfigFileName)
}

// Load reads the fixture definition, layering file and FIXTURE_* environment
// values over DefaultConfig.
func (l *Loader) Load() (*Config, error) {
	v := l.viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	configPath := l.ConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if l.path != "" {
		// An explicit --config must exist.
		return nil, &ConfigNotFoundError{Path: configPath}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Exists checks if the configuration file exists
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("tests.executable", d.Tests.Executable)
	v.SetDefault("runtimes.script", d.Runtimes.Script)
	v.SetDefault("runtimes.toolchain", d.Runtimes.Toolchain)

	v.SetDefault("dependencies.dir", d.Dependencies.Dir)
	v.SetDefault("dependencies.file", d.Dependencies.File)
	v.SetDefault("dependencies.command", d.Dependencies.Command)
	v.SetDefault("dependencies.project", d.Dependencies.Project)
	v.SetDefault("dependencies.check_daemon", d.Dependencies.CheckDaemon)

	setGroupDefaults(v, "mocks", d.Mocks)
	setGroupDefaults(v, "servers", d.Servers)

	v.SetDefault("readiness.delay", d.Readiness.Delay)
	v.SetDefault("readiness.timeout", d.Readiness.Timeout)
	v.SetDefault("readiness.interval", d.Readiness.Interval)
	v.SetDefault("teardown.grace_period", d.Teardown.GracePeriod)

	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
}

func setGroupDefaults(v *viper.Viper, key string, g GroupConfig) {
	v.SetDefault(key+".dir", g.Dir)
	v.SetDefault(key+".runtime", g.Runtime)
	v.SetDefault(key+".build.enabled", g.Build.Enabled)
	v.SetDefault(key+".build.source", g.Build.Source)
	v.SetDefault(key+".metrics_port_env", g.MetricsPortEnv)
	v.SetDefault(key+".metrics_port_base", g.MetricsPortBase)

	// Lists are replaced wholesale by the file, never merged element-wise.
	procs := make([]map[string]any, 0, len(g.Processes))
	for _, p := range g.Processes {
		procs = append(procs, map[string]any{
			"name": p.Name,
			"path": p.Path,
			"log":  p.Log,
			"args": p.Args,
		})
	}
	v.SetDefault(key+".processes", procs)
}

func (c *Config) validate() error {
	var errs []error
	for _, g := range []struct {
		key   string
		group GroupConfig
	}{{"mocks", c.Mocks}, {"servers", c.Servers}} {
		seen := make(map[string]bool)
		for i, p := range g.group.Processes {
			if p.Path == "" {
				errs = append(errs, fmt.Errorf("%s.processes[%d]: path is required", g.key, i))
			}
			if p.Log == "" {
				errs = append(errs, fmt.Errorf("%s.processes[%d]: log is required", g.key, i))
			}
			if seen[p.Log] && p.Log != "" {
				errs = append(errs, fmt.Errorf("%s.processes[%d]: log %q is used twice", g.key, i, p.Log))
			}
			seen[p.Log] = true
		}
		if g.group.Runtime != "" && g.group.Runtime != RuntimeScript {
			errs = append(errs, fmt.Errorf("%s.runtime: unknown runtime %q", g.key, g.group.Runtime))
		}
	}
	if c.Readiness.Delay < 0 || c.Readiness.Timeout < 0 || c.Readiness.Interval < 0 {
		errs = append(errs, errors.New("readiness: durations must not be negative"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{Err: errors.Join(errs...)}
	}
	return nil
}

// ConfigNotFoundError is returned when an explicitly requested config file
// doesn't exist.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

// InvalidConfigError wraps structural problems in a fixture definition.
type InvalidConfigError struct {
	Err error
}

func (e *InvalidConfigError) Error() string {
	return "invalid fixture definition: " + e.Err.Error()
}

func (e *InvalidConfigError) Unwrap() error { return e.Err }

// IsConfigNotFound returns true if the error is a ConfigNotFoundError
func IsConfigNotFound(err error) bool {
	var target *ConfigNotFoundError
	return errors.As(err, &target)
}
