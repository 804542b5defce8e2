// Package config describes a fixture: which mock servers and application
// servers to launch, how to build them, which containerized dependencies to
// bring up, and how long to wait for everything to become reachable.
//
// A fixture is read from an optional fixture.yaml (viper) layered over
// built-in defaults that describe the standard client test fixture.
package config

import (
	"path/filepath"
	"runtime"
	"time"
)

const (
	// ConfigFileName is the default fixture definition file name.
	ConfigFileName = "fixture.yaml"
	// StateDirName holds fixture's own state (logs, lock) under the root.
	StateDirName = ".fixture"
	// LockFileName guards a fixture root against concurrent runs.
	LockFileName = ".fixture.lock"
	// EnvPrefix is the prefix for environment overrides (FIXTURE_READINESS_DELAY, ...).
	EnvPrefix = "FIXTURE"
	// RuntimeScript selects the scripting runtime (--node-path) for a group.
	RuntimeScript = "script"
)

// Config is a complete fixture definition.
type Config struct {
	Tests        TestsConfig        `mapstructure:"tests" yaml:"tests"`
	Runtimes     RuntimesConfig     `mapstructure:"runtimes" yaml:"runtimes"`
	Dependencies DependenciesConfig `mapstructure:"dependencies" yaml:"dependencies"`
	Mocks        GroupConfig        `mapstructure:"mocks" yaml:"mocks"`
	Servers      GroupConfig        `mapstructure:"servers" yaml:"servers"`
	Readiness    ReadinessConfig    `mapstructure:"readiness" yaml:"readiness"`
	Teardown     TeardownConfig     `mapstructure:"teardown" yaml:"teardown"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
}

// TestsConfig names the test executable inside --tests-dir.
type TestsConfig struct {
	Executable string `mapstructure:"executable" yaml:"executable"`
}

// RuntimesConfig holds the default external toolchains. The command-line
// overrides (--node-path, --go-path) take precedence.
type RuntimesConfig struct {
	Script    string `mapstructure:"script" yaml:"script"`
	Toolchain string `mapstructure:"toolchain" yaml:"toolchain"`
}

// DependenciesConfig references the compose definition of the containerized
// dependency set.
type DependenciesConfig struct {
	// Dir is where the compose tool runs, relative to the root.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// File is an optional compose file passed with -f; when empty the tool's
	// default lookup in Dir applies.
	File string `mapstructure:"file" yaml:"file,omitempty"`
	// Command is the compose tool invocation, split shell-style.
	Command string `mapstructure:"command" yaml:"command"`
	// Project overrides the compose project name used for status lookups.
	Project string `mapstructure:"project" yaml:"project,omitempty"`
	// CheckDaemon pings the Docker daemon before activation.
	CheckDaemon bool `mapstructure:"check_daemon" yaml:"check_daemon"`
}

// GroupConfig is one process group (mock servers or application servers).
type GroupConfig struct {
	Dir     string      `mapstructure:"dir" yaml:"dir"`
	Runtime string      `mapstructure:"runtime" yaml:"runtime,omitempty"`
	Build   BuildConfig `mapstructure:"build" yaml:"build"`
	// MetricsPortEnv, when set, gives every launched process a distinct port
	// in this variable, counting up from MetricsPortBase.
	MetricsPortEnv  string          `mapstructure:"metrics_port_env" yaml:"metrics_port_env,omitempty"`
	MetricsPortBase int             `mapstructure:"metrics_port_base" yaml:"metrics_port_base,omitempty"`
	Processes       []ProcessConfig `mapstructure:"processes" yaml:"processes"`
}

// BuildConfig controls the build step for a group's executables.
type BuildConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Source  string `mapstructure:"source" yaml:"source,omitempty"`
}

// ProcessConfig is one entry of a process group.
type ProcessConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	// Path is the executable (or script) relative to the group dir.
	Path string `mapstructure:"path" yaml:"path"`
	// Log is the output file relative to the group dir.
	Log string `mapstructure:"log" yaml:"log"`
	// Args are extra arguments, split shell-style.
	Args     string      `mapstructure:"args" yaml:"args,omitempty"`
	Required *bool       `mapstructure:"required" yaml:"required,omitempty"`
	Ready    ProbeConfig `mapstructure:"ready" yaml:"ready,omitempty"`
}

// IsRequired reports whether a failure of this process aborts the run.
// Defaults to true.
func (p ProcessConfig) IsRequired() bool {
	if p.Required == nil {
		return true
	}
	return *p.Required
}

// ProbeConfig describes how to tell that a process accepts work.
// At most one field is normally set.
type ProbeConfig struct {
	TCP        string `mapstructure:"tcp" yaml:"tcp,omitempty"`
	HTTP       string `mapstructure:"http" yaml:"http,omitempty"`
	LogPattern string `mapstructure:"log_pattern" yaml:"log_pattern,omitempty"`
}

// IsZero reports whether no probe is configured.
func (p ProbeConfig) IsZero() bool {
	return p.TCP == "" && p.HTTP == "" && p.LogPattern == ""
}

// ReadinessConfig controls the AwaitingReadiness phase.
type ReadinessConfig struct {
	// Delay is the fixed pause applied after all launches.
	Delay time.Duration `mapstructure:"delay" yaml:"delay"`
	// Timeout bounds probe polling; expiry is a fatal fixture error.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Interval is the pause between probe attempts.
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// MarshalYAML renders durations in their string form.
func (r ReadinessConfig) MarshalYAML() (any, error) {
	return map[string]string{
		"delay":    r.Delay.String(),
		"timeout":  r.Timeout.String(),
		"interval": r.Interval.String(),
	}, nil
}

// TeardownConfig controls process termination.
type TeardownConfig struct {
	// GracePeriod is how long terminated processes get before SIGKILL.
	GracePeriod time.Duration `mapstructure:"grace_period" yaml:"grace_period"`
}

// MarshalYAML renders durations in their string form.
func (t TeardownConfig) MarshalYAML() (any, error) {
	return map[string]string{"grace_period": t.GracePeriod.String()}, nil
}

// LoggingConfig configures fixture's own log file.
type LoggingConfig struct {
	FileEnabled *bool `mapstructure:"file_enabled" yaml:"file_enabled,omitempty"`
	MaxSizeMB   int   `mapstructure:"max_size_mb" yaml:"max_size_mb,omitempty"`
	MaxAgeDays  int   `mapstructure:"max_age_days" yaml:"max_age_days,omitempty"`
	MaxBackups  int   `mapstructure:"max_backups" yaml:"max_backups,omitempty"`
}

// ExeName appends the platform executable suffix.
func ExeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// LogsDir returns where fixture writes its own log file.
func LogsDir(root string) string {
	return filepath.Join(root, StateDirName, "logs")
}

// DefaultConfig returns the standard fixture: five node mock servers and
// two application servers (JSON and protobuf) backed by a compose stack.
func DefaultConfig() *Config {
	mock := func(name string) ProcessConfig {
		return ProcessConfig{
			Name: name,
			Path: name + ".js",
			Log:  name + "-log",
		}
	}
	server := func(name string) ProcessConfig {
		return ProcessConfig{
			Name: name,
			Path: filepath.Join(name, ExeName("server")),
			Log:  filepath.Join(name, "server-exe-out"),
		}
	}

	return &Config{
		Tests: TestsConfig{Executable: ExeName("tests")},
		Runtimes: RuntimesConfig{
			Script:    "node",
			Toolchain: "go",
		},
		Dependencies: DependenciesConfig{
			Dir:     "pitaya-servers",
			Command: "docker compose",
		},
		Mocks: GroupConfig{
			Dir:     filepath.Join("test", "mock-servers"),
			Runtime: RuntimeScript,
			Processes: []ProcessConfig{
				mock("mock-compression-server"),
				mock("mock-disconnect-server"),
				mock("mock-kick-server"),
				mock("mock-timeout-server"),
				mock("mock-destroy-socket-server"),
			},
		},
		Servers: GroupConfig{
			Dir:             "pitaya-servers",
			Build:           BuildConfig{Enabled: true, Source: "main.go"},
			MetricsPortEnv:  "PITAYA_METRICS_PROMETHEUS_PORT",
			MetricsPortBase: 9091,
			Processes: []ProcessConfig{
				server("json-server"),
				server("protobuf-server"),
			},
		},
		Readiness: ReadinessConfig{
			Delay:    time.Second,
			Timeout:  30 * time.Second,
			Interval: 250 * time.Millisecond,
		},
		Teardown: TeardownConfig{GracePeriod: 5 * time.Second},
	}
}
