package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// RunOptions is the parsed command line of one run. It is passed by value
// and never mutated after parsing.
type RunOptions struct {
	// Root is the fixture root all group and dependency dirs resolve against.
	Root string
	// TestsDir holds the test executable.
	TestsDir string
	// ScriptRuntime overrides runtimes.script (--node-path).
	ScriptRuntime string
	// Toolchain overrides runtimes.toolchain (--go-path).
	Toolchain string
	// PassThrough is forwarded verbatim to the test executable.
	PassThrough []string
}

// ValidationError is a precondition failure detected before any process is
// started. Its message is a single line meant for the user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Args returns a copy of the pass-through arguments.
func (o RunOptions) Args() []string {
	return slices.Clone(o.PassThrough)
}

// TestExecutable returns the absolute path of the test executable.
func (o RunOptions) TestExecutable(cfg *Config) string {
	return filepath.Join(o.TestsDir, cfg.Tests.Executable)
}

// ScriptRuntimePath returns the scripting runtime to launch mocks with.
func (o RunOptions) ScriptRuntimePath(cfg *Config) string {
	if o.ScriptRuntime != "" {
		return o.ScriptRuntime
	}
	return cfg.Runtimes.Script
}

// ToolchainPath returns the toolchain used by the build step.
func (o RunOptions) ToolchainPath(cfg *Config) string {
	if o.Toolchain != "" {
		return o.Toolchain
	}
	return cfg.Runtimes.Toolchain
}

// Validate checks every precondition that must hold before anything is
// launched: explicit toolchain overrides exist and the test executable exists.
func (o RunOptions) Validate(cfg *Config) error {
	if o.TestsDir == "" {
		return &ValidationError{Msg: "--tests-dir is required."}
	}
	if o.ScriptRuntime != "" && !exists(o.ScriptRuntime) {
		return &ValidationError{Msg: fmt.Sprintf("Script runtime path %s does not exist.", o.ScriptRuntime)}
	}
	if o.Toolchain != "" && !exists(o.Toolchain) {
		return &ValidationError{Msg: fmt.Sprintf("Toolchain path %s does not exist.", o.Toolchain)}
	}
	exe := o.TestExecutable(cfg)
	info, err := os.Stat(exe)
	if err != nil || info.IsDir() {
		return &ValidationError{Msg: fmt.Sprintf("Tests executable %s does not exist.", exe)}
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
