package factory

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/compose"
	"github.com/schmitthub/fixture/internal/config"
	"github.com/schmitthub/fixture/internal/iostreams"
)

// New creates a fully-wired Factory with lazy-initialized dependency closures.
// Called exactly once at the CLI entry point (internal/fixture/cmd.go).
// Tests should NOT import this package; construct &cmdutil.Factory{} directly.
//
// The closures read WorkDir and ConfigFile on first use, so they must not be
// called before flags are parsed.
func New(version, commit string) *cmdutil.Factory {
	ios := iostreams.NewIOStreams()

	f := &cmdutil.Factory{
		Version:   version,
		Commit:    commit,
		IOStreams: ios,
	}

	var (
		loaderOnce sync.Once
		loader     *config.Loader
	)
	f.ConfigLoader = func() *config.Loader {
		loaderOnce.Do(func() {
			loader = config.NewLoader(resolveRoot(f.WorkDir), f.ConfigFile)
		})
		return loader
	}

	var (
		configOnce sync.Once
		cfg        *config.Config
		cfgErr     error
	)
	f.Config = func() (*config.Config, error) {
		configOnce.Do(func() {
			cfg, cfgErr = f.ConfigLoader().Load()
		})
		return cfg, cfgErr
	}

	f.Dependencies = func() (*compose.Bootstrapper, error) {
		cfg, err := f.Config()
		if err != nil {
			return nil, err
		}
		deps := cfg.Dependencies
		dir := deps.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(f.ConfigLoader().Root(), dir)
		}
		return compose.New(compose.Options{
			Dir:     dir,
			File:    deps.File,
			Command: deps.Command,
			Project: deps.Project,
			Out:     ios.ErrOut,
		})
	}

	return f
}

// resolveRoot returns dir as an absolute path, defaulting to the working
// directory.
func resolveRoot(dir string) string {
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
