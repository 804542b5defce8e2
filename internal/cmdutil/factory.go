package cmdutil

import (
	"github.com/schmitthub/fixture/internal/compose"
	"github.com/schmitthub/fixture/internal/config"
	"github.com/schmitthub/fixture/internal/iostreams"
)

// Factory provides shared dependencies for CLI commands.
// It is a dependency injection container: the struct defines what
// dependencies exist (the contract), while internal/cmd/factory
// wires the real implementations.
//
// Closure fields are set by the factory constructor and use lazy
// initialization internally. Commands extract only the fields they
// need into per-command Options structs.
type Factory struct {
	// Configuration from persistent flags (set before command execution)
	WorkDir    string
	ConfigFile string
	Debug      bool

	// Version info (set at build time via ldflags)
	Version string
	Commit  string

	IOStreams *iostreams.IOStreams

	ConfigLoader func() *config.Loader
	Config       func() (*config.Config, error)

	// Dependencies builds the compose bootstrapper for the loaded fixture.
	Dependencies func() (*compose.Bootstrapper, error)
}
