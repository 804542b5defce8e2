// Package fixture is the entry point of the fixture CLI.
package fixture

import (
	"errors"
	"fmt"

	"github.com/schmitthub/fixture/internal/cmd/factory"
	"github.com/schmitthub/fixture/internal/cmd/root"
	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/exitcodes"
	"github.com/schmitthub/fixture/internal/logger"
)

// Build-time variables injected via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = ""
)

// Main is the entry point for the fixture CLI.
// It initializes the Factory, creates the root command, and executes it.
func Main() int {
	// Ensure logs are flushed on exit
	defer logger.CloseFileWriter()

	f := factory.New(Version, Commit)
	return execute(f, nil)
}

// execute runs the command tree with args (nil means os.Args) and maps the
// outcome to an exit status.
func execute(f *cmdutil.Factory, args []string) int {
	rootCmd := root.NewCmdRoot(f, Version, BuildDate)
	if args != nil {
		rootCmd.SetArgs(args)
	}

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return exitcodes.Success
	}

	ios := f.IOStreams
	cs := ios.ColorScheme()

	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, cmdutil.SilentError) {
		return exitcodes.Precondition
	}

	var flagErr *cmdutil.FlagError
	if errors.As(err, &flagErr) {
		fmt.Fprintf(ios.ErrOut, "%s %v\n\n", cs.FailureIcon(), err)
		fmt.Fprint(ios.ErrOut, cmd.UsageString())
		return exitcodes.Precondition
	}

	fmt.Fprintf(ios.ErrOut, "%s %v\n", cs.FailureIcon(), err)
	fmt.Fprintf(ios.ErrOut, "Run '%s --help' for usage.\n", cmd.CommandPath())
	return exitcodes.Precondition
}
