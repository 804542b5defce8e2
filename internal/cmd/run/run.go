package run

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/config"
	"github.com/schmitthub/fixture/internal/exitcodes"
	"github.com/schmitthub/fixture/internal/iostreams"
	"github.com/schmitthub/fixture/internal/orchestrator"
	"github.com/spf13/cobra"
)

type RunOptions struct {
	IOStreams    *iostreams.IOStreams
	ConfigLoader func() *config.Loader
	Config       func() (*config.Config, error)
	InitLogger   func(*config.Config)

	TestsDir    string
	NodePath    string
	GoPath      string
	PassThrough []string
}

func NewCmdRun(f *cmdutil.Factory, runF func(context.Context, *RunOptions) error) *cobra.Command {
	opts := &RunOptions{
		IOStreams:    f.IOStreams,
		ConfigLoader: f.ConfigLoader,
		Config:       f.Config,
		InitLogger:   func(cfg *config.Config) { cmdutil.InitLogger(f, cfg) },
	}

	cmd := &cobra.Command{
		Use:   "run --tests-dir DIR [flags] [TEST ARGS...]",
		Short: "Provision the fixture, run the tests, and tear everything down",
		Long: `Builds the application servers, activates the containerized dependencies,
launches the mock servers and application servers, waits for readiness, then
runs the test executable found in --tests-dir.

Every argument fixture does not recognize is forwarded verbatim, in order, to
the test executable. Use -- to forward everything after it.

Exit status is the test executable's own status. Fixture exits 1 when a
precondition fails, 2 when a required component fails before the tests run,
and 128+N when interrupted by signal N before the tests run.`,
		Example: `  # Run the suite with the default fixture
  fixture run --tests-dir build/out

  # Use a specific node and Go, and pass a filter to the tests
  fixture run --tests-dir build/out --node-path /opt/node/bin/node --go-path /usr/local/go/bin/go --gtest_filter='Kick*'

  # Forward flags that clash with fixture's own
  fixture run --tests-dir build/out -- --config tests.json`,
		// Unknown flags belong to the test executable; parsing happens in RunE.
		DisableFlagParsing: true,
		// Replaces root's hook: --debug is not parsed yet at this point, so
		// runRun sets up logging itself.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Merges the parent's persistent flags (--debug, --root, --config)
			// into cmd.Flags() so they are parsed here too.
			cmd.InheritedFlags()
			known, unknown := cmdutil.SplitKnownArgs(cmd.Flags(), args)
			if err := cmd.Flags().Parse(known); err != nil {
				return cmdutil.FlagErrorWrap(err)
			}
			if help, _ := cmd.Flags().GetBool("help"); help {
				return cmd.Help()
			}
			opts.PassThrough = unknown

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return runRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.TestsDir, "tests-dir", "", "Directory containing the test executable (required)")
	cmd.Flags().StringVar(&opts.NodePath, "node-path", "", "Scripting runtime used to launch mock servers")
	cmd.Flags().StringVar(&opts.GoPath, "go-path", "", "Toolchain used to build application servers")

	return cmd
}

func runRun(ctx context.Context, opts *RunOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	// Console only until the run validates; a failed run leaves no log files.
	opts.InitLogger(nil)

	cfg, err := opts.Config()
	if err != nil {
		fmt.Fprintf(ios.ErrOut, "%s %v\n", cs.FailureIcon(), err)
		return &cmdutil.ExitError{Code: exitcodes.Precondition}
	}

	testsDir := opts.TestsDir
	if testsDir != "" {
		if abs, err := filepath.Abs(testsDir); err == nil {
			testsDir = abs
		}
	}

	o := orchestrator.New(orchestrator.Options{
		Config:    cfg,
		IOStreams: ios,
		Run: config.RunOptions{
			Root:          opts.ConfigLoader().Root(),
			TestsDir:      testsDir,
			ScriptRuntime: opts.NodePath,
			Toolchain:     opts.GoPath,
			PassThrough:   opts.PassThrough,
		},
		OnValidated: func() { opts.InitLogger(cfg) },
	})

	if code := o.Run(ctx); code != exitcodes.Success {
		return &cmdutil.ExitError{Code: code}
	}
	return nil
}
