package root

import (
	depscmd "github.com/schmitthub/fixture/internal/cmd/deps"
	initcmd "github.com/schmitthub/fixture/internal/cmd/init"
	runcmd "github.com/schmitthub/fixture/internal/cmd/run"
	versioncmd "github.com/schmitthub/fixture/internal/cmd/version"
	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/logger"
	"github.com/spf13/cobra"
)

// NewCmdRoot creates the root command for the fixture CLI.
func NewCmdRoot(f *cmdutil.Factory, version, buildDate string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Run an integration test suite against a fully provisioned fixture",
		Long: `Fixture brings up everything an integration test suite needs, runs the
suite, tears everything down again, and exits with the suite's own status.

A run builds the application servers, starts the containerized dependencies,
launches the mock servers and application servers, waits for them to settle,
and then runs the test executable with every unrecognized argument forwarded.

Quick start:
  fixture init                       # Write fixture.yaml with the defaults
  fixture run --tests-dir build/out  # Provision, test, tear down
  fixture deps status                # Inspect the dependency containers`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// File logging is set up by commands that load the fixture.
			logger.Init(f.Debug)
			logger.Debug().
				Str("version", f.Version).
				Bool("debug", f.Debug).
				Msg("fixture starting")
			return nil
		},
		Version: f.Version,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "D", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&f.WorkDir, "root", "", "Fixture root directory (default: current directory)")
	cmd.PersistentFlags().StringVarP(&f.ConfigFile, "config", "c", "", "Fixture definition file (default: <root>/fixture.yaml)")

	cmd.SetVersionTemplate(versioncmd.Format(version, buildDate))

	cmd.AddCommand(runcmd.NewCmdRun(f, nil))
	cmd.AddCommand(initcmd.NewCmdInit(f, nil))
	cmd.AddCommand(depscmd.NewCmdDeps(f))
	cmd.AddCommand(versioncmd.NewCmdVersion(f, version, buildDate))

	return cmd
}
