package deps

import (
	"github.com/schmitthub/fixture/internal/cmd/deps/down"
	"github.com/schmitthub/fixture/internal/cmd/deps/status"
	"github.com/schmitthub/fixture/internal/cmd/deps/up"
	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/spf13/cobra"
)

// NewCmdDeps creates the deps parent command.
func NewCmdDeps(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Manage the fixture's containerized dependencies",
		Long: `Commands for managing the containerized dependencies of the fixture
outside of a test run, for example to keep them up across several runs
while debugging.

Available commands:
  up      Activate the dependency set
  down    Deactivate the dependency set
  status  Show the dependency containers`,
		Example: `  # Start the dependencies
  fixture deps up

  # Check what is running
  fixture deps status

  # Stop them again
  fixture deps down`,
	}

	cmd.AddCommand(up.NewCmdUp(f, nil))
	cmd.AddCommand(down.NewCmdDown(f, nil))
	cmd.AddCommand(status.NewCmdStatus(f, nil))

	return cmd
}
