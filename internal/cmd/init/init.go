package init

import (
	"context"
	"fmt"

	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/config"
	"github.com/schmitthub/fixture/internal/iostreams"
	"github.com/schmitthub/fixture/internal/logger"
	"github.com/spf13/cobra"
)

// InitOptions contains the options for the init command.
type InitOptions struct {
	IOStreams    *iostreams.IOStreams
	ConfigLoader func() *config.Loader

	Force bool
}

// NewCmdInit creates the init command, which writes the default fixture
// definition.
func NewCmdInit(f *cmdutil.Factory, runF func(context.Context, *InitOptions) error) *cobra.Command {
	opts := &InitOptions{
		IOStreams:    f.IOStreams,
		ConfigLoader: f.ConfigLoader,
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a fixture definition with the default layout",
		Long: `Creates fixture.yaml in the fixture root (or the file named by --config)
containing the built-in defaults: five node mock servers under
test/mock-servers, the JSON and protobuf application servers under
pitaya-servers, and their compose-managed dependencies.

Edit the file to describe your own fixture. Keys left out keep their defaults.`,
		Example: `  # Write ./fixture.yaml
  fixture init

  # Replace an existing definition
  fixture init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return initRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Overwrite an existing fixture definition")

	return cmd
}

func initRun(_ context.Context, opts *InitOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()
	path := opts.ConfigLoader().ConfigPath()

	logger.Debug().Str("path", path).Bool("force", opts.Force).Msg("writing fixture definition")

	if err := config.Write(path, config.DefaultConfig(), opts.Force); err != nil {
		fmt.Fprintf(ios.ErrOut, "%s %v\n", cs.FailureIcon(), err)
		if !opts.Force {
			fmt.Fprintln(ios.ErrOut, cs.Muted("Use --force to overwrite it."))
		}
		return cmdutil.SilentError
	}

	fmt.Fprintf(ios.ErrOut, "%s Wrote %s\n", cs.SuccessIcon(), path)
	return nil
}
