package down

import (
	"context"
	"fmt"

	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/compose"
	"github.com/schmitthub/fixture/internal/iostreams"
	"github.com/schmitthub/fixture/internal/logger"
	"github.com/spf13/cobra"
)

type DownOptions struct {
	IOStreams    *iostreams.IOStreams
	Dependencies func() (*compose.Bootstrapper, error)
}

func NewCmdDown(f *cmdutil.Factory, runF func(context.Context, *DownOptions) error) *cobra.Command {
	opts := &DownOptions{
		IOStreams:    f.IOStreams,
		Dependencies: f.Dependencies,
	}

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Deactivate the dependency set",
		Long: `Runs the configured compose tool ("down") in the dependencies directory.
Deactivating dependencies that are not running is harmless.`,
		Example: `  # Stop the dependencies
  fixture deps down`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return downRun(cmd.Context(), opts)
		},
	}

	return cmd
}

func downRun(ctx context.Context, opts *DownOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	deps, err := opts.Dependencies()
	if err != nil {
		return err
	}

	logger.Debug().Str("project", deps.ProjectName()).Msg("deactivating dependencies")
	if err := deps.Down(ctx); err != nil {
		return fmt.Errorf("failed to stop dependencies: %w", err)
	}

	fmt.Fprintf(ios.ErrOut, "%s Dependencies for %s are down\n", cs.SuccessIcon(), cs.Bold(deps.ProjectName()))
	return nil
}
