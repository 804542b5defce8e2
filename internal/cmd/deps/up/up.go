package up

import (
	"context"
	"fmt"

	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/compose"
	"github.com/schmitthub/fixture/internal/iostreams"
	"github.com/schmitthub/fixture/internal/logger"
	"github.com/spf13/cobra"
)

type UpOptions struct {
	IOStreams    *iostreams.IOStreams
	Dependencies func() (*compose.Bootstrapper, error)

	CheckDaemon bool
}

func NewCmdUp(f *cmdutil.Factory, runF func(context.Context, *UpOptions) error) *cobra.Command {
	opts := &UpOptions{
		IOStreams:    f.IOStreams,
		Dependencies: f.Dependencies,
	}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Activate the dependency set",
		Long: `Runs the configured compose tool ("up -d") in the dependencies directory
and waits for it to return.`,
		Example: `  # Start the dependencies
  fixture deps up

  # Fail early when the Docker daemon is unreachable
  fixture deps up --check-daemon`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return upRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.CheckDaemon, "check-daemon", false, "Ping the Docker daemon first")

	return cmd
}

func upRun(ctx context.Context, opts *UpOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	deps, err := opts.Dependencies()
	if err != nil {
		return err
	}

	if opts.CheckDaemon {
		if err := deps.Ping(ctx); err != nil {
			return err
		}
	}

	logger.Debug().Str("project", deps.ProjectName()).Msg("activating dependencies")
	if err := deps.Up(ctx); err != nil {
		return fmt.Errorf("failed to start dependencies: %w", err)
	}

	fmt.Fprintf(ios.ErrOut, "%s Dependencies for %s are up\n", cs.SuccessIcon(), cs.Bold(deps.ProjectName()))
	return nil
}
