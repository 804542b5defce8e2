package status

import (
	"context"
	"fmt"

	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/compose"
	"github.com/schmitthub/fixture/internal/iostreams"
	"github.com/schmitthub/fixture/internal/logger"
	"github.com/spf13/cobra"
)

// Lister lists the dependency containers.
type Lister interface {
	ProjectName() string
	Status(ctx context.Context) ([]compose.Service, error)
}

type StatusOptions struct {
	IOStreams    *iostreams.IOStreams
	Dependencies func() (Lister, error)
}

func NewCmdStatus(f *cmdutil.Factory, runF func(context.Context, *StatusOptions) error) *cobra.Command {
	opts := &StatusOptions{
		IOStreams: f.IOStreams,
		Dependencies: func() (Lister, error) {
			deps, err := f.Dependencies()
			if err != nil {
				return nil, err
			}
			return deps, nil
		},
	}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the dependency containers",
		Long: `Lists the containers of the dependency set's compose project, running or
not, by asking the Docker daemon directly.`,
		Example: `  # Check dependency status
  fixture deps status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return statusRun(cmd.Context(), opts)
		},
	}

	return cmd
}

func statusRun(ctx context.Context, opts *StatusOptions) error {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	deps, err := opts.Dependencies()
	if err != nil {
		return err
	}

	project := deps.ProjectName()
	logger.Debug().Str("project", project).Msg("checking dependency status")

	services, err := deps.Status(ctx)
	if err != nil {
		return err
	}

	if len(services) == 0 {
		fmt.Fprintf(ios.ErrOut, "Dependencies (%s): %s\n", project, cs.Red("STOPPED"))
		fmt.Fprintln(ios.ErrOut)
		fmt.Fprintln(ios.ErrOut, "Run 'fixture deps up' to start them.")
		return nil
	}

	running := 0
	tp := ios.NewTablePrinter("NAME", "STATE", "STATUS")
	for _, s := range services {
		if s.State == "running" {
			running++
		}
		tp.AddRow(s.Name, s.State, s.Status)
	}

	label := cs.Green("RUNNING")
	if running < len(services) {
		label = cs.Yellow(fmt.Sprintf("%d/%d RUNNING", running, len(services)))
	}
	fmt.Fprintf(ios.ErrOut, "Dependencies (%s): %s\n", project, label)
	return tp.Render()
}
