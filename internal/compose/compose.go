// Package compose brings the fixture's containerized dependency set up and
// down with an external compose tool, and inspects it through the Docker API.
package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/google/shlex"
	"github.com/moby/moby/client"
	"github.com/schmitthub/fixture/internal/logger"
)

// ProjectLabel is the label compose puts on every container it manages.
const ProjectLabel = "com.docker.compose.project"

// DockerAPI is the subset of the Docker client used for daemon checks and
// status listing.
type DockerAPI interface {
	Ping(ctx context.Context, options client.PingOptions) (client.PingResult, error)
	ContainerList(ctx context.Context, options client.ContainerListOptions) (client.ContainerListResult, error)
	io.Closer
}

// Options configures a Bootstrapper.
type Options struct {
	// Dir is where the compose tool runs.
	Dir string
	// File is passed with -f when set.
	File string
	// Command is the compose invocation, e.g. "docker compose".
	Command string
	// Project overrides the compose project name for status lookups.
	Project string
	// Out receives the tool's output. Nil discards it.
	Out io.Writer
	// NewClient creates the Docker API client. Nil uses the environment.
	NewClient func() (DockerAPI, error)
}

// Bootstrapper activates and deactivates the dependency set. Activation is
// treated as atomic: there is no partially-up state.
type Bootstrapper struct {
	opts      Options
	argv      []string
	attempted atomic.Bool
}

// New validates opts and returns a Bootstrapper.
func New(opts Options) (*Bootstrapper, error) {
	argv, err := shlex.Split(opts.Command)
	if err != nil {
		return nil, fmt.Errorf("invalid compose command %q: %w", opts.Command, err)
	}
	if len(argv) == 0 {
		return nil, errors.New("compose command is empty")
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.NewClient == nil {
		opts.NewClient = func() (DockerAPI, error) {
			cli, err := client.New(client.FromEnv)
			if err != nil {
				return nil, err
			}
			return cli, nil
		}
	}
	return &Bootstrapper{opts: opts, argv: argv}, nil
}

// Args returns the full argument list for a compose subcommand.
func (b *Bootstrapper) Args(sub ...string) []string {
	args := append([]string(nil), b.argv...)
	if b.opts.File != "" {
		args = append(args, "-f", b.opts.File)
	}
	return append(args, sub...)
}

// Up activates the dependency set ("up -d") and blocks until the tool
// returns. The tool's exit status is returned for logging only.
func (b *Bootstrapper) Up(ctx context.Context) error {
	b.attempted.Store(true)
	return b.run(ctx, "up", "-d")
}

// Down deactivates the dependency set. Deactivating an inactive set is left
// to the tool and is harmless.
func (b *Bootstrapper) Down(ctx context.Context) error {
	return b.run(ctx, "down")
}

// Attempted reports whether Up has been called.
func (b *Bootstrapper) Attempted() bool {
	return b.attempted.Load()
}

func (b *Bootstrapper) run(ctx context.Context, sub ...string) error {
	args := b.Args(sub...)
	logger.Debug().Strs("args", args).Str("dir", b.opts.Dir).Msg("running compose")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = b.opts.Dir
	cmd.Stdout = b.opts.Out
	cmd.Stderr = b.opts.Out

	if err := cmd.Run(); err != nil {
		logger.Warn().Err(err).Strs("args", args).Msg("compose tool reported an error")
		return fmt.Errorf("compose %s: %w", strings.Join(sub, " "), err)
	}
	return nil
}

// ProjectName returns the compose project name: the configured override, or
// the normalized base name of Dir, which is what compose itself derives.
func (b *Bootstrapper) ProjectName() string {
	if b.opts.Project != "" {
		return b.opts.Project
	}
	return normalizeProjectName(filepath.Base(b.opts.Dir))
}

func normalizeProjectName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	return strings.TrimLeft(sb.String(), "-_")
}

// Ping checks that the Docker daemon is reachable.
func (b *Bootstrapper) Ping(ctx context.Context) error {
	cli, err := b.opts.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create docker client: %w", err)
	}
	defer cli.Close()

	if _, err := cli.Ping(ctx, client.PingOptions{}); err != nil {
		return fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return nil
}

// Service is one container of the dependency set.
type Service struct {
	ID     string
	Name   string
	State  string
	Status string
}

// Status lists the project's containers, running or not.
func (b *Bootstrapper) Status(ctx context.Context) ([]Service, error) {
	cli, err := b.opts.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	defer cli.Close()

	f := client.Filters{}.Add("label", ProjectLabel+"="+b.ProjectName())

	result, err := cli.ContainerList(ctx, client.ContainerListOptions{
		All:     true,
		Filters: f,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	services := make([]Service, 0, len(result.Items))
	for _, c := range result.Items {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		services = append(services, Service{
			ID:     c.ID,
			Name:   name,
			State:  string(c.State),
			Status: c.Status,
		})
	}
	return services, nil
}
