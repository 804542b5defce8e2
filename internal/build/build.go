// Package build compiles application-server executables with an external
// toolchain before they are launched.
package build

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/schmitthub/fixture/internal/logger"
)

// Target is one executable to build.
type Target struct {
	// Name identifies the server in logs and reports.
	Name string
	// Dir is the source directory the toolchain runs in.
	Dir string
	// Output is the binary file name produced in Dir.
	Output string
	// Source is the package or file to build (e.g. main.go).
	Source string
	// Required marks targets whose failure aborts the run.
	Required bool
}

// Result is the outcome of building one Target.
type Result struct {
	Target Target
	Output string
	Err    error
}

// OK reports whether the build succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Builder runs "<toolchain> build -o <output> <source>" for each target.
type Builder struct {
	Toolchain string
}

// NewBuilder returns a Builder using the given toolchain binary.
func NewBuilder(toolchain string) *Builder {
	return &Builder{Toolchain: toolchain}
}

// Build compiles every target in order and blocks until all are done. A
// failing target does not stop the remaining ones; every outcome is returned.
func (b *Builder) Build(ctx context.Context, targets []Target) []Result {
	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		results = append(results, b.buildOne(ctx, t))
	}
	return results
}

func (b *Builder) buildOne(ctx context.Context, t Target) Result {
	if err := ctx.Err(); err != nil {
		return Result{Target: t, Err: err}
	}

	args := []string{"build", "-o", t.Output}
	if t.Source != "" {
		args = append(args, t.Source)
	}

	cmd := exec.CommandContext(ctx, b.Toolchain, args...)
	cmd.Dir = t.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	ev := logger.Info().Str("target", t.Name).Str("dir", t.Dir)
	if digest, err := SourceDigest(t); err == nil {
		ev = ev.Str("digest", digest)
	}
	ev.Msg("building")
	err := cmd.Run()
	output := strings.TrimSpace(out.String())
	if output != "" {
		logger.Debug().Str("target", t.Name).Str("output", output).Msg("build output")
	}
	if err != nil {
		logger.Warn().Err(err).Str("target", t.Name).Msg("build failed")
		return Result{Target: t, Output: output, Err: fmt.Errorf("build %s: %w", t.Name, err)}
	}
	return Result{Target: t, Output: output}
}
