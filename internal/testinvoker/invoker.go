// Package testinvoker runs the external test executable and reports its exit
// status unmodified.
package testinvoker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/schmitthub/fixture/internal/logger"
)

// DefaultWaitDelay bounds how long a cancelled test run may take to exit
// before it is killed.
const DefaultWaitDelay = 10 * time.Second

// Invoker runs a test executable with inherited or supplied stdio.
type Invoker struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Env    []string
	// WaitDelay is how long to wait after SIGTERM on cancellation.
	WaitDelay time.Duration
}

// New returns an Invoker wired to the process's own stdio.
func New() *Invoker {
	return &Invoker{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		WaitDelay: DefaultWaitDelay,
	}
}

// Run executes exe in dir with args forwarded verbatim and blocks until it
// exits. The returned code is the child's exit status, or 128+signo if the
// child was ended by a signal. A non-nil error means the child could not be
// run at all.
func (i *Invoker) Run(ctx context.Context, exe, dir string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = dir
	cmd.Stdin = i.Stdin
	cmd.Stdout = i.Stdout
	cmd.Stderr = i.Stderr
	if len(i.Env) > 0 {
		cmd.Env = append(os.Environ(), i.Env...)
	}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = i.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	logger.Debug().Str("exe", exe).Str("dir", dir).Strs("args", args).Msg("running tests")

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitCode(exitErr)
		logger.Debug().Int("code", code).Msg("tests exited")
		return code, nil
	}
	return 0, fmt.Errorf("failed to run tests %s: %w", exe, err)
}

func exitCode(err *exec.ExitError) int {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return err.ExitCode()
}
