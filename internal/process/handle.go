// Package process spawns and supervises the fixture's child processes.
//
// A Handle owns one child and the log file its stdout and stderr are
// redirected to. A Registry launches ordered groups of handles and tears
// all of them down exactly once.
package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schmitthub/fixture/internal/logger"
)

const (
	// killWait bounds how long Stop waits for a SIGKILLed child to be reaped.
	killWait = 2 * time.Second
	// groupPoll is how often Stop checks for surviving group members.
	groupPoll = 20 * time.Millisecond
)

// Spec describes one process to launch.
type Spec struct {
	// Name identifies the process in logs and reports.
	Name string
	// Argv is the full command line; Argv[0] is the program.
	Argv []string
	// Dir is the working directory (the executable's parent).
	Dir string
	// LogPath receives both stdout and stderr, truncated on every run.
	LogPath string
	// Env is appended to the orchestrator's environment.
	Env []string
	// Required marks processes whose failure aborts the run.
	Required bool
}

// Handle is a spawned child process and its log file.
type Handle struct {
	spec Spec
	cmd  *exec.Cmd
	log  *os.File

	done    chan struct{}
	waitErr error

	termOnce   sync.Once
	termErr    error
	terminated atomic.Bool
	killed     atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// Start spawns spec. It returns as soon as the child exists; it never waits
// for the child to become ready. On failure the reason is also written to
// the log file so the log explains a missing process.
func Start(spec Spec) (*Handle, error) {
	if len(spec.Argv) == 0 {
		return nil, fmt.Errorf("%s: empty command line", spec.Name)
	}

	logFile, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", spec.LogPath, err)
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = append(os.Environ(), spec.Env...)
	setProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(logFile, "fixture: failed to start %q: %v\n", spec.Argv, err)
		logFile.Close()
		return nil, fmt.Errorf("failed to start %s: %w", spec.Name, err)
	}

	h := &Handle{
		spec: spec,
		cmd:  cmd,
		log:  logFile,
		done: make(chan struct{}),
	}

	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()

	logger.Debug().
		Str("process", spec.Name).
		Int("pid", cmd.Process.Pid).
		Str("log", spec.LogPath).
		Msg("started process")

	return h, nil
}

// Name returns the process name.
func (h *Handle) Name() string { return h.spec.Name }

// Pid returns the OS process identifier.
func (h *Handle) Pid() int { return h.cmd.Process.Pid }

// LogPath returns the log file path.
func (h *Handle) LogPath() string { return h.spec.LogPath }

// Required reports whether the process was marked required.
func (h *Handle) Required() bool { return h.spec.Required }

// Done is closed once the process has exited and been reaped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Running reports whether the process has not yet exited.
func (h *Handle) Running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// ExitErr returns the result of waiting on the process. Only meaningful
// after Done is closed.
func (h *Handle) ExitErr() error {
	select {
	case <-h.done:
		return h.waitErr
	default:
		return nil
	}
}

// Terminated reports whether a termination request was issued.
func (h *Handle) Terminated() bool { return h.terminated.Load() }

// Killed reports whether the process had to be force-killed.
func (h *Handle) Killed() bool { return h.killed.Load() }

// Terminate sends one polite termination request (SIGTERM) to the process
// and its process group. Later calls return the first result without
// signalling again. A process that already exited is not an error.
func (h *Handle) Terminate() error {
	h.termOnce.Do(func() {
		h.terminated.Store(true)
		// The group is signalled even when the leader is gone; its
		// children may still be running.
		if err := terminate(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			h.termErr = err
		}
	})
	return h.termErr
}

// Kill force-kills the process group, whether or not the leader has
// already exited. Nothing left to kill is not an error.
func (h *Handle) Kill() error {
	err := kill(h.cmd.Process)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	if err != nil {
		return err
	}
	h.killed.Store(true)
	return nil
}

// Stop terminates the process group, waits up to grace for the leader and
// every other group member to exit, and kills the group if anything is
// still alive. It reports whether a kill was needed.
func (h *Handle) Stop(grace time.Duration) bool {
	if err := h.Terminate(); err != nil {
		logger.Debug().Err(err).Str("process", h.Name()).Msg("termination request failed")
	}
	deadline := time.Now().Add(grace)
	if h.await(grace) && h.awaitGroup(deadline) {
		return false
	}

	logger.Warn().Str("process", h.Name()).Dur("grace", grace).Msg("process ignored termination request, killing")
	if err := h.Kill(); err != nil {
		logger.Debug().Err(err).Str("process", h.Name()).Msg("kill failed")
	}
	h.await(killWait)
	h.awaitGroup(time.Now().Add(killWait))
	return true
}

// awaitGroup polls until no member of the process group is left or the
// deadline passes.
func (h *Handle) awaitGroup(deadline time.Time) bool {
	for groupAlive(h.cmd.Process) {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(groupPoll)
	}
	return true
}

func (h *Handle) await(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-h.done:
		return true
	case <-timer.C:
		return false
	}
}

// Close closes the log file exactly once.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.log.Close()
	})
	return h.closeErr
}
