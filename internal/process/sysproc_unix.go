//go:build unix

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttr puts the child in its own process group so teardown reaches
// anything it spawns, and a terminal interrupt is routed through fixture
// instead of hitting the children directly.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminate(p *os.Process) error {
	return signalGroup(p, unix.SIGTERM)
}

func kill(p *os.Process) error {
	return signalGroup(p, unix.SIGKILL)
}

// groupAlive reports whether any process is left in p's process group.
func groupAlive(p *os.Process) bool {
	return unix.Kill(-p.Pid, 0) == nil
}

// signalGroup returns os.ErrProcessDone when nothing was left to signal.
func signalGroup(p *os.Process, sig unix.Signal) error {
	err := unix.Kill(-p.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		// Group is gone; fall back to the leader in case it left the group.
		if err := p.Signal(sig); err != nil {
			return os.ErrProcessDone
		}
		return nil
	}
	return err
}
