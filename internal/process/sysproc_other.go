//go:build !unix

package process

import (
	"os"
	"os/exec"
)

func setProcAttr(*exec.Cmd) {}

// terminate has no polite form outside unix; the process is killed.
func terminate(p *os.Process) error {
	return p.Kill()
}

func kill(p *os.Process) error {
	return p.Kill()
}

// groupAlive is false outside unix; only the leader is tracked.
func groupAlive(*os.Process) bool { return false }
