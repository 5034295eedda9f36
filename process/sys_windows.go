//go:build windows

package process

import (
	"os"
	"os/exec"
)

const lookupBinary = "where"

func setProcessGroup(*exec.Cmd) {}

// Windows has no SIGTERM; recorders are stopped by killing the process.
func terminate(p *os.Process) error {
	return p.Kill()
}

func kill(p *os.Process) error {
	return p.Kill()
}
