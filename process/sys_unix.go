//go:build !windows

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

const lookupBinary = "which"

// setProcessGroup puts the child in its own group so the whole tree can be signalled.
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminate(p *os.Process) error {
	return signalGroup(p, syscall.SIGTERM)
}

func kill(p *os.Process) error {
	return signalGroup(p, syscall.SIGKILL)
}

func signalGroup(p *os.Process, sig syscall.Signal) error {
	err := syscall.Kill(-p.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
