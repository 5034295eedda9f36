package process

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Handle is a long-running subprocess started with Start.
type Handle struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu     sync.Mutex
	stderr bytes.Buffer
	err    error
}

// lockedWriter serialises writes from exec's copy goroutine with reads of
// the captured stderr.
type lockedWriter struct{ h *Handle }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.h.mu.Lock()
	defer w.h.mu.Unlock()
	return w.h.stderr.Write(p)
}

// Start launches cmd in its own process group with stdin attached to the
// null device and returns without waiting for it to exit.
func Start(cmd Command) (*Handle, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	c := exec.Command(cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	setProcessGroup(c)

	h := &Handle{cmd: c, done: make(chan struct{})}
	c.Stderr = lockedWriter{h}

	if err := c.Start(); err != nil {
		return nil, err
	}

	go func() {
		err := c.Wait()
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.done)
	}()
	return h, nil
}

// Pid returns the operating system process id.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Done is closed once the process has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Exited reports whether the process has already exited.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Terminate asks the process group to exit gracefully. It is a no-op once
// the process has exited.
func (h *Handle) Terminate() error {
	if h.Exited() {
		return nil
	}
	return terminate(h.cmd.Process)
}

// Kill force-kills the process group. It is a no-op once the process has exited.
func (h *Handle) Kill() error {
	if h.Exited() {
		return nil
	}
	return kill(h.cmd.Process)
}

// Wait blocks until the process exits and returns its exit error.
// It may be called any number of times.
func (h *Handle) Wait() error {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Stderr returns what the process has written to standard error so far.
func (h *Handle) Stderr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strings.TrimSpace(h.stderr.String())
}
