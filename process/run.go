package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

const defaultGracePeriod = 5 * time.Second

// Run executes a subprocess and waits for it to complete.
// If the context is canceled, the process group is terminated first and
// killed after GracePeriod.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = defaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	setProcessGroup(c)
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return terminate(c.Process)
	}
	c.WaitDelay = gracePeriod

	start := time.Now()
	err := c.Run()

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("process: killed by context: %w", ctx.Err())
		}
		return result, fmt.Errorf("process: exit code %d: %w", result.ExitCode, err)
	}
	return result, nil
}

// LookPath reports whether name resolves on this host, using the platform's
// which/where lookup.
func LookPath(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	_, err := Run(ctx, Command{Binary: lookupBinary, Args: []string{name}, GracePeriod: time.Second})
	return err == nil
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return append(os.Environ(), extra...)
}
