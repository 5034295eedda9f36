package process

import "time"

// Result holds the output and status of a completed subprocess.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 if the process was killed by a signal.
	ExitCode int
	Duration time.Duration
}
