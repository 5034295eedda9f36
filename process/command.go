package process

import (
	"io"
	"time"
)

// Command configures a subprocess to execute.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	Args   []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is merged with os.Environ when non-empty.
	Env []string
	// Stdin is only used by Run. Started processes always read from the null device.
	Stdin io.Reader
	// GracePeriod is how long Run waits after SIGTERM before SIGKILL.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
}

func (c Command) String() string {
	s := c.Binary
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}
