package relay

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/kbukum/dictation/process"
)

// Opener asks the host to show a URL in an external browser.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string) error

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, url string) error { return f(ctx, url) }

// BrowserOpener launches the platform's default URL handler.
type BrowserOpener struct{}

// Open runs xdg-open, open or rundll32 depending on the platform.
func (BrowserOpener) Open(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := openCommand(runtime.GOOS, url)
	res, err := process.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("open browser: %s exited with %d: %s",
			cmd.Binary, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	return nil
}

func openCommand(goos, url string) process.Command {
	switch goos {
	case "darwin":
		return process.Command{Binary: "open", Args: []string{url}}
	case "windows":
		return process.Command{Binary: "rundll32", Args: []string{"url.dll,FileProtocolHandler", url}}
	default:
		return process.Command{Binary: "xdg-open", Args: []string{url}}
	}
}
