package session

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/recorder"
)

// Capture is a recording strategy driven by the session.
type Capture interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (*recorder.Audio, error)
	Cancel()
	Elapsed() time.Duration
}

// Finisher is implemented by captures that can end on their own. Once
// Finished is closed the session stops the job, or cancels it when Err
// reports a cancellation.
type Finisher interface {
	Finished() <-chan struct{}
	Err() error
}

var _ Capture = (*recorder.Native)(nil)

// Recorder is the blocking browser relay used by RelayCapture.
type Recorder interface {
	Record(ctx context.Context) (*recorder.Audio, error)
	Cancel()
}

// RelayCapture adapts the browser relay to Capture. The page decides when
// the recording ends; Stop waits for its upload.
type RelayCapture struct {
	rec Recorder

	mu      sync.Mutex
	started time.Time
	done    chan struct{}
	audio   *recorder.Audio
	err     error
}

var (
	_ Capture  = (*RelayCapture)(nil)
	_ Finisher = (*RelayCapture)(nil)
)

// NewRelayCapture wraps rec, typically a *relay.Relay.
func NewRelayCapture(rec Recorder) *RelayCapture {
	return &RelayCapture{rec: rec}
}

// Start runs Record in the background. ctx bounds the whole recording.
func (c *RelayCapture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return errors.AlreadyRecording()
	}
	done := make(chan struct{})
	c.done, c.started, c.audio, c.err = done, time.Now(), nil, nil

	go func() {
		audio, err := c.rec.Record(ctx)
		c.mu.Lock()
		c.audio, c.err = audio, err
		c.mu.Unlock()
		close(done)
	}()
	return nil
}

// Finished is closed when the page has uploaded or cancelled.
func (c *RelayCapture) Finished() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Err is how the recording ended, valid once Finished is closed.
func (c *RelayCapture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Stop waits for the upload and returns it.
func (c *RelayCapture) Stop(ctx context.Context) (*recorder.Audio, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil, errors.NotRecording()
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = nil
	return c.audio, c.err
}

// Cancel tears the relay down and waits for Record to return.
func (c *RelayCapture) Cancel() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return
	}
	c.rec.Cancel()
	<-done

	c.mu.Lock()
	c.done = nil
	c.mu.Unlock()
}

// Elapsed is the time since Start while a recording is pending.
func (c *RelayCapture) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		return 0
	}
	return time.Since(c.started)
}
