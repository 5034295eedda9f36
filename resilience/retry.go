package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures Retry. Zero fields take the defaults below.
type RetryConfig struct {
	// Attempts includes the first call. Defaults to 3.
	Attempts int
	// Backoff before the second attempt. Defaults to 200ms.
	Backoff time.Duration
	// MaxBackoff caps the delay. Defaults to 5s.
	MaxBackoff time.Duration
	// Factor multiplies the delay after each attempt. Defaults to 2.
	Factor float64
	// Jitter randomizes each delay by up to this fraction (0 to 1).
	Jitter float64
	// RetryIf reports whether err is worth another attempt. Defaults to
	// everything except context errors.
	RetryIf func(err error) bool
	// OnRetry is called before each delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c *RetryConfig) applyDefaults() {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.Factor <= 0 {
		c.Factor = 2
	}
	if c.RetryIf == nil {
		c.RetryIf = retryable
	}
}

func retryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry calls fn until it succeeds, returns an error RetryIf rejects, or
// the attempts run out. The last error is returned.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	cfg.applyDefaults()

	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= cfg.Attempts || !cfg.RetryIf(err) {
			return err
		}

		delay := cfg.delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// delay is Backoff * Factor^(attempt-1), jittered and capped.
func (c *RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.Backoff) * math.Pow(c.Factor, float64(attempt-1))
	if c.Jitter > 0 {
		d += d * c.Jitter * (rand.Float64()*2 - 1)
	}
	if d > float64(c.MaxBackoff) {
		d = float64(c.MaxBackoff)
	}
	if d < 0 {
		d = float64(c.Backoff)
	}
	return time.Duration(d)
}
