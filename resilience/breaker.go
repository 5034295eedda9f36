package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Execute while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

// BreakerState is the breaker position.
type BreakerState int

const (
	// BreakerClosed lets calls through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the cooldown has passed.
	BreakerOpen
	// BreakerHalfOpen lets a single trial call through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// Name identifies the breaker in state change callbacks.
	Name string
	// MaxFailures consecutive failures open the breaker. Defaults to 5.
	MaxFailures int
	// Cooldown is how long the breaker stays open. Defaults to 30s.
	Cooldown time.Duration
	// OnStateChange is called with the breaker lock released.
	OnStateChange func(name string, from, to BreakerState)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Breaker fails fast after repeated failures, then probes with one call
// once the cooldown has passed.
type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	trial    bool
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Breaker{cfg: cfg}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.acquire(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

// State returns the current position.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.expired() {
		return BreakerHalfOpen
	}
	return b.state
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	from := b.state
	state := b.current()
	switch {
	case state == BreakerOpen, state == BreakerHalfOpen && b.trial:
		b.mu.Unlock()
		b.notify(from, state)
		return ErrOpen
	case state == BreakerHalfOpen:
		b.trial = true
	}
	b.mu.Unlock()
	b.notify(from, state)
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	from := b.state
	b.trial = false
	switch {
	case err == nil:
		b.failures = 0
		b.state = BreakerClosed
	case b.state == BreakerHalfOpen:
		b.open()
	default:
		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.open()
		}
	}
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
}

func (b *Breaker) open() {
	b.state = BreakerOpen
	b.openedAt = b.cfg.Now()
	b.failures = 0
}

// current moves an expired open breaker to half-open. Callers hold mu.
func (b *Breaker) current() BreakerState {
	if b.expired() {
		b.state = BreakerHalfOpen
		b.trial = false
	}
	return b.state
}

func (b *Breaker) expired() bool {
	return b.state == BreakerOpen && b.cfg.Now().Sub(b.openedAt) >= b.cfg.Cooldown
}

func (b *Breaker) notify(from, to BreakerState) {
	if from != to && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, from, to)
	}
}
