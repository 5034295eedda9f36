package bootstrap

import (
	"os"
	"time"

	"github.com/kbukum/dictation/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	signals         []os.Signal
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the application logger instead of initializing the global
// one from config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout bounds the stop hooks.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithSignals replaces the signals that cancel the task. No signals
// disables signal handling.
func WithSignals(sigs ...os.Signal) Option {
	return func(o *appOptions) {
		o.signals = append([]os.Signal{}, sigs...)
	}
}
