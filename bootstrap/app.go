package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/dictation/logger"
)

// App runs a command-line task with uniform lifecycle management: config
// defaults and validation, logger setup, start hooks, signal cancellation
// and stop hooks. C is the config type.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStop(func(ctx context.Context) error { return st.Close() })
//	err = app.RunTask(ctx, func(ctx context.Context) error { ... })
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger

	gracefulTimeout time.Duration
	signals         []os.Signal

	onStart []Hook
	onStop  []Hook
}

// NewApp applies defaults, validates cfg and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 5 * time.Second,
		signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.signals != nil {
		app.signals = o.signals
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	return app, nil
}

// RunTask runs the start hooks, then task with a context cancelled on the
// first SIGINT or SIGTERM, then the stop hooks. The task error wins over a
// stop error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	a.Logger.Debug("Starting", logger.Fields("name", a.Name, "version", a.Version))
	if err := runHooks(ctx, a.onStart); err != nil {
		stopErr := a.stop()
		if stopErr != nil {
			a.Logger.Warn("Stop hooks failed", logger.ErrorFields("stop", stopErr))
		}
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if len(a.signals) > 0 {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, a.signals...)
		defer signal.Stop(sigCh)

		go func() {
			select {
			case sig := <-sigCh:
				a.Logger.Debug("Received signal, cancelling task", logger.Fields("signal", sig.String()))
				cancel()
			case <-taskCtx.Done():
			}
		}()
	}

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// stop runs the stop hooks in reverse registration order within the
// graceful timeout. Every hook runs; the first error is returned.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var first error
	for i := len(a.onStop) - 1; i >= 0; i-- {
		if err := a.onStop[i](ctx); err != nil {
			a.Logger.Warn("Stop hook failed", logger.ErrorFields("stop", err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
