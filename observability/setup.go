package observability

import (
	"context"
	"errors"
)

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(ctx context.Context) error

// Setup installs tracer and meter providers when cfg.Enabled. The returned
// shutdown is always safe to call.
func Setup(ctx context.Context, cfg Config, serviceName, serviceVersion string) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return noop, err
	}

	tp, err := InitTracer(ctx, cfg, serviceName, serviceVersion)
	if err != nil {
		return noop, err
	}
	mp, err := InitMeter(ctx, cfg, serviceName, serviceVersion)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return noop, err
	}

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
