package bootstrap

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/dictation/config"
	"github.com/kbukum/dictation/logger"
)

type testConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	StorePath            string `mapstructure:"store_path"`
}

func (c *testConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.StorePath == "" {
		c.StorePath = "dictation.db"
	}
}

func (c *testConfig) Validate() error {
	return c.ServiceConfig.Validate()
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop()), WithSignals()}, opts...)
	app, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "dictation", Version: "1.2.3"}}, opts...)
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	return app
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) hook(name string, err error) Hook {
	return func(context.Context) error {
		r.mu.Lock()
		r.calls = append(r.calls, name)
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.calls, ",")
}

func TestNewAppAppliesDefaults(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "dictation" || app.Version != "1.2.3" {
		t.Errorf("unexpected identity %q %q", app.Name, app.Version)
	}
	if app.Cfg.StorePath != "dictation.db" {
		t.Errorf("expected default store path, got %q", app.Cfg.StorePath)
	}
	if app.Cfg.Environment != "production" {
		t.Errorf("expected default environment, got %q", app.Cfg.Environment)
	}
}

func TestNewAppValidationError(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.Nop()))
	if err == nil {
		t.Fatal("expected validation error for missing name")
	}
	if !strings.Contains(err.Error(), "config.name is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewAppInitializesGlobalLogger(t *testing.T) {
	app, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "dictation"}}, WithSignals())
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	if app.Logger == nil {
		t.Fatal("expected logger to be initialized")
	}
	if app.Logger != logger.GetGlobalLogger() {
		t.Error("expected the global logger")
	}
}

func TestRunTaskHookOrder(t *testing.T) {
	app := newTestApp(t)
	rec := &recorder{}
	app.OnStart(rec.hook("start1", nil), rec.hook("start2", nil))
	app.OnStop(rec.hook("stop1", nil), rec.hook("stop2", nil))

	err := app.RunTask(context.Background(), func(context.Context) error {
		rec.hook("task", nil)(context.Background())
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask() error: %v", err)
	}
	if got, want := rec.String(), "start1,start2,task,stop2,stop1"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRunTaskReturnsTaskError(t *testing.T) {
	app := newTestApp(t)
	rec := &recorder{}
	app.OnStop(rec.hook("stop", errors.New("close failed")))

	taskErr := errors.New("transcription failed")
	err := app.RunTask(context.Background(), func(context.Context) error { return taskErr })
	if !errors.Is(err, taskErr) {
		t.Errorf("expected task error, got %v", err)
	}
	if rec.String() != "stop" {
		t.Errorf("stop hooks must run after a failed task, got %q", rec.String())
	}
}

func TestRunTaskReturnsStopError(t *testing.T) {
	app := newTestApp(t)
	rec := &recorder{}
	stopErr := errors.New("close failed")
	app.OnStop(rec.hook("first", nil), rec.hook("second", stopErr))

	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, stopErr) {
		t.Errorf("expected stop error, got %v", err)
	}
	if rec.String() != "second,first" {
		t.Errorf("every stop hook must run, got %q", rec.String())
	}
}

func TestRunTaskStartHookFailure(t *testing.T) {
	app := newTestApp(t)
	rec := &recorder{}
	app.OnStart(rec.hook("start", errors.New("open store")))
	app.OnStop(rec.hook("stop", nil))

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "onStart hook failed") {
		t.Fatalf("expected start hook error, got %v", err)
	}
	if ran {
		t.Error("task must not run after a failed start hook")
	}
	if rec.String() != "start,stop" {
		t.Errorf("got %q", rec.String())
	}
}

func TestRunTaskCancelledByParent(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- app.RunTask(ctx, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task was not cancelled")
	}
}

func TestStopHooksBoundedByGracefulTimeout(t *testing.T) {
	app := newTestApp(t, WithGracefulTimeout(20*time.Millisecond))
	app.OnStop(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("stop hook was not bounded")
	}
}
