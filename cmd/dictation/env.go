package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/kbukum/dictation/bootstrap"
	"github.com/kbukum/dictation/cleanup"
	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/observability"
	"github.com/kbukum/dictation/publish/mqtt"
	"github.com/kbukum/dictation/recorder"
	"github.com/kbukum/dictation/relay"
	"github.com/kbukum/dictation/session"
	"github.com/kbukum/dictation/store"
	"github.com/kbukum/dictation/store/sqlite"
	"github.com/kbukum/dictation/transcription"
	"github.com/kbukum/dictation/transcription/openai"
)

var errUsage = stderrors.New("invalid arguments")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// env carries the loaded config and lazily opened collaborators of one
// command run. Everything opened registers its own stop hook.
type env struct {
	app    *bootstrap.App[*AppConfig]
	cfg    *AppConfig
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	metrics *observability.Metrics
	store   store.Store

	mu      sync.Mutex
	failure error
}

func (e *env) setupObservability(ctx context.Context) error {
	shutdown, err := observability.Setup(ctx, e.cfg.Observability, e.cfg.Name, e.cfg.Version)
	if err != nil {
		return err
	}
	e.app.OnStop(bootstrap.Hook(shutdown))
	e.metrics = observability.DefaultMetrics()
	return nil
}

func (e *env) openStore(ctx context.Context) (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	st, err := sqlite.Open(ctx, e.cfg.Store)
	if err != nil {
		return nil, err
	}
	e.app.OnStop(func(context.Context) error { return st.Close() })
	e.store = st
	return st, nil
}

// newSession wires the native recorder with the browser relay as fallback,
// the transcription registry, cleanup and the optional MQTT sink.
func (e *env) newSession(ctx context.Context) (*session.Session, error) {
	st, err := e.openStore(ctx)
	if err != nil {
		return nil, err
	}

	reg := transcription.NewRegistry()
	openai.Register(reg, e.cfg.Transcription)
	transcriber := transcription.NewClient(reg, transcription.WithMetrics(e.metrics))

	rl := relay.New(e.cfg.Relay, relay.WithOpener(announcingOpener{w: e.stderr, next: relay.BrowserOpener{}}))
	e.app.OnStop(func(context.Context) error {
		rl.Close()
		return nil
	})

	var sinks []session.Sink
	if e.cfg.MQTT.Enabled {
		pub, err := mqtt.New(e.cfg.MQTT)
		if err != nil {
			// Publishing is optional; the transcript still lands in history.
			logger.Get(logger.ComponentPublisher).Warn("MQTT publishing disabled", logger.ErrorFields("connect", err))
		} else {
			e.app.OnStop(func(context.Context) error {
				pub.Close()
				return nil
			})
			sinks = append(sinks, pub)
		}
	}

	return session.New(session.Deps{
		Capture:     recorder.NewNative(e.cfg.Recorder),
		Fallback:    session.NewRelayCapture(rl),
		Transcriber: transcriber,
		Cleaner:     cleanup.New(e.cfg.Cleanup, st),
		Store:       st,
		Sinks:       sinks,
		Metrics:     e.metrics,
	}), nil
}

func (e *env) setFailure(err error) {
	e.mu.Lock()
	e.failure = err
	e.mu.Unlock()
}

// reported tells whether err was already printed from a Failed event.
func (e *env) reported(err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failure != nil && stderrors.Is(err, e.failure)
}

// announcingOpener prints the capture page address before opening it, so
// the page can be reached when no browser starts.
type announcingOpener struct {
	w    io.Writer
	next relay.Opener
}

func (o announcingOpener) Open(ctx context.Context, url string) error {
	fmt.Fprintf(o.w, "Opening %s\n", url)
	return o.next.Open(ctx, url)
}

// hintOnce prints hint the first time key is seen, remembering it in the
// stored UI state.
func (e *env) hintOnce(ctx context.Context, key, hint string) {
	if e.store == nil {
		return
	}
	state, err := e.store.UIState(ctx)
	if err != nil || state[key] {
		return
	}
	fmt.Fprintln(e.stderr, hint)
	if state == nil {
		state = store.UIState{}
	}
	state[key] = true
	if err := e.store.SaveUIState(ctx, state); err != nil {
		logger.Get(logger.ComponentStore).Warn("Saving UI state failed", logger.ErrorFields("save ui state", err))
	}
}
