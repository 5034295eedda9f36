package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/recorder"
	"github.com/kbukum/dictation/session"
)

const hintNativeTools = "native_tools_hint_shown"

// printer renders session events. It is the only place events are
// interpreted by the command.
type printer struct {
	e *env

	// onIdle runs on every return to idle.
	onIdle func()
	// onFallback runs when native capture is unavailable.
	onFallback func()
}

func (p *printer) handlers() session.Handlers {
	return session.Handlers{
		StateChanged: func(ev session.StateChanged) {
			switch ev.To {
			case session.StateRecording:
				fmt.Fprintln(p.e.stderr, "Recording. Press Enter to stop, Ctrl-C to cancel.")
			case session.StateTranscribing:
				fmt.Fprintln(p.e.stderr, "Transcribing...")
			case session.StateCleaningUp:
				fmt.Fprintln(p.e.stderr, "Cleaning up...")
			case session.StateCancelled:
				p.e.setFailure(errors.RecordingCancelled())
			case session.StateIdle:
				if p.onIdle != nil {
					p.onIdle()
				}
			}
		},
		Tick: func(ev session.Tick) {
			fmt.Fprintf(p.e.stderr, "\r%s ", formatElapsed(ev.Elapsed))
		},
		Progress: func(ev session.Progress) {
			fmt.Fprintln(p.e.stderr, ev.Message)
		},
		Warning: func(ev session.Warning) {
			fmt.Fprintln(p.e.stderr, "warning:", ev.Message)
		},
		Failed: func(ev session.Failed) {
			p.e.setFailure(ev.Err)
			fmt.Fprintln(p.e.stderr, "error:", ev.Message)
		},
		Completed: func(ev session.Completed) {
			fmt.Fprintln(p.e.stdout, ev.Entry.Text)
		},
		FallbackOffered: func(session.FallbackOffered) {
			fmt.Fprintln(p.e.stderr, "Switching to the browser recorder.")
			p.e.hintOnce(context.Background(), hintNativeTools,
				"Tip: with a native recording tool installed, recording starts without a browser.")
			if p.onFallback != nil {
				p.onFallback()
			}
		},
		Recovered: func(ev session.Recovered) {
			fmt.Fprintf(p.e.stderr, "Found an interrupted recording from %s (%s).\n",
				ev.Session.StartTime.Local().Format(time.DateTime),
				formatElapsed(time.Duration(ev.Session.ElapsedMs)*time.Millisecond))
		},
	}
}

// withSession runs job while the session's events are printed, then closes
// the session and waits for the printer to drain.
func withSession(ctx context.Context, e *env, p *printer, job func(ctx context.Context, s *session.Session) error) error {
	sess, err := e.newSession(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		session.Drain(context.WithoutCancel(gctx), sess.Events(), p.handlers())
		return nil
	})
	g.Go(func() error {
		defer sess.Close()
		return job(gctx, sess)
	})
	return g.Wait()
}

func runRecord(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("record", pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	browser := fs.Bool("browser", false, "record in the browser instead of with a native tool")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// done is closed when the job returns to idle for good.
	done := make(chan struct{})
	var (
		once          sync.Once
		mu            sync.Mutex
		wantFallback  bool
		startFallback func()
	)
	p := &printer{e: e}
	p.onFallback = func() {
		mu.Lock()
		wantFallback = true
		mu.Unlock()
	}
	p.onIdle = func() {
		mu.Lock()
		fallback := wantFallback
		wantFallback = false
		startFn := startFallback
		mu.Unlock()
		if fallback && startFn != nil {
			e.setFailure(nil)
			startFn()
			return
		}
		once.Do(func() { close(done) })
	}

	return withSession(ctx, e, p, func(ctx context.Context, sess *session.Session) error {
		var wg sync.WaitGroup
		defer wg.Wait()
		mu.Lock()
		startFallback = func() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// A failure returns to idle and ends the wait below.
				_ = sess.StartFallback(ctx)
			}()
		}
		mu.Unlock()

		start := sess.Start
		if *browser {
			start = sess.StartFallback
		}
		if err := start(ctx); err != nil {
			if stderrors.Is(err, session.ErrClosed) || errors.Is(err, errors.ErrCodeAlreadyRecording) {
				return err
			}
			if !errors.OffersFallback(errorCode(err)) || *browser {
				<-done
				return err
			}
		}

		enter := make(chan struct{})
		go func() {
			_, _ = bufio.NewReader(e.stdin).ReadString('\n')
			close(enter)
		}()

		select {
		case <-done:
			return e.outcome()
		case <-enter:
			fmt.Fprintln(e.stderr)
			_ = sess.Stop(ctx)
		case <-ctx.Done():
			fmt.Fprintln(e.stderr)
			sess.Cancel()
		}
		<-done
		if ctx.Err() != nil {
			return errors.RecordingCancelled()
		}
		return e.outcome()
	})
}

func runTranscribe(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("transcribe", pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	mimeType := fs.String("mime", "", "audio MIME type (default: from the file extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("expected one audio file")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.InvalidInput("file", err.Error())
	}
	audio := &recorder.Audio{Data: data, MimeType: *mimeType}
	if audio.MimeType == "" {
		audio.MimeType = mimeFor(path)
	}

	return withSession(ctx, e, &printer{e: e}, func(ctx context.Context, sess *session.Session) error {
		return sess.TranscribeAudio(ctx, audio, 0)
	})
}

func runRecover(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("recover", pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	discard := fs.Bool("discard", false, "delete the interrupted recording")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withSession(ctx, e, &printer{e: e}, func(ctx context.Context, sess *session.Session) error {
		snap, err := sess.CheckRecovery(ctx)
		if err != nil {
			return err
		}
		if snap == nil {
			fmt.Fprintln(e.stderr, "No interrupted recording.")
			return nil
		}
		if *discard {
			if err := sess.DiscardRecovery(ctx); err != nil {
				return err
			}
			fmt.Fprintln(e.stderr, "Interrupted recording discarded.")
			return nil
		}
		return sess.Recover(ctx)
	})
}

// outcome is the error of the last failed job, if any.
func (e *env) outcome() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failure
}

func errorCode(err error) errors.ErrorCode {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

var audioTypes = map[string]string{
	".wav":  recorder.MimeWAV,
	".webm": recorder.MimeWebM,
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
}

func mimeFor(path string) string {
	if t, ok := audioTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return "application/octet-stream"
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
