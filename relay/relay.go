package relay

import (
	"context"
	_ "embed"
	"encoding/base64"
	stderrors "errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/recorder"
	"github.com/kbukum/dictation/server"
)

//go:embed page.html
var pageHTML string

// uploadRequest is the JSON body the capture page posts to /upload.
type uploadRequest struct {
	Audio    string `json:"audio" binding:"required"`
	MimeType string `json:"mimeType" binding:"required"`
}

type outcome struct {
	audio *recorder.Audio
	err   error
	// linger delays teardown so the browser receives its response.
	linger bool
}

// attempt is one Record call: its server and the single outcome it settles on.
type attempt struct {
	srv    *server.Server
	result chan outcome
	once   sync.Once
}

func newAttempt() *attempt {
	return &attempt{result: make(chan outcome, 1)}
}

// settle records the first outcome and reports whether o was it.
func (a *attempt) settle(o outcome) bool {
	settled := false
	a.once.Do(func() {
		a.result <- o
		settled = true
	})
	return settled
}

// Option customises a Relay.
type Option func(*Relay)

// WithOpener replaces the system browser launcher.
func WithOpener(o Opener) Option {
	return func(r *Relay) { r.opener = o }
}

// WithLogger sets the component logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Relay) { r.log = l }
}

// Relay receives audio captured by an external browser through a one-shot
// loopback HTTP server. One Record call may be in flight at a time.
type Relay struct {
	cfg    Config
	opener Opener
	log    *logger.Logger

	mu        sync.Mutex
	active    *attempt
	teardowns sync.WaitGroup
}

// New creates a relay. The server is only bound while Record runs.
func New(cfg Config, opts ...Option) *Relay {
	cfg.ApplyDefaults()
	r := &Relay{cfg: cfg, opener: BrowserOpener{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get(logger.ComponentRelay)
	}
	return r
}

// Record serves the capture page, opens it in a browser and waits for the
// upload. It returns RecordingCancelled when the page or Cancel aborts the
// attempt, or when ctx is done. The server is torn down on every path.
func (r *Relay) Record(ctx context.Context) (*recorder.Audio, error) {
	a := newAttempt()
	a.srv = server.New(server.Config{Host: r.cfg.Host, MaxBodySize: r.cfg.MaxBodySize}, r.log)
	r.routes(a.srv.GinEngine(), a)

	if err := a.srv.Start(ctx); err != nil {
		return nil, errors.Internal(err)
	}

	r.mu.Lock()
	r.active = a
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		if r.active == a {
			r.active = nil
		}
		r.mu.Unlock()
	}()

	url := a.srv.URL()
	r.log.Info("Browser relay listening", logger.Fields(logger.FieldURL, url))
	if err := r.opener.Open(ctx, url); err != nil {
		// The page can still be opened by hand.
		r.log.Warn("Could not open browser", logger.Fields(logger.FieldURL, url, logger.FieldError, err.Error()))
	}

	var o outcome
	select {
	case o = <-a.result:
	case <-ctx.Done():
		a.settle(outcome{err: errors.RecordingCancelled().WithCause(ctx.Err())})
		o = <-a.result
	}

	if o.linger {
		r.teardownAfter(a.srv, r.cfg.ShutdownDelay)
	} else {
		r.teardown(a.srv)
	}
	return o.audio, o.err
}

// Cancel rejects the in-flight Record with RecordingCancelled. It is a
// no-op when nothing is pending.
func (r *Relay) Cancel() {
	r.mu.Lock()
	a := r.active
	r.mu.Unlock()
	if a == nil {
		return
	}
	if a.settle(outcome{err: errors.RecordingCancelled()}) {
		r.log.Info("Browser recording cancelled")
	}
}

// URL is the capture page address while Record is waiting, or "".
func (r *Relay) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return ""
	}
	return r.active.srv.URL()
}

// Close cancels any pending Record and waits for delayed teardowns.
func (r *Relay) Close() {
	r.Cancel()
	r.teardowns.Wait()
}

func (r *Relay) teardown(srv *server.Server) {
	if err := srv.Stop(context.Background()); err != nil {
		r.log.Warn("Relay shutdown failed", logger.ErrorFields("shutdown", err))
	}
}

func (r *Relay) teardownAfter(srv *server.Server, delay time.Duration) {
	r.teardowns.Add(1)
	time.AfterFunc(delay, func() {
		defer r.teardowns.Done()
		r.teardown(srv)
	})
}

func (r *Relay) routes(e *gin.Engine, a *attempt) {
	e.SetHTMLTemplate(template.Must(template.New("page").Parse(pageHTML)))
	e.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "page", gin.H{"Title": r.cfg.PageTitle})
	})
	e.POST("/upload", r.handleUpload(a))
	e.POST("/cancel", r.handleCancel(a))
}

func (r *Relay) handleUpload(a *attempt) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req uploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			reason := "Upload must be JSON with audio and mimeType"
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				reason = "Upload exceeds the size limit"
			}
			r.log.Warn("Rejected browser upload", logger.ErrorFields("upload", err))
			server.RespondWithError(c, errors.UploadInvalid(reason).WithCause(err))
			return
		}

		data, err := base64.StdEncoding.DecodeString(req.Audio)
		if err != nil {
			r.log.Warn("Rejected browser upload", logger.ErrorFields("decode", err))
			server.RespondWithError(c, errors.UploadInvalid("audio is not valid base64").WithCause(err))
			return
		}

		audio := &recorder.Audio{Data: data, MimeType: req.MimeType}
		if !a.settle(outcome{audio: audio, linger: true}) {
			server.RespondWithError(c, errors.NotRecording())
			return
		}
		r.log.Info("Browser upload received", logger.Fields(
			logger.FieldBytes, len(data), logger.FieldMimeType, req.MimeType))
		server.RespondSuccess(c)
	}
}

func (r *Relay) handleCancel(a *attempt) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.settle(outcome{err: errors.RecordingCancelled(), linger: true}) {
			r.log.Info("Browser recording cancelled from page")
		}
		server.RespondSuccess(c)
	}
}
