package session

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/observability"
	"github.com/kbukum/dictation/recorder"
	"github.com/kbukum/dictation/store"
	"github.com/kbukum/dictation/transcription"
)

// ErrClosed is returned by operations on a closed Session.
var ErrClosed = stderrors.New("session: closed")

const (
	defaultTickInterval     = 100 * time.Millisecond
	defaultEventBuffer      = 256
	defaultInterruptTimeout = 3 * time.Second
)

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string, s transcription.Settings, progress transcription.ProgressFunc) (string, error)
}

// Cleaner rewrites a raw transcript.
type Cleaner interface {
	Cleanup(ctx context.Context, text, model string) (string, error)
}

// Deps are the collaborators of a Session. Capture, Transcriber and Store
// are required.
type Deps struct {
	Capture     Capture
	Fallback    Capture
	Transcriber Transcriber
	Cleaner     Cleaner
	Store       store.Store
	Sinks       []Sink
	Metrics     *observability.Metrics
	Logger      *logger.Logger

	Now              func() time.Time
	TickInterval     time.Duration
	EventBuffer      int
	InterruptTimeout time.Duration
}

// job is the single in-flight recording and its pipeline.
type job struct {
	id        string
	ctx       context.Context
	span      trace.Span
	capture   Capture
	startedAt time.Time
	ready     bool
	// kept is set once the captured audio is stored for a later retry.
	kept bool

	tickMu   sync.Mutex
	tickStop chan struct{}
	tickDone chan struct{}
}

func (j *job) stopTicker() {
	j.tickMu.Lock()
	stop, done := j.tickStop, j.tickDone
	j.tickStop = nil
	j.tickMu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Session runs one dictation job at a time: capture, transcription,
// optional cleanup, then history. Progress is reported on Events in order.
// The event channel must be drained until it is closed by Close.
type Session struct {
	deps Deps
	log  *logger.Logger

	// seq orders state transitions with their events; it is taken before mu.
	seq    sync.Mutex
	mu     sync.Mutex
	state  State
	job    *job
	closed bool

	emitMu       sync.Mutex
	events       chan Event
	eventsClosed bool

	wg sync.WaitGroup
}

// New creates an idle Session.
func New(deps Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = defaultTickInterval
	}
	if deps.EventBuffer <= 0 {
		deps.EventBuffer = defaultEventBuffer
	}
	if deps.InterruptTimeout <= 0 {
		deps.InterruptTimeout = defaultInterruptTimeout
	}
	log := deps.Logger
	if log == nil {
		log = logger.Get(logger.ComponentSession)
	}
	return &Session{
		deps:   deps,
		log:    log,
		events: make(chan Event, deps.EventBuffer),
	}
}

// Events returns the ordered event stream. It is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins a recording with the primary capture.
func (s *Session) Start(ctx context.Context) error {
	return s.start(ctx, s.deps.Capture)
}

// StartFallback begins a recording with the fallback capture, normally the
// browser relay offered after FallbackOffered.
func (s *Session) StartFallback(ctx context.Context) error {
	if s.deps.Fallback == nil {
		return errors.NoRecordingTool()
	}
	return s.start(ctx, s.deps.Fallback)
}

func (s *Session) start(ctx context.Context, c Capture) error {
	j := s.newJob(ctx, c)
	if err := s.claim(j, StateRecording); err != nil {
		j.span.End()
		return err
	}

	if err := c.Start(j.ctx); err != nil {
		s.fail(j, err)
		return err
	}

	s.mu.Lock()
	if s.job != j {
		// Cancelled while the capture was starting.
		s.mu.Unlock()
		c.Cancel()
		return errors.RecordingCancelled()
	}
	j.ready = true
	j.startedAt = s.deps.Now()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		s.interrupt(j)
		return ErrClosed
	}

	s.log.Info("Recording", logger.Fields(logger.FieldJobID, j.id))
	s.saveSnapshot(j.ctx, store.RecordingSession{StartTime: j.startedAt})
	s.startTicker(j)
	return nil
}

// Stop ends the recording and runs the job to completion. It returns the
// error that failed the job, if any.
func (s *Session) Stop(ctx context.Context) error {
	j, err := s.beginStop()
	if err != nil {
		return err
	}
	j.stopTicker()

	audio, err := j.capture.Stop(ctx)
	elapsed := s.deps.Now().Sub(j.startedAt)
	if err != nil {
		s.fail(j, err)
		return err
	}
	if !s.transition(j, StateTranscribing, StateStopping) {
		return errors.RecordingCancelled()
	}
	return s.process(ctx, j, audio, elapsed)
}

// Cancel discards the current recording. It does nothing unless recording.
func (s *Session) Cancel() {
	s.cancel(nil)
}

// cancel discards the recording of want, or of the current job when want
// is nil.
func (s *Session) cancel(want *job) {
	s.seq.Lock()
	s.mu.Lock()
	j := s.job
	if j == nil || s.state != StateRecording || (want != nil && j != want) {
		s.mu.Unlock()
		s.seq.Unlock()
		return
	}
	s.job = nil
	s.state = StateCancelled
	s.mu.Unlock()
	s.emit(StateChanged{From: StateRecording, To: StateCancelled})
	s.seq.Unlock()

	j.stopTicker()
	j.capture.Cancel()
	s.clearSnapshot(j.ctx)
	s.log.Info("Recording cancelled", logger.Fields(logger.FieldJobID, j.id))
	s.endJob(j, StateCancelled, nil)
	s.toIdle(nil, StateCancelled)
}

// TranscribeAudio runs an existing recording through the pipeline, as if it
// had just been captured. duration is recorded in history.
func (s *Session) TranscribeAudio(ctx context.Context, audio *recorder.Audio, duration time.Duration) error {
	if audio.Len() == 0 {
		return errors.InvalidInput("audio", "recording is empty")
	}
	j := s.newJob(ctx, nil)
	if err := s.claim(j, StateTranscribing); err != nil {
		j.span.End()
		return err
	}
	return s.process(ctx, j, audio, duration)
}

// CheckRecovery looks for an interrupted recording and emits Recovered when
// one exists.
func (s *Session) CheckRecovery(ctx context.Context) (*store.RecordingSession, error) {
	snap, err := s.deps.Store.Session(ctx)
	if err != nil || snap == nil {
		return nil, err
	}
	s.emit(Recovered{Session: *snap})
	return snap, nil
}

// Recover transcribes the audio of an interrupted recording. A snapshot
// without audio is discarded.
func (s *Session) Recover(ctx context.Context) error {
	snap, err := s.deps.Store.Session(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return errors.InvalidInput("session", "no interrupted recording to recover")
	}
	if len(snap.Audio) == 0 {
		s.clearSnapshot(ctx)
		return errors.InvalidInput("session", "the interrupted recording has no audio")
	}
	audio := &recorder.Audio{Data: snap.Audio, MimeType: snap.MimeType}
	if audio.MimeType == "" {
		audio.MimeType = recorder.MimeWAV
	}
	return s.TranscribeAudio(ctx, audio, time.Duration(snap.ElapsedMs)*time.Millisecond)
}

// DiscardRecovery deletes the interrupted recording.
func (s *Session) DiscardRecovery(ctx context.Context) error {
	return s.deps.Store.ClearSession(ctx)
}

// Close interrupts a recording in progress, keeping what was captured as a
// recovery snapshot, then closes Events. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	j := s.job
	recording := j != nil && j.ready && s.state == StateRecording
	s.mu.Unlock()

	if recording {
		s.interrupt(j)
	}
	s.wg.Wait()

	s.emitMu.Lock()
	s.eventsClosed = true
	close(s.events)
	s.emitMu.Unlock()
	return nil
}

// interrupt stops j without running the pipeline and stores its audio.
func (s *Session) interrupt(j *job) {
	s.seq.Lock()
	s.mu.Lock()
	if s.job != j || s.state != StateRecording {
		s.mu.Unlock()
		s.seq.Unlock()
		return
	}
	s.job = nil
	s.state = StateCancelled
	s.mu.Unlock()
	s.emit(StateChanged{From: StateRecording, To: StateCancelled})
	s.seq.Unlock()

	j.stopTicker()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), s.deps.InterruptTimeout)
	defer cancel()

	elapsed := s.deps.Now().Sub(j.startedAt)
	audio, err := j.capture.Stop(ctx)
	if err != nil {
		j.capture.Cancel()
		s.log.Warn("Interrupted recording lost", logger.Fields(logger.FieldJobID, j.id, logger.FieldError, err.Error()))
	} else {
		s.saveSnapshot(ctx, store.RecordingSession{
			StartTime: j.startedAt,
			Audio:     audio.Data,
			MimeType:  audio.MimeType,
			ElapsedMs: elapsed.Milliseconds(),
		})
		s.log.Info("Interrupted recording saved", logger.Fields(logger.FieldJobID, j.id, logger.FieldBytes, audio.Len()))
	}
	s.endJob(j, StateCancelled, nil)
	s.toIdle(nil, StateCancelled)
}

// process transcribes audio, optionally cleans the text up, and completes j.
func (s *Session) process(ctx context.Context, j *job, audio *recorder.Audio, elapsed time.Duration) error {
	settings, err := s.deps.Store.Settings(ctx)
	if err != nil {
		s.keepForRetry(ctx, j, audio, elapsed)
		s.fail(j, err)
		return err
	}
	key, err := s.deps.Store.Credential(ctx)
	if err != nil {
		s.keepForRetry(ctx, j, audio, elapsed)
		s.fail(j, err)
		return err
	}

	tctx := trace.ContextWithSpan(ctx, j.span)
	progress := func(msg string) { s.emit(Progress{Message: msg}) }
	raw, err := s.deps.Transcriber.Transcribe(tctx, audio.Data, audio.MimeType, transcription.Settings{
		Provider:      settings.Provider,
		SelfHostedURL: settings.SelfHostedURL,
		Language:      settings.Language,
		APIKey:        key,
	}, progress)
	if err != nil {
		s.keepForRetry(ctx, j, audio, elapsed)
		s.fail(j, err)
		return err
	}

	text, cleaned := raw, false
	if s.cleanupApplies(settings) && s.transition(j, StateCleaningUp, StateTranscribing) {
		out, err := s.deps.Cleaner.Cleanup(tctx, raw, settings.CleanupModel)
		if err != nil {
			s.deps.Metrics.RecordCleanupFailure(ctx)
			s.log.Warn("Cleanup failed, keeping raw transcript", logger.Fields(
				logger.FieldJobID, j.id, logger.FieldError, err.Error()))
			s.emit(Warning{Message: "Cleanup failed, showing the raw transcript: " + errors.Message(err), Err: err})
		} else {
			text, cleaned = out, true
		}
	}

	s.complete(ctx, j, raw, text, cleaned, elapsed)
	return nil
}

// cleanupApplies reports whether the cleanup pass runs for settings. The
// self-hosted endpoint has no chat API.
func (s *Session) cleanupApplies(settings store.Settings) bool {
	if s.deps.Cleaner == nil || !settings.CleanupEnabled {
		return false
	}
	return settings.Provider == "" || settings.Provider == transcription.ProviderRemote
}

func (s *Session) complete(ctx context.Context, j *job, raw, text string, cleaned bool, elapsed time.Duration) {
	entry := store.NewHistoryEntry(text, elapsed, s.deps.Now())
	if err := s.deps.Store.AddHistory(ctx, entry); err != nil {
		s.log.Warn("History not saved", logger.ErrorFields("add history", err))
		s.emit(Warning{Message: "The transcript was not saved to history.", Err: err})
	}
	s.clearSnapshot(ctx)

	if !s.transition(j, StateComplete, StateTranscribing, StateCleaningUp) {
		return
	}
	done := Completed{JobID: j.id, Entry: entry, RawText: raw, Cleaned: cleaned}
	s.emit(done)
	for _, sink := range s.deps.Sinks {
		if err := sink.Publish(ctx, done); err != nil {
			s.log.Warn("Publish failed", logger.ErrorFields("publish", err))
			s.emit(Warning{Message: "The transcript could not be published.", Err: err})
		}
	}

	s.log.Info("Job complete", logger.Fields(
		logger.FieldJobID, j.id, "cleaned", cleaned, logger.FieldDuration, elapsed.Milliseconds()))
	s.endJob(j, StateComplete, nil)
	s.toIdle(j, StateComplete)
}

// fail moves j to Error, reports err unless it is a cancellation, and
// returns the session to Idle. A recording whose audio was not kept leaves
// no recovery snapshot behind.
func (s *Session) fail(j *job, err error) {
	if !s.transition(j, StateError, StateRecording, StateStopping, StateTranscribing, StateCleaningUp) {
		return
	}
	j.stopTicker()
	if j.ready && !j.kept {
		s.clearSnapshot(j.ctx)
	}

	if errors.IsUserVisible(err) {
		s.log.Error("Job failed", logger.Fields(logger.FieldJobID, j.id, logger.FieldError, err.Error()))
		s.emit(Failed{Message: errors.Message(err), Err: err})
	}
	if appErr, ok := errors.AsAppError(err); ok && errors.OffersFallback(appErr.Code) && s.deps.Fallback != nil {
		s.emit(FallbackOffered{Reason: appErr.Message})
	}
	s.endJob(j, StateError, err)
	s.toIdle(j, StateError)
}

// keepForRetry stores captured audio whose transcription failed so that it
// can be recovered later.
func (s *Session) keepForRetry(ctx context.Context, j *job, audio *recorder.Audio, elapsed time.Duration) {
	if j.capture == nil {
		return
	}
	if err := s.deps.Store.SaveSession(context.WithoutCancel(ctx), store.RecordingSession{
		StartTime: j.startedAt,
		Audio:     audio.Data,
		MimeType:  audio.MimeType,
		ElapsedMs: elapsed.Milliseconds(),
	}); err != nil {
		s.log.Warn("Recovery snapshot not saved", logger.ErrorFields("save session", err))
		return
	}
	j.kept = true
}

// --- state machine ---

func (s *Session) newJob(ctx context.Context, c Capture) *job {
	id := uuid.NewString()
	jctx, span := observability.StartSpan(ctx, observability.SpanJob,
		attribute.String(observability.AttrJobID, id))
	return &job{id: id, ctx: jctx, span: span, capture: c}
}

// claim makes j the current job in state to. Only an idle session accepts.
func (s *Session) claim(j *job, to State) error {
	s.seq.Lock()
	defer s.seq.Unlock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return errors.AlreadyRecording()
	}
	s.job = j
	s.state = to
	s.mu.Unlock()
	s.emit(StateChanged{From: StateIdle, To: to})
	return nil
}

func (s *Session) beginStop() (*job, error) {
	s.seq.Lock()
	defer s.seq.Unlock()
	s.mu.Lock()
	j := s.job
	if j == nil || !j.ready || s.state != StateRecording {
		s.mu.Unlock()
		return nil, errors.NotRecording()
	}
	s.state = StateStopping
	s.mu.Unlock()
	s.emit(StateChanged{From: StateRecording, To: StateStopping})
	return j, nil
}

// transition moves j from one of from to to. It reports false when j is no
// longer current or the state does not match.
func (s *Session) transition(j *job, to State, from ...State) bool {
	s.seq.Lock()
	defer s.seq.Unlock()
	s.mu.Lock()
	cur := s.state
	if s.job != j || !slices.Contains(from, cur) {
		s.mu.Unlock()
		return false
	}
	s.state = to
	s.mu.Unlock()
	s.emit(StateChanged{From: cur, To: to})
	return true
}

// toIdle returns the session to Idle from a terminal state and releases j.
// A nil j means the job was already released.
func (s *Session) toIdle(j *job, from State) {
	s.seq.Lock()
	defer s.seq.Unlock()
	s.mu.Lock()
	if s.state != from || (j != nil && s.job != j) {
		s.mu.Unlock()
		return
	}
	s.job = nil
	s.state = StateIdle
	s.mu.Unlock()
	s.emit(StateChanged{From: from, To: StateIdle})
}

func (s *Session) endJob(j *job, terminal State, err error) {
	s.deps.Metrics.RecordJob(j.ctx, terminal.String())
	j.span.SetAttributes(attribute.String(observability.AttrState, terminal.String()))
	observability.EndSpan(j.span, err)
}

// --- ticks ---

func (s *Session) startTicker(j *job) {
	stop, done := make(chan struct{}), make(chan struct{})
	j.tickMu.Lock()
	j.tickStop, j.tickDone = stop, done
	j.tickMu.Unlock()

	var finished <-chan struct{}
	fin, ok := j.capture.(Finisher)
	if ok {
		finished = fin.Finished()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		t := time.NewTicker(s.deps.TickInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				s.emit(Tick{Elapsed: j.capture.Elapsed()})
			case <-finished:
				cancelled := errors.IsCancelled(fin.Err())
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					if cancelled {
						s.cancel(j)
						return
					}
					_ = s.Stop(j.ctx)
				}()
				return
			}
		}
	}()
}

// --- events and snapshots ---

func (s *Session) emit(e Event) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.eventsClosed {
		return
	}
	if _, ok := e.(Tick); ok {
		select {
		case s.events <- e:
		default:
		}
		return
	}
	s.events <- e
}

func (s *Session) saveSnapshot(ctx context.Context, snap store.RecordingSession) {
	if err := s.deps.Store.SaveSession(ctx, snap); err != nil {
		s.log.Warn("Recovery snapshot not saved", logger.ErrorFields("save session", err))
	}
}

func (s *Session) clearSnapshot(ctx context.Context) {
	if err := s.deps.Store.ClearSession(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("Recovery snapshot not cleared", logger.ErrorFields("clear session", err))
	}
}
