package session

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/dictation/recorder"
	"github.com/kbukum/dictation/transcription"
)

type fakeCapture struct {
	mu        sync.Mutex
	startErr  error
	stopErr   error
	audio     *recorder.Audio
	recording bool
	starts    int
	stops     int
	cancels   int
}

func newFakeCapture() *fakeCapture {
	return &fakeCapture{audio: &recorder.Audio{Data: []byte("RIFFdata"), MimeType: recorder.MimeWAV}}
}

func (c *fakeCapture) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	if c.startErr != nil {
		return c.startErr
	}
	c.recording = true
	return nil
}

func (c *fakeCapture) Stop(context.Context) (*recorder.Audio, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	c.recording = false
	if c.stopErr != nil {
		return nil, c.stopErr
	}
	return c.audio, nil
}

func (c *fakeCapture) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancels++
	c.recording = false
}

func (c *fakeCapture) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recording {
		return 0
	}
	return time.Second
}

type transcribeCall struct {
	audio    string
	mimeType string
	settings transcription.Settings
}

type fakeTranscriber struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []transcribeCall
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, mimeType string, s transcription.Settings, progress transcription.ProgressFunc) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, transcribeCall{audio: string(audio), mimeType: mimeType, settings: s})
	f.mu.Unlock()
	if progress != nil {
		progress("Transcribing chunk 1/1")
	}
	return f.text, f.err
}

type fakeCleaner struct {
	mu     sync.Mutex
	out    string
	err    error
	models []string
}

func (f *fakeCleaner) Cleanup(_ context.Context, _ string, model string) (string, error) {
	f.mu.Lock()
	f.models = append(f.models, model)
	f.mu.Unlock()
	return f.out, f.err
}

type fakeSink struct {
	mu  sync.Mutex
	got []Completed
	err error
}

func (f *fakeSink) Publish(_ context.Context, c Completed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, c)
	return f.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeRelay blocks Record until an upload or cancel arrives.
type fakeRelay struct {
	upload chan *recorder.Audio
	cancel chan struct{}
	once   sync.Once
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{upload: make(chan *recorder.Audio, 1), cancel: make(chan struct{})}
}

func (r *fakeRelay) Record(ctx context.Context) (*recorder.Audio, error) {
	select {
	case a := <-r.upload:
		return a, nil
	case <-r.cancel:
		return nil, errRelayCancelled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *fakeRelay) Cancel() {
	r.once.Do(func() { close(r.cancel) })
}
