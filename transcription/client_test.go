package transcription_test

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/transcription"
)

type reply func(req transcription.Request) (*transcription.Response, error)

// fakeProvider answers each call from replies in order and records what it
// was sent.
type fakeProvider struct {
	name     string
	needsKey bool
	replies  []reply
	calls    []transcription.Request
}

func (f *fakeProvider) Name() string                     { return f.name }
func (f *fakeProvider) IsAvailable(context.Context) bool { return true }
func (f *fakeProvider) RequiresCredential() bool         { return f.needsKey }

func (f *fakeProvider) Transcribe(_ context.Context, req transcription.Request) (*transcription.Response, error) {
	f.calls = append(f.calls, req)
	i := len(f.calls) - 1
	if i >= len(f.replies) {
		return nil, fmt.Errorf("unexpected call %d", i+1)
	}
	return f.replies[i](req)
}

func text(s string) reply {
	return func(transcription.Request) (*transcription.Response, error) {
		return &transcription.Response{Text: s}, nil
	}
}

func newClient(t *testing.T, p *fakeProvider, ceiling int) *transcription.Client {
	t.Helper()
	reg := transcription.NewRegistry()
	reg.RegisterFactory(p.name, func(map[string]any) (transcription.Provider, error) { return p, nil })
	return transcription.NewClient(reg, transcription.WithCeiling(ceiling), transcription.WithLogger(logger.Nop()))
}

var remote = transcription.Settings{Provider: transcription.ProviderRemote, APIKey: "sk-test"}

func TestTranscribeSingle(t *testing.T) {
	p := &fakeProvider{name: transcription.ProviderRemote, needsKey: true, replies: []reply{text("hello world")}}
	c := newClient(t, p, 16)

	s := remote
	s.Language = "en"
	got, err := c.Transcribe(context.Background(), make([]byte, 10), "audio/wav", s, nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q", got)
	}
	if len(p.calls) != 1 {
		t.Fatalf("expected one upstream call, got %d", len(p.calls))
	}
	req := p.calls[0]
	if req.FileName != "audio.wav" || req.MimeType != "audio/wav" || req.Language != "en" || len(req.Audio) != 10 {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestTranscribeAtCeilingIsSingle(t *testing.T) {
	p := &fakeProvider{name: transcription.ProviderRemote, replies: []reply{text(" padded ")}}
	c := newClient(t, p, 16)

	progressCalled := false
	got, err := c.Transcribe(context.Background(), make([]byte, 16), "audio/webm", remote, func(string) { progressCalled = true })
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != " padded " {
		t.Errorf("text must be returned verbatim, got %q", got)
	}
	if progressCalled {
		t.Error("progress must not be reported for a single upload")
	}
}

func TestTranscribeChunked(t *testing.T) {
	p := &fakeProvider{name: transcription.ProviderRemote, replies: []reply{
		text("foo"), text("bar"), text("baz"),
	}}
	c := newClient(t, p, 4)

	data := []byte("abcdefghij")
	var progress []string
	got, err := c.Transcribe(context.Background(), data, "audio/ogg", remote, func(m string) { progress = append(progress, m) })
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "foo bar baz" {
		t.Errorf("got %q", got)
	}

	wantProgress := []string{"Transcribing chunk 1/3", "Transcribing chunk 2/3", "Transcribing chunk 3/3"}
	if !reflect.DeepEqual(progress, wantProgress) {
		t.Errorf("progress = %v", progress)
	}

	wantSlices := []string{"abcd", "efgh", "ij"}
	for i, call := range p.calls {
		if string(call.Audio) != wantSlices[i] {
			t.Errorf("chunk %d: got %q, want %q", i, call.Audio, wantSlices[i])
		}
		if call.FileName != "audio.ogg" {
			t.Errorf("chunk %d: filename %q", i, call.FileName)
		}
	}
}

func TestTranscribeChunkFailureStops(t *testing.T) {
	upstream := errors.TranscriptionFailed("Invalid file format.", 400)
	p := &fakeProvider{name: transcription.ProviderRemote, replies: []reply{
		text("foo"),
		func(transcription.Request) (*transcription.Response, error) { return nil, upstream },
		text("never"),
	}}
	c := newClient(t, p, 4)

	got, err := c.Transcribe(context.Background(), []byte("abcdefghij"), "audio/wav", remote, nil)
	if err != upstream {
		t.Fatalf("expected the failing chunk's error, got %v", err)
	}
	if got != "" {
		t.Errorf("no partial result expected, got %q", got)
	}
	if len(p.calls) != 2 {
		t.Errorf("expected calls to stop at the failing chunk, got %d", len(p.calls))
	}
}

func TestTranscribeMissingAPIKey(t *testing.T) {
	p := &fakeProvider{name: transcription.ProviderRemote, needsKey: true}
	c := newClient(t, p, 16)

	_, err := c.Transcribe(context.Background(), []byte("audio"), "audio/wav",
		transcription.Settings{Provider: transcription.ProviderRemote}, nil)
	if !errors.Is(err, errors.ErrCodeMissingAPIKey) {
		t.Fatalf("expected MISSING_API_KEY, got %v", err)
	}
	if len(p.calls) != 0 {
		t.Error("no upstream call may be made without a key")
	}
}

func TestTranscribeSelfHostedNeedsNoKey(t *testing.T) {
	p := &fakeProvider{name: transcription.ProviderSelfHosted, replies: []reply{text("local")}}
	c := newClient(t, p, 16)

	got, err := c.Transcribe(context.Background(), []byte("audio"), "audio/wav",
		transcription.Settings{Provider: transcription.ProviderSelfHosted, SelfHostedURL: "http://localhost:9000"}, nil)
	if err != nil || got != "local" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestTranscribeUnknownProvider(t *testing.T) {
	c := newClient(t, &fakeProvider{name: transcription.ProviderRemote}, 16)
	_, err := c.Transcribe(context.Background(), []byte("audio"), "audio/wav",
		transcription.Settings{Provider: "azure"}, nil)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}
