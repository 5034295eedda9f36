//go:build !windows

package recorder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/logger"
)

// fakeRecorder writes a script that behaves like arecord: it records until
// SIGTERM, then writes the file named by its last argument and exits.
func fakeRecorder(t *testing.T, onTerm string) string {
	t.Helper()
	script := `#!/bin/sh
for last; do :; done
out="$last"
trap '` + onTerm + `' TERM
while :; do sleep 0.05; done
`
	path := filepath.Join(t.TempDir(), "fake-recorder")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func newTestNative(t *testing.T, script string) (*Native, string) {
	t.Helper()
	tmp := t.TempDir()
	n := NewNative(Config{SettleDelay: 20 * time.Millisecond, TempDir: tmp},
		WithLookup(lookupOnly("arecord", "sox")),
		WithCommand(ToolALSA, script),
		WithCommand(ToolSoX, script),
		WithLogger(logger.Nop()),
	)
	return n, tmp
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no temporary files, found %d", len(entries))
	}
}

func TestNativeStartStop(t *testing.T) {
	n, tmp := newTestNative(t, fakeRecorder(t, `printf RIFFfake > "$out"; exit 0`))
	ctx := context.Background()

	if err := n.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !n.IsRecording() {
		t.Fatal("expected IsRecording after Start")
	}
	time.Sleep(30 * time.Millisecond)
	if n.Elapsed() <= 0 {
		t.Error("expected positive Elapsed while recording")
	}

	if err := n.Start(ctx); !errors.Is(err, errors.ErrCodeAlreadyRecording) {
		t.Errorf("expected ALREADY_RECORDING, got %v", err)
	}

	audio, err := n.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if string(audio.Data) != "RIFFfake" || audio.MimeType != MimeWAV {
		t.Errorf("unexpected audio %q %s", audio.Data, audio.MimeType)
	}
	if n.IsRecording() || n.Elapsed() != 0 {
		t.Error("expected idle recorder after Stop")
	}
	assertEmptyDir(t, tmp)
}

func TestNativeStopWithoutStart(t *testing.T) {
	n, _ := newTestNative(t, fakeRecorder(t, "exit 0"))
	if _, err := n.Stop(context.Background()); !errors.Is(err, errors.ErrCodeNotRecording) {
		t.Errorf("expected NOT_RECORDING, got %v", err)
	}
}

func TestNativeFileMissing(t *testing.T) {
	n, tmp := newTestNative(t, fakeRecorder(t, "exit 0"))
	ctx := context.Background()
	if err := n.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := n.Stop(ctx); !errors.Is(err, errors.ErrCodeFileMissing) {
		t.Errorf("expected FILE_MISSING, got %v", err)
	}
	assertEmptyDir(t, tmp)
}

func TestNativeCancel(t *testing.T) {
	// The recorder writes its file as soon as it starts; cancel must still
	// leave nothing behind.
	script := filepath.Join(t.TempDir(), "eager-recorder")
	body := "#!/bin/sh\nfor last; do :; done\nprintf partial > \"$last\"\nwhile :; do sleep 0.05; done\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	n, tmp := newTestNative(t, script)

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	n.Cancel()

	if n.IsRecording() {
		t.Error("expected not recording after Cancel")
	}
	if n.Elapsed() != 0 {
		t.Error("expected zero Elapsed after Cancel")
	}
	assertEmptyDir(t, tmp)

	// Cancel with nothing in flight is a no-op.
	n.Cancel()
}

func TestNativeCancelAfterExit(t *testing.T) {
	script := filepath.Join(t.TempDir(), "short-recorder")
	body := "#!/bin/sh\nfor last; do :; done\nprintf x > \"$last\"\nsleep 0.1\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	n, tmp := newTestNative(t, script)

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	n.Cancel()

	if n.IsRecording() {
		t.Error("expected not recording")
	}
	assertEmptyDir(t, tmp)
}

func TestNativeNoTool(t *testing.T) {
	n := NewNative(Config{TempDir: t.TempDir()}, WithLookup(lookupOnly()), WithLogger(logger.Nop()))
	ctx := context.Background()

	if n.IsAvailable(ctx) {
		t.Error("expected unavailable")
	}
	err := n.Start(ctx)
	if !errors.Is(err, errors.ErrCodeNoRecordingTool) {
		t.Fatalf("expected NO_RECORDING_TOOL, got %v", err)
	}
	if !errors.OffersFallback(errors.ErrCodeNoRecordingTool) {
		t.Error("NO_RECORDING_TOOL should offer the browser fallback")
	}
}

func TestNativeSpawnFailed(t *testing.T) {
	tmp := t.TempDir()
	n := NewNative(Config{TempDir: tmp},
		WithLookup(lookupOnly("arecord", "sox")),
		WithCommand(ToolALSA, filepath.Join(tmp, "missing-binary")),
		WithCommand(ToolSoX, filepath.Join(tmp, "missing-binary")),
		WithLogger(logger.Nop()),
	)
	err := n.Start(context.Background())
	if !errors.Is(err, errors.ErrCodeSpawnFailed) {
		t.Fatalf("expected SPAWN_FAILED, got %v", err)
	}
	if n.IsRecording() {
		t.Error("expected not recording after spawn failure")
	}
}

func TestNativeImmediateExit(t *testing.T) {
	script := filepath.Join(t.TempDir(), "broken-recorder")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'audio open error: Device busy' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	n, tmp := newTestNative(t, script)
	n.cfg.SettleDelay = time.Second

	err := n.Start(context.Background())
	if !errors.Is(err, errors.ErrCodeSpawnFailed) {
		t.Fatalf("expected SPAWN_FAILED, got %v", err)
	}
	if msg := errors.Message(err); msg != "Failed to start recording: audio open error: Device busy" {
		t.Errorf("unexpected message %q", msg)
	}
	if n.IsRecording() {
		t.Error("expected not recording")
	}
	assertEmptyDir(t, tmp)
}
