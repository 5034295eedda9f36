package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/dictation/store"
)

func openTestStore(t *testing.T) (*Store, Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{Path: filepath.Join(dir, "dictation.db")}
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	cfg.ApplyDefaults()
	return s, cfg
}

func TestOpenMigrates(t *testing.T) {
	s, cfg := openTestStore(t)
	version, dirty, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("got version %d dirty=%v, want 1 clean", version, dirty)
	}
	if _, err := os.Stat(cfg.KeyFile); err != nil {
		t.Errorf("expected generated key file: %v", err)
	}

	// Reopening applies nothing and keeps data.
	ctx := context.Background()
	_ = s.SaveSettings(ctx, store.Settings{Provider: "self-hosted"})
	s.Close()
	again, err := Open(ctx, Config{Path: cfg.Path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	got, _ := again.Settings(ctx)
	if got.Provider != "self-hosted" {
		t.Errorf("settings lost on reopen: %+v", got)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without a path")
	}
}

func TestSettingsDefaultsAndRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	got, err := s.Settings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != store.DefaultSettings() {
		t.Errorf("expected defaults, got %+v", got)
	}

	want := store.Settings{Provider: "remote", Language: "fr", CleanupEnabled: true, CleanupModel: "gpt-4o"}
	if err := s.SaveSettings(ctx, want); err != nil {
		t.Fatal(err)
	}
	if got, _ = s.Settings(ctx); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestHistoryTrimmedToTen(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 12 {
		e := store.HistoryEntry{
			ID:        fmt.Sprintf("e%02d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Text:      fmt.Sprintf("entry %d", i),
			Preview:   fmt.Sprintf("entry %d", i),
			Duration:  float64(i),
		}
		if err := s.AddHistory(ctx, e); err != nil {
			t.Fatalf("AddHistory(%d): %v", i, err)
		}
	}

	got, err := s.History(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != store.MaxHistory {
		t.Fatalf("got %d entries, want %d", len(got), store.MaxHistory)
	}
	if got[0].ID != "e11" || got[9].ID != "e02" {
		t.Errorf("unexpected order: first %s last %s", got[0].ID, got[9].ID)
	}
	if !got[0].Timestamp.Equal(base.Add(11*time.Minute)) || got[0].Duration != 11 {
		t.Errorf("unexpected entry %+v", got[0])
	}

	var rows int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != store.MaxHistory {
		t.Errorf("table holds %d rows, want %d", rows, store.MaxHistory)
	}

	_ = s.DeleteHistory(ctx, "e11")
	if got, _ = s.History(ctx); got[0].ID != "e10" {
		t.Errorf("expected e10 first after delete, got %s", got[0].ID)
	}
	_ = s.ClearHistory(ctx)
	if got, _ = s.History(ctx); len(got) != 0 {
		t.Errorf("expected empty history, got %d", len(got))
	}
}

func TestSessionStoresAudioAsBlob(t *testing.T) {
	s, cfg := openTestStore(t)
	ctx := context.Background()

	if got, err := s.Session(ctx); got != nil || err != nil {
		t.Fatalf("expected no session, got %v %v", got, err)
	}

	start := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	want := store.RecordingSession{
		StartTime: start,
		Audio:     []byte("RIFF partial"),
		MimeType:  "audio/wav",
		Paused:    true,
		ElapsedMs: 4200,
	}
	if err := s.SaveSession(ctx, want); err != nil {
		t.Fatal(err)
	}
	blob := filepath.Join(cfg.BlobDir, filepath.FromSlash(sessionAudioPath))
	if data, err := os.ReadFile(blob); err != nil || string(data) != "RIFF partial" {
		t.Fatalf("expected audio blob on disk, got %q %v", data, err)
	}

	got, err := s.Session(ctx)
	if err != nil || got == nil {
		t.Fatalf("Session() = %v, %v", got, err)
	}
	if string(got.Audio) != "RIFF partial" || !got.StartTime.Equal(start) || !got.Paused || got.ElapsedMs != 4200 || got.MimeType != "audio/wav" {
		t.Errorf("unexpected session %+v", got)
	}

	if err := s.ClearSession(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ = s.Session(ctx); got != nil {
		t.Error("expected session cleared")
	}
	if _, err := os.Stat(blob); !os.IsNotExist(err) {
		t.Errorf("expected blob removed, stat err %v", err)
	}
}

func TestSessionWithMissingBlob(t *testing.T) {
	s, cfg := openTestStore(t)
	ctx := context.Background()
	_ = s.SaveSession(ctx, store.RecordingSession{Audio: []byte("x"), ElapsedMs: 10})
	_ = os.Remove(filepath.Join(cfg.BlobDir, filepath.FromSlash(sessionAudioPath)))

	got, err := s.Session(ctx)
	if err != nil || got == nil {
		t.Fatalf("Session() = %v, %v", got, err)
	}
	if got.Audio != nil || got.ElapsedMs != 10 {
		t.Errorf("unexpected session %+v", got)
	}
}

func TestCredentialEncrypted(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if k, err := s.Credential(ctx); k != "" || err != nil {
		t.Fatalf("expected no credential, got %q %v", k, err)
	}
	if err := s.SaveCredential(ctx, "sk-secret-value"); err != nil {
		t.Fatal(err)
	}

	var raw string
	if err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, keyCredential).Scan(&raw); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(raw, "sk-secret-value") {
		t.Errorf("credential stored in plain text: %s", raw)
	}

	if k, _ := s.Credential(ctx); k != "sk-secret-value" {
		t.Errorf("got credential %q", k)
	}
	if err := s.DeleteCredential(ctx); err != nil {
		t.Fatal(err)
	}
	if k, _ := s.Credential(ctx); k != "" {
		t.Errorf("expected credential deleted, got %q", k)
	}
}

func TestCredentialWithConfiguredSecret(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Path: filepath.Join(dir, "d.db"), SecretKey: "configured"}
	ctx := context.Background()

	s, err := Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.SaveCredential(ctx, "sk-1")
	s.Close()

	if _, err := os.Stat(filepath.Join(dir, "secret.key")); !os.IsNotExist(err) {
		t.Error("no key file expected when a secret is configured")
	}

	cfg.SecretKey = "other"
	s, err = Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Credential(ctx); err == nil {
		t.Error("expected decrypt failure with a different secret")
	}
}

func TestUIState(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	ui, err := s.UIState(ctx)
	if err != nil || len(ui) != 0 {
		t.Fatalf("expected empty ui state, got %v %v", ui, err)
	}
	_ = s.SaveUIState(ctx, store.UIState{"history": true, "settings": false})
	ui, _ = s.UIState(ctx)
	if !ui["history"] || ui["settings"] || len(ui) != 2 {
		t.Errorf("unexpected ui state %v", ui)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Path: filepath.Join("/var", "lib", "dictation", "d.db")}
	cfg.ApplyDefaults()
	if cfg.BlobDir != filepath.Join("/var", "lib", "dictation", "blobs") {
		t.Errorf("BlobDir = %s", cfg.BlobDir)
	}
	if cfg.KeyFile != filepath.Join("/var", "lib", "dictation", "secret.key") {
		t.Errorf("KeyFile = %s", cfg.KeyFile)
	}
}
