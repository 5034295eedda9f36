package version

import (
	"strings"
	"testing"
)

func saveAndRestore() func() {
	v, c, b := Version, GitCommit, BuildTime
	return func() {
		Version, GitCommit, BuildTime = v, c, b
	}
}

func TestGetUsesLinkerValues(t *testing.T) {
	defer saveAndRestore()()
	Version = "0.3.0"
	GitCommit = "abc1234def"
	BuildTime = "2026-01-15T10:30:00Z"

	info := Get()
	if info.Version != "0.3.0" {
		t.Errorf("expected 0.3.0, got %q", info.Version)
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("expected commit truncated to 7 chars, got %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-15T10:30:00Z" {
		t.Errorf("unexpected build time %q", info.BuildTime)
	}
}

func TestShort(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.2.0"
	GitCommit = "feedbee"

	got := Short()
	if !strings.HasPrefix(got, "1.2.0-feedbee") {
		t.Errorf("unexpected short version %q", got)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "1.0.0", GitCommit: "abc1234", BuildTime: "2026-01-01T00:00:00Z", GoVersion: "go1.26.0"}
	want := "dictation 1.0.0 (abc1234) built 2026-01-01T00:00:00Z go1.26.0"
	if got := info.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := (Info{Version: "dev"}).String(); got != "dictation dev" {
		t.Errorf("got %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	defer saveAndRestore()()
	Version = "2.0.0"
	if got := UserAgent(); got != "dictation/2.0.0" {
		t.Errorf("got %q", got)
	}
}
