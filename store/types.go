package store

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxHistory is the number of history entries kept, most recent first.
	MaxHistory = 10

	// PreviewLength is the number of characters shown in a history preview.
	PreviewLength = 50
)

// Settings are the user-editable transcription preferences.
type Settings struct {
	Provider       string `json:"provider"`
	SelfHostedURL  string `json:"selfHostedUrl"`
	Language       string `json:"language"`
	CleanupEnabled bool   `json:"cleanupEnabled"`
	CleanupModel   string `json:"cleanupModel"`
}

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		Provider:     "remote",
		CleanupModel: "gpt-4o-mini",
	}
}

// HistoryEntry is one completed transcription.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Preview   string    `json:"preview"`
	// Duration is the recording length in seconds, zero when unknown.
	Duration float64 `json:"duration"`
}

// NewHistoryEntry builds an entry with a fresh id and a preview of text.
func NewHistoryEntry(text string, duration time.Duration, now time.Time) HistoryEntry {
	return HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: now.UTC(),
		Text:      text,
		Preview:   Preview(text),
		Duration:  duration.Seconds(),
	}
}

// Preview returns the first PreviewLength characters of text, followed by
// "..." when text is longer.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	return string([]rune(text)[:PreviewLength]) + "..."
}

// prependHistory inserts e at the front and evicts entries past MaxHistory.
func prependHistory(history []HistoryEntry, e HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, min(len(history)+1, MaxHistory))
	out = append(out, e)
	for _, h := range history {
		if len(out) == MaxHistory {
			break
		}
		out = append(out, h)
	}
	return out
}

// RecordingSession is the crash-recovery snapshot of an interrupted recording.
type RecordingSession struct {
	StartTime time.Time `json:"startTime"`
	Audio     []byte    `json:"-"`
	MimeType  string    `json:"mimeType"`
	Paused    bool      `json:"paused"`
	ElapsedMs int64     `json:"elapsedMs"`
}

// UIState holds collapse flags of presentation sections keyed by name.
type UIState map[string]bool

// MaskCredential hides all but the first few characters of a credential.
func MaskCredential(s string) string {
	const visible = 7
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) <= visible {
		return "***"
	}
	return s[:visible] + "***"
}
