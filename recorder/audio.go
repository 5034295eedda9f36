package recorder

import "strings"

// MIME types produced by the capture strategies.
const (
	MimeWAV  = "audio/wav"
	MimeWebM = "audio/webm"
)

// Audio is a captured recording: opaque bytes plus their declared MIME type.
type Audio struct {
	Data     []byte
	MimeType string
}

// Len returns the payload size in bytes.
func (a *Audio) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// BaseMime strips codec parameters: "audio/webm;codecs=opus" -> "audio/webm".
func BaseMime(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	return strings.TrimSpace(strings.ToLower(base))
}
