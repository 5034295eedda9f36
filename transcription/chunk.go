package transcription

import "strings"

// MaxUploadBytes is the largest payload sent in one request, kept under the
// 25 MiB upstream limit.
const MaxUploadBytes = 24 * 1024 * 1024

// SplitChunks cuts data into consecutive slices of at most size bytes. The
// slices share data's backing array. Cuts ignore container framing.
func SplitChunks(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	if size <= 0 || len(data) <= size {
		return [][]byte{data}
	}
	chunks := make([][]byte, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := min(start+size, len(data))
		chunks = append(chunks, data[start:end:end])
	}
	return chunks
}

var extensions = []struct {
	match []string
	ext   string
}{
	{[]string{"mp3", "mpeg"}, "mp3"},
	{[]string{"webm"}, "webm"},
	{[]string{"wav"}, "wav"},
	{[]string{"ogg"}, "ogg"},
}

// ExtensionFor picks the upload file extension from a MIME type, defaulting
// to mp3.
func ExtensionFor(mimeType string) string {
	mimeType = strings.ToLower(mimeType)
	for _, e := range extensions {
		for _, m := range e.match {
			if strings.Contains(mimeType, m) {
				return e.ext
			}
		}
	}
	return "mp3"
}
