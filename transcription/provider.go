package transcription

import (
	"context"

	"github.com/kbukum/dictation/provider"
)

// Provider is a speech-to-text backend.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// RequiresCredential reports whether Transcribe needs an API key.
	RequiresCredential() bool

	// Transcribe uploads one audio payload and returns its transcript.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}
