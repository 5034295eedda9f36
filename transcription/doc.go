// Package transcription sends recorded audio to a speech-to-text backend.
//
// Backends implement Provider and are registered as factories so the
// provider can change between calls as settings change:
//
//	reg := transcription.NewRegistry()
//	openai.Register(reg, openai.Config{})
//	client := transcription.NewClient(reg)
//	text, err := client.Transcribe(ctx, audio, "audio/wav", settings, nil)
//
// # Backends
//
//   - transcription/openai: OpenAI-compatible /audio/transcriptions, remote or self-hosted
package transcription
