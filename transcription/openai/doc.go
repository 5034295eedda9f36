// Package openai implements transcription.Provider for OpenAI-compatible
// speech-to-text endpoints. The remote variant authenticates with a bearer
// token; the self-hosted variant posts to a user-supplied URL without one.
package openai
