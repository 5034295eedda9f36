// Package cleanup rewrites a raw transcript with a chat-completion model:
// fillers and stutters removed, punctuation fixed, paragraphs added.
//
// Callers treat failures as non-fatal and fall back to the raw transcript.
package cleanup
