// Package provider holds the small abstraction shared by pluggable
// backends: native recording tools and transcription endpoints.
//
// A Registry keeps named factories and cached instances; a PrioritySelector
// picks the first instance that reports itself available.
package provider
