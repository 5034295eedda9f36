// Package errors provides the typed failure taxonomy for dictation.
// Every failure surfaces as an *AppError with a machine-readable code and a
// human-readable message; nothing in the repository retries automatically.
package errors
