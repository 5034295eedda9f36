package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried. Always false today.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// --- Recording ---

// AlreadyRecording is returned when start is called during an active capture.
func AlreadyRecording() *AppError {
	return New(ErrCodeAlreadyRecording, "A recording is already in progress.", http.StatusConflict)
}

// NotRecording is returned when stop is called with no active capture.
func NotRecording() *AppError {
	return New(ErrCodeNotRecording, "No recording is in progress.", http.StatusConflict)
}

// NoRecordingTool is returned when neither arecord nor sox/rec is installed.
func NoRecordingTool() *AppError {
	return New(ErrCodeNoRecordingTool,
		"No audio recording tool found. Install alsa-utils (arecord) or sox, or record in the browser.",
		http.StatusServiceUnavailable)
}

// SpawnFailed wraps the OS error raised when launching the recorder.
func SpawnFailed(tool string, cause error) *AppError {
	msg := "Failed to start recording"
	if cause != nil {
		msg = fmt.Sprintf("Failed to start recording: %s", cause.Error())
	}
	return &AppError{
		Code: ErrCodeSpawnFailed, Message: msg,
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
		Details: map[string]any{"tool": tool},
	}
}

// FileMissing is returned when the recorder exited without writing its output.
func FileMissing(path string) *AppError {
	return &AppError{
		Code: ErrCodeFileMissing, Message: "Recording file not found.",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"path": path},
	}
}

// RecordingCancelled is returned to any waiter when the user cancels capture.
func RecordingCancelled() *AppError {
	return New(ErrCodeRecordingCancelled, "Recording cancelled.", http.StatusOK)
}

// UploadInvalid is returned for a browser upload missing audio or mimeType.
func UploadInvalid(reason string) *AppError {
	return New(ErrCodeUploadInvalid, reason, http.StatusBadRequest)
}

// --- Upstream APIs ---

// MissingAPIKey is returned before any network call when no credential is stored.
func MissingAPIKey() *AppError {
	return New(ErrCodeMissingAPIKey, "API key not set. Store one with `dictation key set`.", http.StatusUnauthorized)
}

// TranscriptionFailed carries the upstream message or a status-coded fallback.
func TranscriptionFailed(message string, status int) *AppError {
	if message == "" {
		message = fmt.Sprintf("Transcription failed with status %d", status)
	}
	return &AppError{
		Code: ErrCodeTranscriptionFailed, Message: message,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"status": status},
	}
}

// CleanupFailed carries the upstream message or a status-coded fallback.
func CleanupFailed(message string, status int) *AppError {
	if message == "" {
		message = fmt.Sprintf("Cleanup failed with status %d", status)
	}
	return &AppError{
		Code: ErrCodeCleanupFailed, Message: message,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"status": status},
	}
}

// --- Generic ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// Storage wraps a persistence failure.
func Storage(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: fmt.Sprintf("Failed to %s.", operation),
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
		Details: map[string]any{"operation": operation},
	}
}
