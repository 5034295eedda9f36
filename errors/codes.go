package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Recording errors
const (
	// ErrCodeAlreadyRecording indicates a capture is already in progress.
	ErrCodeAlreadyRecording ErrorCode = "ALREADY_RECORDING"
	// ErrCodeNotRecording indicates stop was requested with no active capture.
	ErrCodeNotRecording ErrorCode = "NOT_RECORDING"
	// ErrCodeNoRecordingTool indicates no native recording utility is installed.
	ErrCodeNoRecordingTool ErrorCode = "NO_RECORDING_TOOL"
	// ErrCodeSpawnFailed indicates the recording process could not be launched.
	ErrCodeSpawnFailed ErrorCode = "SPAWN_FAILED"
	// ErrCodeFileMissing indicates the recorder exited without producing its output file.
	ErrCodeFileMissing ErrorCode = "FILE_MISSING"
	// ErrCodeRecordingCancelled indicates the user cancelled the recording.
	ErrCodeRecordingCancelled ErrorCode = "RECORDING_CANCELLED"
	// ErrCodeUploadInvalid indicates the browser relay received a malformed upload.
	ErrCodeUploadInvalid ErrorCode = "UPLOAD_INVALID"
)

// Upstream API errors
const (
	// ErrCodeMissingAPIKey indicates a credential is required but not stored.
	ErrCodeMissingAPIKey ErrorCode = "MISSING_API_KEY"
	// ErrCodeTranscriptionFailed indicates the speech-to-text endpoint rejected the request.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	// ErrCodeCleanupFailed indicates the chat-completion endpoint rejected the request.
	ErrCodeCleanupFailed ErrorCode = "CLEANUP_FAILED"
)

// Generic errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeStorage indicates the persisted state could not be read or written.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

// fallbackCodes are failures the caller can recover from by switching capture strategy.
var fallbackCodes = map[ErrorCode]bool{
	ErrCodeNoRecordingTool: true,
}

// OffersFallback returns true if the code should trigger the browser capture fallback.
func OffersFallback(code ErrorCode) bool {
	return fallbackCodes[code]
}
