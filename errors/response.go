package errors

import (
	"context"
	stderrors "errors"
)

// ErrorResponse is the JSON body the browser relay returns on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err is an AppError carrying the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsCancelled reports whether err represents an intentional user cancel:
// either RECORDING_CANCELLED or a cancelled context.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrCodeRecordingCancelled) || stderrors.Is(err, context.Canceled)
}

// IsUserVisible reports whether err should be surfaced to the user.
func IsUserVisible(err error) bool {
	return err != nil && !IsCancelled(err)
}

// Message returns the human-readable message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
