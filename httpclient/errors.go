package httpclient

import (
	"errors"
	"fmt"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	ErrCodeTimeout ErrorCode = iota
	ErrCodeConnection
	ErrCodeAuth
	ErrCodeNotFound
	ErrCodeRateLimit
	// ErrCodeValidation covers other 4xx responses and requests that could not be built.
	ErrCodeValidation
	ErrCodeServer
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a classified HTTP client error.
type Error struct {
	// StatusCode is 0 for connection-level errors.
	StatusCode int
	Code       ErrorCode
	Message    string
	// Body is the response body, kept so callers can extract upstream messages.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError wraps a context deadline or cancellation.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Err: err}
}

// NewConnectionError wraps a transport failure.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Err: err}
}

// NewValidationError reports a request that could not be built.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// ClassifyStatusCode converts a non-2xx status into a typed error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	e := &Error{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Body:       body,
	}
	switch {
	case statusCode == 401 || statusCode == 403:
		e.Code = ErrCodeAuth
	case statusCode == 404:
		e.Code = ErrCodeNotFound
	case statusCode == 429:
		e.Code = ErrCodeRateLimit
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeValidation
	default:
		e.Code = ErrCodeServer
	}
	return e
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// IsAuth checks if an error is an authentication error.
func IsAuth(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == ErrCodeAuth
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == ErrCodeTimeout
}

// HasStatus reports whether err carries an HTTP response status.
func HasStatus(err error) bool {
	e, ok := AsError(err)
	return ok && e.StatusCode > 0
}
