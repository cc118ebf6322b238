package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeInvalidArgument indicates a rejected builder argument
	// (bad retry configuration, malformed credentials, bad proxy).
	ErrCodeInvalidArgument ErrorCode = iota
	// ErrCodeInvalidURI indicates the target URL is not a valid URI after
	// path parameter substitution.
	ErrCodeInvalidURI
	// ErrCodeTransport indicates an I/O or connection failure without a
	// retry policy installed.
	ErrCodeTransport
	// ErrCodeRetryExhausted indicates every attempt failed at the transport level.
	ErrCodeRetryExhausted
	// ErrCodeStatusRetryExhausted indicates the retry predicate rejected the
	// status code of every attempt.
	ErrCodeStatusRetryExhausted
	// ErrCodeCallback indicates a failure raised inside an async callback.
	ErrCodeCallback
	// ErrCodeRejected indicates the bulkhead turned the execution away
	// before any attempt was made.
	ErrCodeRejected
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeInvalidURI:
		return "invalid_uri"
	case ErrCodeTransport:
		return "transport"
	case ErrCodeRetryExhausted:
		return "retry_exhausted"
	case ErrCodeStatusRetryExhausted:
		return "status_retry_exhausted"
	case ErrCodeCallback:
		return "callback"
	case ErrCodeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is a structured HTTP client error with classification.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// StatusCode is the last HTTP status code (StatusRetryExhausted only).
	StatusCode int
	// Attempts is the number of transport calls made before giving up.
	Attempts int
	// Message describes the error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, msg)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewInvalidArgumentError creates an invalid argument error.
func NewInvalidArgumentError(msg string, err error) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: msg, Err: err}
}

// NewInvalidURIError creates an invalid URI error for the given target.
func NewInvalidURIError(uri string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidURI,
		Message: fmt.Sprintf("invalid uri %q", uri),
		Err:     err,
	}
}

// NewTransportError wraps a transport-level failure.
func NewTransportError(err error) *Error {
	return &Error{Code: ErrCodeTransport, Message: "request failed", Attempts: 1, Err: err}
}

// NewRetryExhaustedError wraps the last transport error after all attempts failed.
func NewRetryExhaustedError(attempts int, err error) *Error {
	return &Error{
		Code:     ErrCodeRetryExhausted,
		Message:  fmt.Sprintf("giving up after %d attempts", attempts),
		Attempts: attempts,
		Err:      err,
	}
}

// NewStatusRetryExhaustedError reports the final rejected status code.
func NewStatusRetryExhaustedError(statusCode, attempts int) *Error {
	return &Error{
		Code:       ErrCodeStatusRetryExhausted,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("giving up after %d attempts", attempts),
		Attempts:   attempts,
	}
}

// NewCallbackError wraps a failure raised by a callback handler.
func NewCallbackError(err error) *Error {
	return &Error{Code: ErrCodeCallback, Message: "callback failed", Err: err}
}

// NewRejectedError wraps a bulkhead rejection.
func NewRejectedError(err error) *Error {
	return &Error{Code: ErrCodeRejected, Message: "execution rejected", Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsInvalidArgument checks if an error is an invalid argument error.
func IsInvalidArgument(err error) bool { return hasCode(err, ErrCodeInvalidArgument) }

// IsInvalidURI checks if an error is an invalid URI error.
func IsInvalidURI(err error) bool { return hasCode(err, ErrCodeInvalidURI) }

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool { return hasCode(err, ErrCodeTransport) }

// IsRetryExhausted checks if an error reports exhausted transport retries.
func IsRetryExhausted(err error) bool { return hasCode(err, ErrCodeRetryExhausted) }

// IsStatusRetryExhausted checks if an error reports exhausted status retries.
func IsStatusRetryExhausted(err error) bool { return hasCode(err, ErrCodeStatusRetryExhausted) }

// IsRejected reports whether err is a bulkhead rejection.
func IsRejected(err error) bool { return hasCode(err, ErrCodeRejected) }

// IsCallback checks if an error was raised by a callback.
func IsCallback(err error) bool { return hasCode(err, ErrCodeCallback) }

// IsTimeout checks if the underlying cause is a timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// StatusCodeOf returns the status code carried by err, or 0.
func StatusCodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
