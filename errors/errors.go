package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
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

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// UpstreamUnavailable creates an error for an unreachable upstream endpoint.
func UpstreamUnavailable(endpoint string) *AppError {
	return &AppError{
		Code: ErrCodeUpstreamUnavailable, Message: "upstream channel is unreachable",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"endpoint": endpoint},
	}
}

// SubscribeFailed creates an error for a rejected subscribe request.
func SubscribeFailed(channel string) *AppError {
	return &AppError{
		Code: ErrCodeSubscribeFailed, Message: fmt.Sprintf("subscribe to %s failed", channel),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"channel": channel},
	}
}

// SessionExpired creates an error for an expired upstream session.
func SessionExpired() *AppError {
	return &AppError{
		Code: ErrCodeSessionExpired, Message: "upstream session expired",
		HTTPStatus: http.StatusUnauthorized, Retryable: true,
	}
}

// Unauthorized creates an error for rejected credentials.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code: ErrCodeUnauthorized, Message: message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// MalformedEvent creates an error for an event that failed normalization.
func MalformedEvent(channel string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeMalformedEvent, Message: "event payload failed normalization",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"channel": channel},
		Cause:      cause,
	}
}

// InvalidConfig creates an error for invalid or missing configuration.
func InvalidConfig(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Internal creates an error for an unexpected internal failure.
func Internal(message string) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// --- Inspection helpers ---

// IsRetryable reports whether err (or any error in its chain) is retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// CodeOf returns the error code of err, or ErrCodeInternal for unknown errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HTTPStatusOf returns the recommended HTTP status for err.
func HTTPStatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
