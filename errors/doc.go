// Package errors provides structured error handling for the relay broker.
// It defines an application error type with machine-readable codes, HTTP
// status mapping, and retryable detection, compatible with errors.Is/As.
package errors
