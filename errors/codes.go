package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/availability errors (retryable)
const (
	// ErrCodeUpstreamUnavailable indicates the upstream channel cannot be reached.
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	// ErrCodeSubscribeFailed indicates a subscribe request was rejected by the upstream.
	ErrCodeSubscribeFailed ErrorCode = "SUBSCRIBE_FAILED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Authentication errors
const (
	// ErrCodeUnauthorized indicates the upstream rejected the credentials.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeSessionExpired indicates the upstream session token has expired.
	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"
)

// Payload errors
const (
	// ErrCodeMalformedEvent indicates an upstream event failed normalization.
	ErrCodeMalformedEvent ErrorCode = "MALFORMED_EVENT"
	// ErrCodeInvalidCursor indicates a replay cursor the upstream cannot honor.
	ErrCodeInvalidCursor ErrorCode = "INVALID_CURSOR"
)

// Consumer errors
const (
	// ErrCodeConsumerClosed indicates an operation on an already-closed consumer.
	ErrCodeConsumerClosed ErrorCode = "CONSUMER_CLOSED"
	// ErrCodeSlowConsumer indicates a consumer evicted for a full outbound queue.
	ErrCodeSlowConsumer ErrorCode = "SLOW_CONSUMER"
)

// Configuration/internal errors
const (
	// ErrCodeInvalidConfig indicates invalid or missing configuration.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// retryableCodes is the set of codes that indicate transient conditions.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeUpstreamUnavailable: true,
	ErrCodeSubscribeFailed:     true,
	ErrCodeTimeout:             true,
	ErrCodeSessionExpired:      true,
}

// IsRetryableCode reports whether the code indicates a transient condition.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
