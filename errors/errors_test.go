package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeSubscribeFailed, "subscribe to Orders__e failed", http.StatusBadGateway)
	want := "SUBSCRIBE_FAILED: subscribe to Orders__e failed"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestAppError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := UpstreamUnavailable("https://pubsub.example.com").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}
	if err.Error() == "" {
		t.Error("expected non-empty error string")
	}
}

func TestRetryableDetection(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeUpstreamUnavailable, true},
		{ErrCodeSubscribeFailed, true},
		{ErrCodeSessionExpired, true},
		{ErrCodeTimeout, true},
		{ErrCodeUnauthorized, false},
		{ErrCodeMalformedEvent, false},
		{ErrCodeInvalidConfig, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := IsRetryableCode(tt.code); got != tt.want {
				t.Errorf("IsRetryableCode(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsRetryable_WrappedError(t *testing.T) {
	err := fmt.Errorf("subscribe: %w", SessionExpired())
	if !IsRetryable(err) {
		t.Error("expected wrapped session-expired error to be retryable")
	}

	if IsRetryable(fmt.Errorf("plain error")) {
		t.Error("expected plain error to be non-retryable")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(MalformedEvent("Orders__e", nil)); got != ErrCodeMalformedEvent {
		t.Errorf("expected MALFORMED_EVENT, got %s", got)
	}
	if got := CodeOf(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("expected INTERNAL for unknown error, got %s", got)
	}
}

func TestHTTPStatusOf(t *testing.T) {
	if got := HTTPStatusOf(UpstreamUnavailable("x")); got != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", got)
	}
	if got := HTTPStatusOf(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("expected 500 for unknown error, got %d", got)
	}
}

func TestWithDetail(t *testing.T) {
	err := Internal("boom").WithDetail("consumer_id", "c-1")
	if err.Details["consumer_id"] != "c-1" {
		t.Errorf("expected detail to be set, got %v", err.Details)
	}
}
