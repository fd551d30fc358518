package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable is returned when no backend is configured.
var ErrUnavailable = errors.New("backend unavailable")

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("backend %s: %s (status=%d)", e.Operation, msg, e.StatusCode)
}

// RateLimitError captures 429 responses from the backend.
type RateLimitError struct {
	Operation  string
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "backend rate limited"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	return msg
}

// AsRateLimitError attempts to unwrap an error into a RateLimitError.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr, true
	}
	return nil, false
}

// StatusCode returns the backend status carried by err, or 0.
func StatusCode(err error) int {
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.StatusCode
	}
	if rl, ok := AsRateLimitError(err); ok {
		return rl.StatusCode
	}
	return 0
}

// Retryable reports whether repeating a read could succeed: transport
// failures, 5xx and 429 are retryable, other 4xx and cancellation are not.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if _, ok := AsRateLimitError(err); ok {
		return true
	}
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, ErrUnavailable)
}
