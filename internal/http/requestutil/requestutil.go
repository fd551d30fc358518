// Package requestutil holds per-request helpers shared by middleware and handlers.
package requestutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

// HeaderRequestID carries the request ID in and out.
const HeaderRequestID = "X-Request-ID"

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
var useFallback atomic.Bool

// ErrBadParam is wrapped by IntParam and QueryInt failures.
var ErrBadParam = errors.New("invalid parameter")

// SanitizeRequestID validates the incoming request ID header and generates a new one when invalid.
func SanitizeRequestID(incoming string) string {
	if incoming != "" && requestIDPattern.MatchString(incoming) {
		return incoming
	}
	return NewRequestID()
}

// NewRequestID generates a random request ID with a time-based fallback.
func NewRequestID() string {
	var b [8]byte
	if !useFallback.Load() {
		if _, err := rand.Read(b[:]); err == nil {
			return hex.EncodeToString(b[:])
		}
	}
	return hex.EncodeToString([]byte(time.Now().Format("20060102150405.000000000")))
}

type requestIDKey struct{}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext extracts the request ID stored by the logging middleware.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(requestIDKey{}).(string); ok {
		return val
	}
	return ""
}

// ClientIP extracts the client address from X-Forwarded-For or RemoteAddr,
// without the port.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// IntParam reads a positive integer URL parameter.
func IntParam(r *http.Request, name string) (int, error) {
	return positiveInt(name, chi.URLParam(r, name), false)
}

// QueryInt reads a positive integer query parameter. Missing values are an error.
func QueryInt(r *http.Request, name string) (int, error) {
	return positiveInt(name, r.URL.Query().Get(name), false)
}

// IndexParam reads a zero-based integer URL parameter.
func IndexParam(r *http.Request, name string) (int, error) {
	return positiveInt(name, chi.URLParam(r, name), true)
}

func positiveInt(name, raw string, allowZero bool) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrBadParam, name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || (v == 0 && !allowZero) {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadParam, name)
	}
	return v, nil
}
