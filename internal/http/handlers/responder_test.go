package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/preston-bernstein/archery-score-client/internal/app/competitions"
	"github.com/preston-bernstein/archery-score-client/internal/app/entry"
	"github.com/preston-bernstein/archery-score-client/internal/auth"
	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/detection"
	"github.com/preston-bernstein/archery-score-client/internal/export"
	"github.com/preston-bernstein/archery-score-client/internal/http/requestutil"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
	"github.com/preston-bernstein/archery-score-client/internal/testutil"
)

func TestWriteErrorIncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	logger, _ := testutil.NewBufferLogger()

	req.Header.Set("X-Request-ID", "abc123")

	rr := testutil.ServeRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTeapot, "boom", logger)
	}), req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected content type json, got %s", got)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("abc123")) {
		t.Fatalf("expected requestId in body, got %s", rr.Body.String())
	}
}

func TestWriteJSONLogsEncodeError(t *testing.T) {
	logger, buf := testutil.NewBufferLogger()
	rr := testutil.Serve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, make(chan int), logger)
	}), http.MethodGet, "/encode-error", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status written even on encode error, got %d", rr.Code)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected logger to record encode error")
	}
}

func TestWriteBytesSetsAttachment(t *testing.T) {
	rr := httptest.NewRecorder()
	writeBytes(rr, export.ContentTypeXLSX, "ranking.xlsx", []byte("PK"))
	if got := rr.Header().Get("Content-Type"); got != export.ContentTypeXLSX {
		t.Fatalf("unexpected content type %s", got)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="ranking.xlsx"`) {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rr.Body.String() != "PK" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dest struct {
		Value string `json:"value"`
	}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"value":"X","extra":1}`))
	if err := decodeJSON(req, &dest); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"value":"X"}`))
	if err := decodeJSON(req, &dest); err != nil || dest.Value != "X" {
		t.Fatalf("unexpected decode result %q, %v", dest.Value, err)
	}
}

func TestStatusFor(t *testing.T) {
	notFound := &backend.StatusError{Operation: backend.OpRanking, StatusCode: http.StatusNotFound}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad_param", fmt.Errorf("%w: roundID", requestutil.ErrBadParam), http.StatusBadRequest},
		{"validation", &scoring.ValidationError{Field: "arrow", Value: "11"}, http.StatusBadRequest},
		{"missing_credentials", auth.ErrMissingCredentials, http.StatusBadRequest},
		{"locked", &scoring.LockedEndError{EndNumber: 2}, http.StatusConflict},
		{"config", fmt.Errorf("resume: %w", scoring.ErrConfig), http.StatusUnprocessableEntity},
		{"no_detector", scoring.ErrNoDetector, http.StatusServiceUnavailable},
		{"unavailable", backend.ErrUnavailable, http.StatusServiceUnavailable},
		{"submission_wraps_backend", &scoring.SubmissionFailed{EndNumber: 1, Err: notFound}, http.StatusBadGateway},
		{"detection", &scoring.DetectionError{Err: &detection.StatusError{StatusCode: 500}}, http.StatusBadGateway},
		{"ineligible", entry.ErrIneligible, http.StatusForbidden},
		{"foreign_participation", fmt.Errorf("session: %w", competitions.ErrNotParticipant), http.StatusForbidden},
		{"no_session", entry.ErrNoSession, http.StatusNotFound},
		{"no_ends", export.ErrNoEnds, http.StatusNotFound},
		{"expired", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"rate_limited", &backend.RateLimitError{StatusCode: http.StatusTooManyRequests}, http.StatusTooManyRequests},
		{"backend_not_found", fmt.Errorf("load ranking: %w", notFound), http.StatusNotFound},
		{"backend_server_error", &backend.StatusError{StatusCode: http.StatusInternalServerError}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteServiceErrorHidesInternalErrors(t *testing.T) {
	logger, buf := testutil.NewBufferLogger()
	h := NewHandler(Deps{Logger: logger})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	h.writeServiceError(rr, req, errors.New("db password leaked"))
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	if strings.Contains(rr.Body.String(), "leaked") {
		t.Fatalf("internal error text must not reach the client: %s", rr.Body.String())
	}
	if !strings.Contains(buf.String(), "leaked") {
		t.Fatalf("expected internal error to be logged")
	}
}

func TestWriteServiceErrorSetsRetryAfter(t *testing.T) {
	h := NewHandler(Deps{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	h.writeServiceError(rr, req, &backend.RateLimitError{StatusCode: http.StatusTooManyRequests, RetryAfter: 3 * time.Second})
	testutil.AssertStatus(t, rr, http.StatusTooManyRequests)
	if got := rr.Header().Get("Retry-After"); got != "3" {
		t.Fatalf("expected Retry-After 3, got %q", got)
	}
}

func TestHealthDuringShutdown(t *testing.T) {
	h := NewHandler(Deps{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx)
	rr := testutil.ServeRequest(http.HandlerFunc(h.Health), req)
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}
