package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/preston-bernstein/archery-score-client/internal/app/competitions"
	"github.com/preston-bernstein/archery-score-client/internal/app/entry"
	"github.com/preston-bernstein/archery-score-client/internal/auth"
	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/detection"
	"github.com/preston-bernstein/archery-score-client/internal/export"
	"github.com/preston-bernstein/archery-score-client/internal/http/requestutil"
	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	requestutil.WriteJSON(w, status, payload, logger)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *slog.Logger) {
	requestutil.WriteError(w, r, status, message, logger)
}

func writeBytes(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}

// decodeJSON reads a bounded JSON body into dest, rejecting unknown fields.
func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps service errors onto HTTP statuses. Scoring errors are checked
// before backend errors because submission and detection failures wrap them.
func statusFor(err error) int {
	switch {
	case errors.Is(err, requestutil.ErrBadParam),
		errors.Is(err, scoring.ErrValidation),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, detection.ErrPhotoTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, scoring.ErrLockedEnd):
		return http.StatusConflict
	case errors.Is(err, scoring.ErrConfig):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scoring.ErrNoDetector),
		errors.Is(err, scoring.ErrNoSubmitter),
		errors.Is(err, detection.ErrNotConfigured),
		errors.Is(err, backend.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, scoring.ErrSubmission), errors.Is(err, scoring.ErrDetection):
		return http.StatusBadGateway
	case errors.Is(err, entry.ErrIneligible), errors.Is(err, competitions.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, entry.ErrNoSession),
		errors.Is(err, competitions.ErrRoundNotFound),
		errors.Is(err, export.ErrNoEnds):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	if _, ok := backend.AsRateLimitError(err); ok {
		return http.StatusTooManyRequests
	}
	switch code := backend.StatusCode(err); {
	case code == http.StatusUnauthorized, code == http.StatusForbidden,
		code == http.StatusNotFound, code == http.StatusConflict:
		return code
	case code != 0:
		return http.StatusBadGateway
	}
	var sErr *detection.StatusError
	if errors.As(err, &sErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeServiceError logs and writes err with its mapped status. Server-side
// failures get a generic message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := loggerFromContext(r, h.logger)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logging.Error(r.Context(), logger, "request failed", err, slog.Int(logging.FieldStatusCode, status))
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	} else {
		logging.Warn(r.Context(), logger, "request rejected",
			slog.Int(logging.FieldStatusCode, status),
			slog.Any("error", err),
		)
	}
	if rl, ok := backend.AsRateLimitError(err); ok && rl.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())))
	}
	writeError(w, r, status, msg, logger)
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}
