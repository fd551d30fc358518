package logging

import (
	"context"
	"log/slog"
)

// Info logs through the request-scoped logger when present, else fallback.
func Info(ctx context.Context, fallback *slog.Logger, msg string, args ...any) {
	if logger := FromContext(ctx, fallback); logger != nil {
		logger.InfoContext(ctx, msg, args...)
	}
}

// Warn logs a warning through the request-scoped logger when present, else fallback.
func Warn(ctx context.Context, fallback *slog.Logger, msg string, args ...any) {
	if logger := FromContext(ctx, fallback); logger != nil {
		logger.WarnContext(ctx, msg, args...)
	}
}

// Error logs err under the "error" key. Nothing is logged without a logger.
func Error(ctx context.Context, fallback *slog.Logger, msg string, err error, args ...any) {
	logger := FromContext(ctx, fallback)
	if logger == nil {
		return
	}
	if err != nil {
		args = append(args, "error", err)
	}
	logger.ErrorContext(ctx, msg, args...)
}
