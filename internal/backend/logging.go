package backend

import (
	"context"
	"log/slog"

	"github.com/preston-bernstein/archery-score-client/internal/logging"
)

// logWithOperation emits a log entry on the request-scoped logger when present and always names the operation.
func logWithOperation(ctx context.Context, logger *slog.Logger, level slog.Level, operation string, msg string, args ...any) {
	logger = logging.FromContext(ctx, logger)
	if logger == nil {
		return
	}
	args = append(args, slog.String(logging.FieldOperation, operation))
	logger.Log(ctx, level, msg, args...)
}
