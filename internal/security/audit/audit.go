package audit

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// Logger emits structured audit lines for mutating operations. The immutable
// stage-event table is the durable audit trail; these lines exist for
// operational log search.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogJobMutation(ctx context.Context, userID, action string, jobID int64, details string) {
	al.LogAction(ctx, userID, action, "job", strconv.FormatInt(jobID, 10), details)
}

func (al *Logger) LogApplicationMutation(ctx context.Context, userID, action string, applicationID int64, details string) {
	al.LogAction(ctx, userID, action, "application", strconv.FormatInt(applicationID, 10), details)
}

func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, "access_denied", "api", "", reason)
}
