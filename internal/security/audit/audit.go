package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/bloggingapi/internal/infrastructure/logger"
)

// Blog actions recorded in the audit trail
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionPublish = "publish"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", logger.RequestID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

// LogBlog records a blog mutation outcome
func (al *Logger) LogBlog(ctx context.Context, userID, action, blogID, status string) {
	al.LogAction(ctx, userID, action, "blog", blogID, status, "")
}

func (al *Logger) LogDenied(ctx context.Context, userID, action, blogID, reason string) {
	al.LogAction(ctx, userID, action, "blog", blogID, "denied", reason)
}
