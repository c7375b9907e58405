package events

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
)

// ProjectEvicter drops cached copies of a project.
type ProjectEvicter interface {
	Evict(ctx context.Context, projectID uuid.UUID)
}

// CacheInvalidationHandler evicts cached projects whose row or membership changed.
type CacheInvalidationHandler struct {
	cache ProjectEvicter
}

// NewCacheInvalidationHandler returns a handler evicting from cache.
func NewCacheInvalidationHandler(cache ProjectEvicter) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{cache: cache}
}

// HandleEvent implements EventHandler.
func (h *CacheInvalidationHandler) HandleEvent(ctx context.Context, event *Event) error {
	switch event.Type {
	case ProjectUpdated, ProjectDeleted:
		h.cache.Evict(ctx, event.ProjectID)
	}
	return nil
}

// AuditLogHandler writes one structured log line per event.
type AuditLogHandler struct {
	logger *slog.Logger
}

// NewAuditLogHandler returns a handler logging to logger (or the default logger).
func NewAuditLogHandler(l *slog.Logger) *AuditLogHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AuditLogHandler{logger: l.With("component", "audit")}
}

// HandleEvent implements EventHandler.
func (h *AuditLogHandler) HandleEvent(ctx context.Context, event *Event) error {
	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("actor_id", event.ActorID.String()),
		slog.String("project_id", event.ProjectID.String()),
	}
	if event.TaskID != uuid.Nil {
		attrs = append(attrs, slog.String("task_id", event.TaskID.String()))
	}
	if len(event.Payload) > 0 {
		attrs = append(attrs, slog.String("payload", string(event.Payload)))
	}
	logger.FromContextOrDefault(ctx, h.logger).InfoContext(ctx, "audit", attrs...)
	return nil
}
