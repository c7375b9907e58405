package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/platform/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracing.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// finishSpan records err on the span, if any, and ends it.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// publisher emits post-commit events. Emission failures never fail the
// request that caused them; they are logged instead.
type publisher struct {
	emitter events.EventEmitter
}

func (p publisher) publish(ctx context.Context, log *slog.Logger, event *events.Event, err error) {
	if p.emitter == nil {
		return
	}
	if err != nil {
		log.Error("failed to build event", slog.String("error", err.Error()))
		return
	}
	if err := p.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("event handler failed",
			slog.String("error", err.Error()),
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID.String()))
	}
}
