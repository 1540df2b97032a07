package workerpresentation

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/minishop-batches/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability/logctx"
)

// WithEventContext injects an event-scoped logger for background executions.
// Fields: event, event_id, and trace_id/span_id when the context carries a valid span.
func WithEventContext(ctx context.Context, base observability.Logger, env domoutbox.Envelope) context.Context {
	base = logctx.FromOr(ctx, base)

	fields := make([]observability.Field, 0, 5)
	fields = append(fields,
		observability.F("event", env.Name),
		observability.F("event_id", env.ID),
	)
	if key := env.Key(); key != "" {
		fields = append(fields, observability.F("event_key", key))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}

	return logctx.With(ctx, base.With(fields...))
}
