package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ name string }

// New returns a tracer resolved lazily from the global provider, so spans started after
// tracing.Setup installs the SDK provider are exported.
func New(name string) observability.Tracer {
	if name == "" {
		name = "minishop-batches"
	}
	return &tracer{name: name}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(t.name).Start(ctx, name, trace.WithAttributes(attrs...))
}
