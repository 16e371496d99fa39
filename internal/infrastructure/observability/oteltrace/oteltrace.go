package oteltrace

import (
	"context"

	"github.com/mkassab/orderlink/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New wraps the named otel tracer. Spans are recorded only when the host
// process installs a TracerProvider via otel.SetTracerProvider; otherwise
// otel's no-op provider applies.
func New(name string) observability.Tracer {
	if name == "" {
		name = "orderlink"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
