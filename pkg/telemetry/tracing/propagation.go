package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
)

// Extract returns ctx carrying the remote span context found in the W3C
// traceparent and tracestate headers, if any.
func (t *Tracer) Extract(ctx context.Context, headers http.Header) context.Context {
	if !t.Enabled() {
		return ctx
	}
	return t.propagator.Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject writes the span context in ctx into headers.
func (t *Tracer) Inject(ctx context.Context, headers http.Header) {
	if !t.Enabled() {
		return
	}
	t.propagator.Inject(ctx, propagation.HeaderCarrier(headers))
}
