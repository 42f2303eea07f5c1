package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for HTTP request IDs.
	RequestIDKey contextKey = "request_id"

	// CaptureIDKey is the context key for the capture being processed.
	CaptureIDKey contextKey = "capture_id"

	// PeriodKey is the context key for the lighting period of a capture.
	PeriodKey contextKey = "period"
)

var contextKeys = []contextKey{RequestIDKey, CaptureIDKey, PeriodKey}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// WithCaptureID adds a capture ID to the context.
func WithCaptureID(ctx context.Context, captureID string) context.Context {
	return context.WithValue(ctx, CaptureIDKey, captureID)
}

// GetCaptureID retrieves the capture ID from the context.
func GetCaptureID(ctx context.Context) string {
	return stringValue(ctx, CaptureIDKey)
}

// WithPeriod adds the lighting period name to the context.
func WithPeriod(ctx context.Context, period string) context.Context {
	return context.WithValue(ctx, PeriodKey, period)
}

// GetPeriod retrieves the lighting period name from the context.
func GetPeriod(ctx context.Context) string {
	return stringValue(ctx, PeriodKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// contextAttrs extracts the set context fields in a stable order, followed
// by the trace ID when ctx carries a span.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range contextKeys {
		if v := stringValue(ctx, key); v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
	}
	return attrs
}
