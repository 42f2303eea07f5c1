// Package tracing exports OpenTelemetry spans for captures and API
// requests to an OTLP gRPC collector.
//
// A disabled or nil *Tracer hands out no-op spans, so callers never check
// whether tracing is on:
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "station.capture")
//	defer span.End()
//
// Incoming requests carry W3C Trace Context (traceparent, tracestate);
// Extract continues a caller's trace.
//
// # Sampling
//
//   - always: sample every trace
//   - never: sample nothing
//   - ratio: sample sample_ratio of new traces
//
// Every sampler respects the parent's decision when a request arrives with
// one.
package tracing
