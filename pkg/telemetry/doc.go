// Package telemetry groups the station's observability packages.
//
// # Components
//
//   - logging: slog setup with credential redaction and context fields
//   - metrics: Prometheus collectors for captures, storage and caches
//   - tracing: OpenTelemetry spans for captures, retention and HTTP requests
//   - health: liveness and readiness checks for the device, storage and
//     scheduler
//
// # Usage
//
//	if _, err := logging.Install(logging.Config{Level: "info", Format: "json"}); err != nil {
//		return err
//	}
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//
// Every package accepts a nil collector or tracer and then records nothing.
package telemetry
