// Package server exposes a station over HTTP.
//
// # Routes
//
//   - GET /api/status - station, period, scheduler and image count
//   - POST /api/scheduler/start, POST /api/scheduler/stop
//   - POST /api/capture - take one image now
//   - GET /api/images?start=&end=&limit= - query the index (RFC 3339 or dates)
//   - GET /api/images/{path} - serve an image; ?meta=1 returns its record
//   - DELETE /api/images/{path}
//   - GET /api/storage, GET /api/stats, GET /api/errors?limit=
//   - GET /api/weather, POST /api/weather/refresh
//   - GET /api/astronomy, GET /api/period
//   - PUT /api/config/camera - replace per-period exposure and gain
//   - GET /ws - station events as JSON over a websocket
//   - GET /health, GET /ready, GET /version, GET /metrics
//
// Errors are returned as {"error": {"message", "type", "id"}}. The status
// code follows the error kind: configuration errors are 400, device errors
// 503, data fetch errors 502 and storage errors 500.
//
// # Middleware
//
// Requests pass through panic recovery, request ID assignment (honouring a
// client X-Request-ID), tracing and request logging, in that order. When
// tracing is enabled each request gets a server span named after its route
// and the trace ID is returned in X-Trace-ID.
package server
