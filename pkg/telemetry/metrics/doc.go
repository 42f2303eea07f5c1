// Package metrics exports station metrics in the Prometheus format.
//
// The Collector owns a private registry with four groups of metrics:
//
//   - capture: attempts by result, duration, the active lighting period and
//     the time of the last successful capture
//   - storage: indexed images and bytes on disk, archive usage, evictions
//   - cache: hits, misses, failed fetches and entries for the weather,
//     astronomy and boundary caches
//   - errors: structured errors recorded by kind
//
// The collector satisfies fetchcache.Observer, so caches report into it
// directly, and its RecordCapture and RecordError methods match the hooks
// exposed by the capture scheduler and the error recorder.
//
// All metric names are prefixed with "allsky_".
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	recorder.OnRecord(collector.RecordError)
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
package metrics
