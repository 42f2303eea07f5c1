package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/errpolicy"
)

// Namespace prefixes every metric name.
const Namespace = "allsky"

// Collector is the entry point for recording station metrics. A disabled
// collector accepts every call and records nothing.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	captureMetrics *CaptureMetrics
	storageMetrics *StorageMetrics
	cacheMetrics   *CacheMetrics

	errorsTotal *prometheus.CounterVec
}

// NewCollector creates a collector registered with registry. If registry is
// nil a new one is created with the Go runtime and process collectors.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &Collector{
		config:         cfg,
		registry:       registry,
		captureMetrics: NewCaptureMetrics(registry),
		storageMetrics: NewStorageMetrics(registry),
		cacheMetrics:   NewCacheMetrics(registry),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "errors_total",
				Help:      "Total number of recorded errors by kind",
			},
			[]string{"kind"},
		),
	}
	registry.MustRegister(c.errorsTotal)

	return c
}

// Enabled reports whether metrics are recorded.
func (c *Collector) Enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordCapture records one capture attempt. Its signature matches the
// capture scheduler's OnCapture hook.
func (c *Collector) RecordCapture(err error, elapsed time.Duration) {
	if !c.Enabled() {
		return
	}
	c.captureMetrics.RecordAttempt(err, elapsed, time.Now())
}

// SetPeriod marks period as the active lighting period.
func (c *Collector) SetPeriod(period string) {
	if !c.Enabled() {
		return
	}
	c.captureMetrics.SetPeriod(period)
}

// RecordError counts a structured error. Its signature matches
// errpolicy.Recorder.OnRecord.
func (c *Collector) RecordError(e *errpolicy.Error) {
	if !c.Enabled() || e == nil {
		return
	}
	c.errorsTotal.WithLabelValues(string(e.Kind)).Inc()
}

// UpdateStorage sets the storage gauges.
func (c *Collector) UpdateStorage(images int, bytes int64, archiveFiles int, archiveBytes int64) {
	if !c.Enabled() {
		return
	}
	c.storageMetrics.Update(images, bytes, archiveFiles, archiveBytes)
}

// RecordEviction counts one eviction by action ("archive", "delete").
func (c *Collector) RecordEviction(action string, err error) {
	if !c.Enabled() {
		return
	}
	c.storageMetrics.RecordEviction(action, err)
}

// CacheHit implements fetchcache.Observer.
func (c *Collector) CacheHit(cache string) {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.RecordHit(cache)
}

// CacheMiss implements fetchcache.Observer.
func (c *Collector) CacheMiss(cache string) {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.RecordMiss(cache)
}

// CacheFetchFailed implements fetchcache.Observer.
func (c *Collector) CacheFetchFailed(cache string) {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.RecordFetchFailure(cache)
}

// CacheEntries implements fetchcache.Observer.
func (c *Collector) CacheEntries(cache string, n int) {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.UpdateSize(cache, n)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
