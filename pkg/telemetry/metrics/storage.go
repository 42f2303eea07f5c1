package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics tracks the image store.
type StorageMetrics struct {
	images         prometheus.Gauge
	bytes          prometheus.Gauge
	archiveFiles   prometheus.Gauge
	archiveBytes   prometheus.Gauge
	evictionsTotal *prometheus.CounterVec
}

// NewStorageMetrics creates and registers storage metrics.
func NewStorageMetrics(registry *prometheus.Registry) *StorageMetrics {
	sm := &StorageMetrics{
		images: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "storage_files",
			Help:      "Number of indexed images",
		}),
		bytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "storage_bytes",
			Help:      "Bytes used by images under the base directory",
		}),
		archiveFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "archive_files",
			Help:      "Number of images in the local archive",
		}),
		archiveBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "archive_bytes",
			Help:      "Bytes used by the local archive",
		}),
		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "retention_evictions_total",
				Help:      "Total number of retention evictions by action and result",
			},
			[]string{"action", "result"},
		),
	}

	registry.MustRegister(sm.images, sm.bytes, sm.archiveFiles, sm.archiveBytes, sm.evictionsTotal)
	return sm
}

// Update sets the storage gauges.
func (sm *StorageMetrics) Update(images int, bytes int64, archiveFiles int, archiveBytes int64) {
	sm.images.Set(float64(images))
	sm.bytes.Set(float64(bytes))
	sm.archiveFiles.Set(float64(archiveFiles))
	sm.archiveBytes.Set(float64(archiveBytes))
}

// RecordEviction counts one eviction.
func (sm *StorageMetrics) RecordEviction(action string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	sm.evictionsTotal.WithLabelValues(action, result).Inc()
}
