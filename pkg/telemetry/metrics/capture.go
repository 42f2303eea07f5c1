package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rockets-cn/allsky/pkg/twilight"
)

// CaptureMetrics tracks capture attempts.
//
// Metrics:
//   - allsky_capture_total: attempts by result ("success", "error")
//   - allsky_capture_duration_seconds: time from trigger to stored image
//   - allsky_lighting_period: 1 for the active lighting period, 0 for the others
//   - allsky_last_capture_timestamp_seconds: time of the last success
type CaptureMetrics struct {
	capturesTotal *prometheus.CounterVec
	duration      prometheus.Histogram
	period        *prometheus.GaugeVec
	lastCapture   prometheus.Gauge
}

// NewCaptureMetrics creates and registers capture metrics.
func NewCaptureMetrics(registry *prometheus.Registry) *CaptureMetrics {
	cm := &CaptureMetrics{
		capturesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "capture_total",
				Help:      "Total number of capture attempts by result",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "capture_duration_seconds",
			Help:      "Capture duration including exposure and storage",
			// Long night exposures dominate the upper buckets.
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		period: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "lighting_period",
				Help:      "Active lighting period (1 = active)",
			},
			[]string{"period"},
		),
		lastCapture: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_capture_timestamp_seconds",
			Help:      "Unix time of the last successful capture",
		}),
	}

	registry.MustRegister(cm.capturesTotal, cm.duration, cm.period, cm.lastCapture)
	return cm
}

// RecordAttempt records one capture attempt finishing at now.
func (cm *CaptureMetrics) RecordAttempt(err error, elapsed time.Duration, now time.Time) {
	if err != nil {
		cm.capturesTotal.WithLabelValues("error").Inc()
		return
	}
	cm.capturesTotal.WithLabelValues("success").Inc()
	cm.duration.Observe(elapsed.Seconds())
	cm.lastCapture.Set(float64(now.Unix()))
}

// SetPeriod sets the gauge for period to 1 and every other period to 0.
func (cm *CaptureMetrics) SetPeriod(period string) {
	for _, p := range twilight.Periods {
		v := 0.0
		if p.String() == period {
			v = 1
		}
		cm.period.WithLabelValues(p.String()).Set(v)
	}
}
