package station

import (
	"context"

	"github.com/rockets-cn/allsky/pkg/config"
)

// onConfig applies a published snapshot to the running components.
func (s *Station) onConfig(snap *config.Snapshot) {
	next := snap.Config

	s.mu.Lock()
	prev := s.applied
	s.applied = next
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	if prev.Station.Latitude != next.Station.Latitude ||
		prev.Station.Longitude != next.Station.Longitude ||
		prev.Station.Timezone != next.Station.Timezone {
		s.boundaries.InvalidateLocation()
		s.logger.Info("station location changed",
			"latitude", next.Station.Latitude,
			"longitude", next.Station.Longitude,
			"timezone", next.Station.Timezone,
		)
	}

	if prev.Weather.Provider != next.Weather.Provider ||
		prev.Weather.OpenWeatherMapAPIKey != next.Weather.OpenWeatherMapAPIKey ||
		prev.Weather.Timeout != next.Weather.Timeout {
		provider, err := NewWeatherProvider(next.Weather)
		if err != nil {
			s.recorder.Record(err, map[string]any{"operation": "config_reload"})
		} else {
			s.weather.SetProvider(provider)
		}
	}

	if prev.Retention.MaxImages != next.Retention.MaxImages ||
		prev.Retention.ArchiveEnabled != next.Retention.ArchiveEnabled {
		s.policy.SetConfig(retentionConfig(next.Retention))
		go func() {
			if _, err := s.policy.Enforce(context.Background()); err != nil {
				s.recorder.Record(err, map[string]any{"operation": "retention"})
			}
			s.refreshStorageMetrics()
		}()
	}

	if prev.Capture != next.Capture {
		s.applyCapture(next.Capture)
	}

	if prev.Storage != next.Storage {
		s.logger.Warn("storage settings changed, restart to apply")
	}

	s.events.Publish(Event{Type: EventConfig, Time: s.now(), Data: map[string]any{"version": snap.Version}})
}

// applyCapture follows auto_capture: the scheduler starts or stops with it
// and a running loop picks up new interval and gating.
func (s *Station) applyCapture(cfg config.CaptureConfig) {
	settings := schedulerSettings(cfg)
	switch {
	case !cfg.AutoCapture && s.scheduler.IsRunning():
		if err := s.StopScheduler(); err != nil {
			s.logger.Warn("failed to stop scheduler", "error", err)
		}
	case cfg.AutoCapture && !s.scheduler.IsRunning():
		s.StartScheduler()
	default:
		s.scheduler.UpdateSettings(settings)
	}
}
