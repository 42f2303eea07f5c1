package main

import (
	"context"
	"fmt"

	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/station"
	"github.com/rockets-cn/allsky/pkg/telemetry/logging"
	"github.com/rockets-cn/allsky/pkg/telemetry/metrics"
	"github.com/rockets-cn/allsky/pkg/telemetry/tracing"
)

// installLogger makes the configured logger the slog default. A non-empty
// level overrides the configuration.
func installLogger(cfg config.LoggingConfig, level string) error {
	if level == "" {
		level = cfg.Level
	}
	_, err := logging.Install(logging.Config{
		Level:     level,
		Format:    cfg.Format,
		AddSource: cfg.AddSource,
	})
	return err
}

// openStation builds a station from store without starting background
// work. The caller closes it.
func openStation(ctx context.Context, store *config.Store, collector *metrics.Collector, tracer *tracing.Tracer) (*station.Station, error) {
	cfg := store.Config()

	dev, err := newDevice(cfg.Camera)
	if err != nil {
		return nil, err
	}

	opts := station.Options{
		Config:  store,
		Device:  dev,
		Metrics: collector,
		Tracer:  tracer,
	}
	if cfg.Camera.Overlay {
		opts.Overlay = station.TextOverlay(cfg.Camera.Quality)
	}

	st, err := station.New(ctx, opts)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("failed to open station: %w", err)
	}
	return st, nil
}
