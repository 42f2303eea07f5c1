package station

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rockets-cn/allsky/pkg/capture"
	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/imagestore"
	"github.com/rockets-cn/allsky/pkg/imagestore/retention"
	"github.com/rockets-cn/allsky/pkg/weather"
)

// NewWeatherProvider builds the provider named by cfg.
func NewWeatherProvider(cfg config.WeatherConfig) (weather.Provider, error) {
	switch cfg.Provider {
	case "", "mock":
		return weather.NewMock(0), nil
	case "openweathermap":
		if cfg.OpenWeatherMapAPIKey == "" {
			return nil, errpolicy.NewConfigurationError("weather.openweathermap_api_key", "API key is required")
		}
		return weather.NewOpenWeatherMap(weather.OpenWeatherMapConfig{
			APIKey:  cfg.OpenWeatherMapAPIKey,
			Timeout: cfg.Timeout,
			Retry: errpolicy.RetryOptions{
				MaxRetries:  2,
				BaseDelay:   capture.DefaultReadRetry.BaseDelay,
				Exponential: true,
			},
		}), nil
	default:
		return nil, errpolicy.NewConfigurationError("weather.provider",
			fmt.Sprintf("unknown weather provider %q", cfg.Provider))
	}
}

// NewLayout builds the image layout for cfg.
func NewLayout(cfg *config.Config) imagestore.Layout {
	return imagestore.Layout{
		Base:    cfg.Storage.BasePath,
		Archive: cfg.Storage.ArchivePath,
		Prefix:  cfg.Storage.Prefix,
		TZ:      cfg.Station.Location().TZ,
	}
}

// NewIndex builds the index backend named by cfg.
func NewIndex(cfg config.StorageConfig, layout imagestore.Layout) (imagestore.Index, error) {
	switch cfg.Index {
	case "", "json":
		return imagestore.NewJSONIndex(layout.IndexPath()), nil
	case "sqlite":
		return imagestore.NewSQLiteIndex(imagestore.SQLiteConfig{
			Path:   layout.SQLitePath(),
			Driver: cfg.SQLiteDriver,
		})
	default:
		return nil, errpolicy.NewConfigurationError("storage.index",
			fmt.Sprintf("unknown index backend %q", cfg.Index))
	}
}

// NewArchiver builds the archive sink for cfg: S3 when enabled, else the
// local archive directory. It returns nil when archiving is disabled.
func NewArchiver(ctx context.Context, cfg config.RetentionConfig, layout imagestore.Layout) (retention.Archiver, error) {
	if !cfg.ArchiveEnabled {
		return nil, nil
	}
	if cfg.S3.Enabled {
		archiver, err := retention.NewS3Archiver(ctx, retention.S3Config{
			Bucket:   cfg.S3.Bucket,
			Prefix:   cfg.S3.Prefix,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		}, layout)
		if err != nil {
			return nil, err
		}
		return archiver, nil
	}
	return retention.LocalArchiver{Layout: layout}, nil
}

// NewManifest returns the eviction manifest for cfg, or nil when disabled.
// Without a local archive the manifest lives next to the index.
func NewManifest(cfg config.RetentionConfig, layout imagestore.Layout) *retention.Manifest {
	if !cfg.Manifest {
		return nil
	}
	dir := layout.Archive
	if dir == "" {
		dir = filepath.Join(layout.Base, "manifests")
	}
	return retention.NewManifest(dir)
}

// NewPatternDevice builds the synthetic device from camera settings.
func NewPatternDevice(cfg config.CameraConfig) capture.Device {
	return capture.NewPatternDevice(cfg.Width, cfg.Height, cfg.Quality)
}

func retentionConfig(cfg config.RetentionConfig) retention.Config {
	return retention.Config{MaxImages: cfg.MaxImages, ArchiveEnabled: cfg.ArchiveEnabled}
}

func schedulerSettings(cfg config.CaptureConfig) capture.Settings {
	return capture.Settings{
		AutoCapture:  cfg.AutoCapture,
		Interval:     cfg.Interval,
		NightOnly:    cfg.NightOnly,
		WeatherCheck: cfg.WeatherCheck,
	}
}
