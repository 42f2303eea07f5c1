package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rockets-cn/allsky/pkg/twilight"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "station.latitude").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Section returns the top-level section the field belongs to.
func (e FieldError) Section() string {
	section, _, _ := strings.Cut(e.Field, ".")
	return section
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

type sectionValidator struct {
	name     string
	validate func(cfg *Config) []FieldError
	reset    func(cfg, defaults *Config)
}

var sections = []sectionValidator{
	{"station", func(c *Config) []FieldError { return validateStation(&c.Station) }, func(c, d *Config) { c.Station = d.Station }},
	{"camera", func(c *Config) []FieldError { return validateCamera(&c.Camera) }, func(c, d *Config) { c.Camera = d.Camera }},
	{"capture", func(c *Config) []FieldError { return validateCapture(&c.Capture) }, func(c, d *Config) { c.Capture = d.Capture }},
	{"storage", func(c *Config) []FieldError { return validateStorage(&c.Storage) }, func(c, d *Config) { c.Storage = d.Storage }},
	{"retention", func(c *Config) []FieldError { return validateRetention(&c.Retention) }, func(c, d *Config) { c.Retention = d.Retention }},
	{"weather", func(c *Config) []FieldError { return validateWeather(&c.Weather) }, func(c, d *Config) { c.Weather = d.Weather }},
	{"astronomy", func(c *Config) []FieldError { return validateAstronomy(&c.Astronomy) }, func(c, d *Config) { c.Astronomy = d.Astronomy }},
	{"server", func(c *Config) []FieldError { return validateServer(&c.Server) }, func(c, d *Config) { c.Server = d.Server }},
	{"telemetry", func(c *Config) []FieldError { return validateTelemetry(&c.Telemetry) }, func(c, d *Config) { c.Telemetry = d.Telemetry }},
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError
	for _, s := range sections {
		errs = append(errs, s.validate(cfg)...)
	}
	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// Sanitize resets every section that fails validation to its defaults and
// returns the errors that caused the resets. The sanitized configuration
// always validates.
func Sanitize(cfg *Config) []FieldError {
	defaults := Default()
	var errs []FieldError
	for _, s := range sections {
		if fe := s.validate(cfg); len(fe) > 0 {
			errs = append(errs, fe...)
			s.reset(cfg, defaults)
		}
	}
	return errs
}

func validateStation(cfg *StationConfig) []FieldError {
	var errs []FieldError

	if cfg.Latitude < -90 || cfg.Latitude > 90 {
		errs = append(errs, FieldError{
			Field:   "station.latitude",
			Message: fmt.Sprintf("latitude %v must be between -90 and 90", cfg.Latitude),
		})
	}
	if cfg.Longitude < -180 || cfg.Longitude > 180 {
		errs = append(errs, FieldError{
			Field:   "station.longitude",
			Message: fmt.Sprintf("longitude %v must be between -180 and 180", cfg.Longitude),
		})
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, FieldError{
			Field:   "station.timezone",
			Message: fmt.Sprintf("unknown time zone %q", cfg.Timezone),
		})
	}
	if cfg.BoundaryCacheSize < 1 {
		errs = append(errs, FieldError{
			Field:   "station.boundary_cache_size",
			Message: "boundary cache size must be positive",
		})
	}

	return errs
}

func validateCamera(cfg *CameraConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "pattern", "opencv":
	default:
		errs = append(errs, FieldError{
			Field:   "camera.backend",
			Message: fmt.Sprintf("invalid backend %q (must be 'pattern' or 'opencv')", cfg.Backend),
		})
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		errs = append(errs, FieldError{
			Field:   "camera.width",
			Message: "frame size must be positive",
		})
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		errs = append(errs, FieldError{
			Field:   "camera.quality",
			Message: "quality must be between 1 and 100",
		})
	}
	switch strings.ToLower(cfg.Format) {
	case "jpg", "jpeg", "png":
	default:
		errs = append(errs, FieldError{
			Field:   "camera.format",
			Message: fmt.Sprintf("unsupported image format %q", cfg.Format),
		})
	}
	if cfg.ReadRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "camera.read_retries",
			Message: "read retries must be non-negative",
		})
	}
	if cfg.RetryDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "camera.retry_delay",
			Message: "retry delay must be non-negative",
		})
	}
	for name := range cfg.Settings {
		if _, err := twilight.ParsePeriod(name); err != nil {
			errs = append(errs, FieldError{
				Field:   "camera.settings." + name,
				Message: err.Error(),
			})
		}
	}

	return errs
}

func validateCapture(cfg *CaptureConfig) []FieldError {
	var errs []FieldError

	if cfg.Interval <= 0 {
		errs = append(errs, FieldError{
			Field:   "capture.interval",
			Message: "interval must be positive",
		})
	}
	if cfg.JoinTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "capture.join_timeout",
			Message: "join timeout must be positive",
		})
	}
	if cfg.MaxBackoff <= 0 {
		errs = append(errs, FieldError{
			Field:   "capture.max_backoff",
			Message: "max backoff must be positive",
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	if cfg.BasePath == "" {
		errs = append(errs, FieldError{
			Field:   "storage.base_path",
			Message: "base path is required",
		})
	}
	switch cfg.Index {
	case "json", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.index",
			Message: fmt.Sprintf("invalid index %q (must be 'json' or 'sqlite')", cfg.Index),
		})
	}
	switch cfg.SQLiteDriver {
	case "sqlite", "sqlite3":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.sqlite_driver",
			Message: fmt.Sprintf("invalid driver %q (must be 'sqlite' or 'sqlite3')", cfg.SQLiteDriver),
		})
	}
	if cfg.Horizon <= 0 {
		errs = append(errs, FieldError{
			Field:   "storage.horizon",
			Message: "horizon must be positive",
		})
	}

	return errs
}

func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxImages < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.max_images",
			Message: "max images must be non-negative",
		})
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	if cfg.S3.Enabled && cfg.S3.Bucket == "" {
		errs = append(errs, FieldError{
			Field:   "retention.s3.bucket",
			Message: "bucket is required when S3 archiving is enabled",
		})
	}

	return errs
}

func validateWeather(cfg *WeatherConfig) []FieldError {
	var errs []FieldError

	switch cfg.Provider {
	case "mock":
	case "openweathermap":
		if cfg.OpenWeatherMapAPIKey == "" {
			errs = append(errs, FieldError{
				Field:   "weather.openweathermap_api_key",
				Message: "API key is required for the openweathermap provider",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "weather.provider",
			Message: fmt.Sprintf("invalid provider %q (must be 'mock' or 'openweathermap')", cfg.Provider),
		})
	}
	if cfg.CacheDuration <= 0 {
		errs = append(errs, FieldError{
			Field:   "weather.cache_duration",
			Message: "cache duration must be positive",
		})
	}
	if cfg.ClearSkyThreshold < 0 || cfg.ClearSkyThreshold > 100 {
		errs = append(errs, FieldError{
			Field:   "weather.clear_sky_threshold",
			Message: "threshold must be between 0 and 100",
		})
	}

	return errs
}

func validateAstronomy(cfg *AstronomyConfig) []FieldError {
	var errs []FieldError

	if cfg.MagnitudeLimit < -2 || cfg.MagnitudeLimit > 10 {
		errs = append(errs, FieldError{
			Field:   "astronomy.magnitude_limit",
			Message: "magnitude limit must be between -2 and 10",
		})
	}
	if cfg.CacheDuration <= 0 {
		errs = append(errs, FieldError{
			Field:   "astronomy.cache_duration",
			Message: "cache duration must be positive",
		})
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "timeouts must be non-negative",
		})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn or error)", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be 'json' or 'text')", cfg.Logging.Format),
		})
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q (must be always, never or ratio)", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: fmt.Sprintf("sample ratio %v must be between 0 and 1", cfg.Tracing.SampleRatio),
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errs
}
