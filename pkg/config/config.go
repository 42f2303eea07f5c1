package config

import (
	"maps"
	"time"
	// Stations often run on minimal images without a zone database.
	_ "time/tzdata"

	"github.com/rockets-cn/allsky/pkg/twilight"
)

// Config is the root configuration structure.
type Config struct {
	// Station is where the camera is and which clock it follows.
	Station StationConfig `yaml:"station"`

	// Camera configures the capture device and per-period parameters.
	Camera CameraConfig `yaml:"camera"`

	// Capture configures the automatic capture scheduler.
	Capture CaptureConfig `yaml:"capture"`

	// Storage configures where images and the metadata index live.
	Storage StorageConfig `yaml:"storage"`

	// Retention bounds the number of stored images.
	Retention RetentionConfig `yaml:"retention"`

	// Weather configures the weather provider and cache.
	Weather WeatherConfig `yaml:"weather"`

	// Astronomy configures sky computations.
	Astronomy AstronomyConfig `yaml:"astronomy"`

	// Server configures the HTTP status API.
	Server ServerConfig `yaml:"server"`

	// Telemetry configures logging, metrics and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Secrets configures where ${secret:name} references are looked up.
	Secrets SecretsConfig `yaml:"secrets"`
}

// StationConfig describes the observing site.
type StationConfig struct {
	// Name labels the station in logs and the API.
	Name string `yaml:"name"`

	// Latitude in degrees, north positive. Range [-90, 90].
	Latitude float64 `yaml:"latitude"`

	// Longitude in degrees, east positive. Range [-180, 180].
	Longitude float64 `yaml:"longitude"`

	// Timezone is an IANA zone name used for day boundaries and file
	// layout. Default: "Asia/Shanghai"
	Timezone string `yaml:"timezone"`

	// BoundaryCacheSize is how many days of sun boundaries stay cached.
	// Default: 1440
	BoundaryCacheSize int `yaml:"boundary_cache_size"`
}

// Location returns the station as a twilight.Location. An unknown zone
// falls back to UTC.
func (s StationConfig) Location() twilight.Location {
	tz, err := time.LoadLocation(s.Timezone)
	if err != nil {
		tz = time.UTC
	}
	return twilight.Location{Latitude: s.Latitude, Longitude: s.Longitude, TZ: tz}
}

// CameraConfig configures the capture device.
type CameraConfig struct {
	// Backend selects the device implementation.
	// Options: "pattern" (synthetic frames), "opencv"
	// Default: "pattern"
	Backend string `yaml:"backend"`

	// DeviceID is the OpenCV device index.
	DeviceID int `yaml:"device_id"`

	// Width and Height are the requested frame size in pixels.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Quality is the JPEG quality, 1 to 100. Default: 95
	Quality int `yaml:"quality"`

	// Format is the image file extension. Default: "jpg"
	Format string `yaml:"format"`

	// ReadRetries is how many times a failed frame read is retried.
	// Default: 3
	ReadRetries int `yaml:"read_retries"`

	// RetryDelay is the first retry delay; it doubles on each retry.
	// Default: 500ms
	RetryDelay time.Duration `yaml:"retry_delay"`

	// Overlay stamps the station name, time, period and weather onto
	// each frame before it is saved. Default: false
	Overlay bool `yaml:"overlay"`

	// Settings maps a lighting period name to its exposure and gain.
	// Missing periods keep their built-in values.
	Settings map[string]twilight.Parameters `yaml:"settings"`
}

// ParameterTable builds the parameter table from Settings.
func (c CameraConfig) ParameterTable() twilight.ParameterTable {
	table := twilight.DefaultParameters()
	for name, params := range c.Settings {
		if p, err := twilight.ParsePeriod(name); err == nil {
			table = table.With(p, params)
		}
	}
	return table
}

// CaptureConfig configures automatic capture.
type CaptureConfig struct {
	// AutoCapture starts the scheduler with the station. Default: false
	AutoCapture bool `yaml:"auto_capture"`

	// Interval between captures. Default: 60s
	Interval time.Duration `yaml:"interval"`

	// NightOnly restricts captures to 18:00-06:59 station time.
	NightOnly bool `yaml:"night_only"`

	// WeatherCheck skips captures when the sky is cloudy.
	WeatherCheck bool `yaml:"weather_check"`

	// JoinTimeout bounds how long stopping waits for the loop. Default: 5s
	JoinTimeout time.Duration `yaml:"join_timeout"`

	// MaxBackoff caps the wait after a failed capture. Default: 60s
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// StorageConfig configures image storage.
type StorageConfig struct {
	// BasePath is the image root. Default: "./images"
	BasePath string `yaml:"base_path"`

	// ArchivePath mirrors BasePath for archived images. Default: "./archive"
	ArchivePath string `yaml:"archive_path"`

	// Prefix starts every image file name. Default: "allsky"
	Prefix string `yaml:"prefix"`

	// Index selects the metadata index backend.
	// Options: "json", "sqlite"
	// Default: "json"
	Index string `yaml:"index"`

	// SQLiteDriver selects the database/sql driver for the SQLite index.
	// Options: "sqlite" (modernc.org/sqlite), "sqlite3" (mattn/go-sqlite3)
	// Default: "sqlite"
	SQLiteDriver string `yaml:"sqlite_driver"`

	// Horizon is how long records stay in the index. Default: 720h
	Horizon time.Duration `yaml:"horizon"`
}

// RetentionConfig configures count-based retention.
type RetentionConfig struct {
	// MaxImages is the retention ceiling. 0 means unlimited. Default: 100
	MaxImages int `yaml:"max_images"`

	// ArchiveEnabled archives evicted images instead of deleting them.
	// Default: true
	ArchiveEnabled bool `yaml:"archive_enabled"`

	// Schedule is a cron expression for periodic enforcement and index
	// pruning. Empty disables it. Default: "*/15 * * * *"
	Schedule string `yaml:"schedule"`

	// Manifest writes evicted records to a compressed manifest in the
	// archive directory. Default: true
	Manifest bool `yaml:"manifest"`

	// S3 sends archived images to S3 instead of the archive directory.
	S3 S3Config `yaml:"s3"`
}

// S3Config configures the S3 archive sink.
type S3Config struct {
	Enabled  bool   `yaml:"enabled"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// WeatherConfig configures weather data.
type WeatherConfig struct {
	// Provider selects the data source.
	// Options: "mock", "openweathermap"
	// Default: "mock"
	Provider string `yaml:"provider"`

	// OpenWeatherMapAPIKey authenticates against OpenWeatherMap.
	OpenWeatherMapAPIKey string `yaml:"openweathermap_api_key"`

	// CacheDuration is the snapshot TTL. Default: 300s
	CacheDuration time.Duration `yaml:"cache_duration"`

	// Timeout bounds one HTTP request. Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ClearSkyThreshold is the highest cloud cover percentage treated as
	// clear. Default: 50
	ClearSkyThreshold float64 `yaml:"clear_sky_threshold"`
}

// SecretsConfig configures secret resolution. References are resolved in
// weather.openweathermap_api_key and retention.s3.bucket.
type SecretsConfig struct {
	// EnvPrefix prefixes the environment variable for each secret.
	// Default: "ALLSKY_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Directory holds one file per secret. Empty disables file lookup.
	Directory string `yaml:"directory"`
}

// AstronomyConfig configures sky computations.
type AstronomyConfig struct {
	// MagnitudeLimit is the faintest star reported. Default: 4.0
	MagnitudeLimit float64 `yaml:"magnitude_limit"`

	// CacheDuration is the computation TTL. Default: 600s
	CacheDuration time.Duration `yaml:"cache_duration"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port to bind. Default: "0.0.0.0:5000"
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Health  HealthConfig  `yaml:"health"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource adds source file and line to log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served. Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint. Default: "/metrics"
	Path string `yaml:"path"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	LivenessPath  string `yaml:"liveness_path"`
	ReadinessPath string `yaml:"readiness_path"`
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Camera.Settings = maps.Clone(c.Camera.Settings)
	return &out
}

// TracingConfig configures OpenTelemetry tracing of captures and API
// requests.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export. Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is the service name in traces.
	// Default: "allsky"
	ServiceName string `yaml:"service_name"`
}
