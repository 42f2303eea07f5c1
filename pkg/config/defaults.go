package config

import "time"

// Default values for configuration fields.
const (
	// Station defaults
	DefaultStationName       = "allsky"
	DefaultLatitude          = 31.2304
	DefaultLongitude         = 121.4737
	DefaultTimezone          = "Asia/Shanghai"
	DefaultBoundaryCacheSize = 1440

	// Camera defaults
	DefaultCameraBackend = "pattern"
	DefaultCameraWidth   = 1920
	DefaultCameraHeight  = 1080
	DefaultImageQuality  = 95
	DefaultImageFormat   = "jpg"
	DefaultReadRetries   = 3
	DefaultRetryDelay    = 500 * time.Millisecond

	// Capture defaults
	DefaultAutoCapture     = false
	DefaultCaptureInterval = 60 * time.Second
	DefaultJoinTimeout     = 5 * time.Second
	DefaultMaxBackoff      = 60 * time.Second

	// Storage defaults
	DefaultBasePath     = "./images"
	DefaultArchivePath  = "./archive"
	DefaultPrefix       = "allsky"
	DefaultIndex        = "json"
	DefaultSQLiteDriver = "sqlite"
	DefaultHorizon      = 30 * 24 * time.Hour

	// Retention defaults
	DefaultMaxImages         = 100
	DefaultArchiveEnabled    = true
	DefaultRetentionSchedule = "*/15 * * * *"
	DefaultManifest          = true

	// Weather defaults
	DefaultWeatherProvider   = "mock"
	DefaultWeatherCacheTTL   = 300 * time.Second
	DefaultWeatherTimeout    = 10 * time.Second
	DefaultClearSkyThreshold = 50.0

	// Astronomy defaults
	DefaultMagnitudeLimit    = 4.0
	DefaultAstronomyCacheTTL = 600 * time.Second

	// Server defaults
	DefaultListenAddress   = "0.0.0.0:5000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
	DefaultLivenessPath   = "/health"
	DefaultReadinessPath  = "/ready"

	// Tracing defaults
	DefaultTracingSampler     = "always"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingServiceName = "allsky"

	// Secrets defaults
	DefaultSecretsEnvPrefix = "ALLSKY_SECRET_"
)

// Default returns a configuration with every field at its default value.
func Default() *Config {
	cfg := &Config{
		Station: StationConfig{
			Latitude:  DefaultLatitude,
			Longitude: DefaultLongitude,
		},
		Retention: RetentionConfig{
			MaxImages:      DefaultMaxImages,
			ArchiveEnabled: DefaultArchiveEnabled,
			Manifest:       DefaultManifest,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults. Fields whose zero
// value is meaningful (booleans, coordinates, retention.max_images) only get
// their defaults from Default, which loading starts from.
func ApplyDefaults(cfg *Config) {
	// Station defaults
	if cfg.Station.Name == "" {
		cfg.Station.Name = DefaultStationName
	}
	if cfg.Station.Timezone == "" {
		cfg.Station.Timezone = DefaultTimezone
	}
	if cfg.Station.BoundaryCacheSize == 0 {
		cfg.Station.BoundaryCacheSize = DefaultBoundaryCacheSize
	}

	// Camera defaults
	if cfg.Camera.Backend == "" {
		cfg.Camera.Backend = DefaultCameraBackend
	}
	if cfg.Camera.Width == 0 {
		cfg.Camera.Width = DefaultCameraWidth
	}
	if cfg.Camera.Height == 0 {
		cfg.Camera.Height = DefaultCameraHeight
	}
	if cfg.Camera.Quality == 0 {
		cfg.Camera.Quality = DefaultImageQuality
	}
	if cfg.Camera.Format == "" {
		cfg.Camera.Format = DefaultImageFormat
	}
	if cfg.Camera.ReadRetries == 0 {
		cfg.Camera.ReadRetries = DefaultReadRetries
	}
	if cfg.Camera.RetryDelay == 0 {
		cfg.Camera.RetryDelay = DefaultRetryDelay
	}

	// Capture defaults
	if cfg.Capture.Interval == 0 {
		cfg.Capture.Interval = DefaultCaptureInterval
	}
	if cfg.Capture.JoinTimeout == 0 {
		cfg.Capture.JoinTimeout = DefaultJoinTimeout
	}
	if cfg.Capture.MaxBackoff == 0 {
		cfg.Capture.MaxBackoff = DefaultMaxBackoff
	}

	// Storage defaults
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = DefaultBasePath
	}
	if cfg.Storage.ArchivePath == "" {
		cfg.Storage.ArchivePath = DefaultArchivePath
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = DefaultPrefix
	}
	if cfg.Storage.Index == "" {
		cfg.Storage.Index = DefaultIndex
	}
	if cfg.Storage.SQLiteDriver == "" {
		cfg.Storage.SQLiteDriver = DefaultSQLiteDriver
	}
	if cfg.Storage.Horizon == 0 {
		cfg.Storage.Horizon = DefaultHorizon
	}

	// Weather defaults
	if cfg.Weather.Provider == "" {
		cfg.Weather.Provider = DefaultWeatherProvider
	}
	if cfg.Weather.CacheDuration == 0 {
		cfg.Weather.CacheDuration = DefaultWeatherCacheTTL
	}
	if cfg.Weather.Timeout == 0 {
		cfg.Weather.Timeout = DefaultWeatherTimeout
	}
	if cfg.Weather.ClearSkyThreshold == 0 {
		cfg.Weather.ClearSkyThreshold = DefaultClearSkyThreshold
	}

	// Astronomy defaults
	if cfg.Astronomy.MagnitudeLimit == 0 {
		cfg.Astronomy.MagnitudeLimit = DefaultMagnitudeLimit
	}
	if cfg.Astronomy.CacheDuration == 0 {
		cfg.Astronomy.CacheDuration = DefaultAstronomyCacheTTL
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}

	// Secrets defaults
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
}
