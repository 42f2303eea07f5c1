package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rockets-cn/allsky/pkg/secrets"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "ALLSKY_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Values missing from the file keep their defaults. The result is validated
// and any problem is returned as an error.
func LoadConfig(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention ALLSKY_SECTION_FIELD (e.g., ALLSKY_CAPTURE_INTERVAL) and always
// take precedence over the file.
//
// The loading sequence is:
// 1. Start from defaults
// 2. Overlay the YAML file
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if errs := resolveSecrets(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %w", ValidationError{Errors: errs})
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadSanitized is the lenient loader used by the running station. It
// applies environment overrides and resolves secret references, then resets
// every invalid section to its defaults. An unresolvable reference leaves
// its field empty. The returned field errors describe what was reset. Only an
// unreadable or unparsable file is an error. An empty path yields the
// defaults with environment overrides.
func LoadSanitized(path string) (*Config, []FieldError, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = parseFile(path); err != nil {
			return nil, nil, err
		}
	}

	applyEnvOverrides(cfg)
	problems := resolveSecrets(cfg)
	problems = append(problems, Sanitize(cfg)...)
	return cfg, problems, nil
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Unparsable values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Station overrides
	envString("STATION_NAME", &cfg.Station.Name)
	envFloat("STATION_LATITUDE", &cfg.Station.Latitude)
	envFloat("STATION_LONGITUDE", &cfg.Station.Longitude)
	envString("STATION_TIMEZONE", &cfg.Station.Timezone)

	// Camera overrides
	envString("CAMERA_BACKEND", &cfg.Camera.Backend)
	envInt("CAMERA_DEVICE_ID", &cfg.Camera.DeviceID)
	envInt("CAMERA_QUALITY", &cfg.Camera.Quality)
	envBool("CAMERA_OVERLAY", &cfg.Camera.Overlay)

	// Capture overrides
	envBool("CAPTURE_AUTO_CAPTURE", &cfg.Capture.AutoCapture)
	envDuration("CAPTURE_INTERVAL", &cfg.Capture.Interval)
	envBool("CAPTURE_NIGHT_ONLY", &cfg.Capture.NightOnly)
	envBool("CAPTURE_WEATHER_CHECK", &cfg.Capture.WeatherCheck)

	// Storage overrides
	envString("STORAGE_BASE_PATH", &cfg.Storage.BasePath)
	envString("STORAGE_ARCHIVE_PATH", &cfg.Storage.ArchivePath)
	envString("STORAGE_INDEX", &cfg.Storage.Index)
	envString("STORAGE_SQLITE_DRIVER", &cfg.Storage.SQLiteDriver)

	// Retention overrides
	envInt("RETENTION_MAX_IMAGES", &cfg.Retention.MaxImages)
	envBool("RETENTION_ARCHIVE_ENABLED", &cfg.Retention.ArchiveEnabled)
	envString("RETENTION_SCHEDULE", &cfg.Retention.Schedule)
	envBool("RETENTION_S3_ENABLED", &cfg.Retention.S3.Enabled)
	envString("RETENTION_S3_BUCKET", &cfg.Retention.S3.Bucket)
	envString("RETENTION_S3_PREFIX", &cfg.Retention.S3.Prefix)
	envString("RETENTION_S3_REGION", &cfg.Retention.S3.Region)
	envString("RETENTION_S3_ENDPOINT", &cfg.Retention.S3.Endpoint)

	// Weather overrides
	envString("WEATHER_PROVIDER", &cfg.Weather.Provider)
	envString("WEATHER_OPENWEATHERMAP_API_KEY", &cfg.Weather.OpenWeatherMapAPIKey)
	envDuration("WEATHER_CACHE_DURATION", &cfg.Weather.CacheDuration)

	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)

	// Secrets overrides
	envString("SECRETS_DIRECTORY", &cfg.Secrets.Directory)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envString("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// resolveSecrets replaces ${secret:name} references in the fields that may
// carry credentials. A field that cannot be resolved is cleared.
func resolveSecrets(cfg *Config) []FieldError {
	fields := []struct {
		name string
		dst  *string
	}{
		{"weather.openweathermap_api_key", &cfg.Weather.OpenWeatherMapAPIKey},
		{"retention.s3.bucket", &cfg.Retention.S3.Bucket},
	}

	var manager *secrets.Manager
	var errs []FieldError
	for _, f := range fields {
		if !secrets.HasReference(*f.dst) {
			continue
		}
		if manager == nil {
			manager = newSecretManager(cfg.Secrets)
		}
		value, err := manager.Resolve(context.Background(), *f.dst)
		if err != nil {
			*f.dst = ""
			errs = append(errs, FieldError{Field: f.name, Message: err.Error()})
			continue
		}
		*f.dst = value
	}
	return errs
}

func newSecretManager(cfg SecretsConfig) *secrets.Manager {
	providers := []secrets.Provider{secrets.NewEnvProvider(cfg.EnvPrefix)}
	if cfg.Directory != "" {
		providers = append(providers, secrets.NewFileProvider(cfg.Directory))
	}
	return secrets.NewManager(providers, 0)
}
