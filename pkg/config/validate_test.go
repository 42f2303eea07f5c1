package config

import (
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "longitude", modify: func(c *Config) { c.Station.Longitude = -181 }, wantField: "station.longitude"},
		{name: "timezone", modify: func(c *Config) { c.Station.Timezone = "Mars/Olympus" }, wantField: "station.timezone"},
		{name: "backend", modify: func(c *Config) { c.Camera.Backend = "v4l" }, wantField: "camera.backend"},
		{name: "quality", modify: func(c *Config) { c.Camera.Quality = 101 }, wantField: "camera.quality"},
		{name: "format", modify: func(c *Config) { c.Camera.Format = "gif" }, wantField: "camera.format"},
		{name: "interval", modify: func(c *Config) { c.Capture.Interval = -1 }, wantField: "capture.interval"},
		{name: "index", modify: func(c *Config) { c.Storage.Index = "bolt" }, wantField: "storage.index"},
		{name: "driver", modify: func(c *Config) { c.Storage.SQLiteDriver = "pgx" }, wantField: "storage.sqlite_driver"},
		{name: "negative ceiling", modify: func(c *Config) { c.Retention.MaxImages = -1 }, wantField: "retention.max_images"},
		{name: "cron", modify: func(c *Config) { c.Retention.Schedule = "every day" }, wantField: "retention.schedule"},
		{name: "empty cron disables", modify: func(c *Config) { c.Retention.Schedule = "" }},
		{name: "s3 bucket", modify: func(c *Config) { c.Retention.S3.Enabled = true }, wantField: "retention.s3.bucket"},
		{name: "owm key", modify: func(c *Config) { c.Weather.Provider = "openweathermap" }, wantField: "weather.openweathermap_api_key"},
		{name: "threshold", modify: func(c *Config) { c.Weather.ClearSkyThreshold = 150 }, wantField: "weather.clear_sky_threshold"},
		{name: "magnitude", modify: func(c *Config) { c.Astronomy.MagnitudeLimit = 30 }, wantField: "astronomy.magnitude_limit"},
		{name: "listen", modify: func(c *Config) { c.Server.ListenAddress = "" }, wantField: "server.listen_address"},
		{name: "log level", modify: func(c *Config) { c.Telemetry.Logging.Level = "trace" }, wantField: "telemetry.logging.level"},
		{name: "metrics path", modify: func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, wantField: "telemetry.metrics.path"},
		{name: "tracing sampler", modify: func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" }, wantField: "telemetry.tracing.sampler"},
		{name: "tracing ratio", modify: func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, wantField: "telemetry.tracing.sample_ratio"},
		{name: "tracing endpoint", modify: func(c *Config) { c.Telemetry.Tracing.Enabled = true; c.Telemetry.Tracing.Endpoint = "" }, wantField: "telemetry.tracing.endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := Validate(cfg)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v, want field %s", verr.Errors, tt.wantField)
			}
		})
	}
}

func TestFieldError_Section(t *testing.T) {
	if got := (FieldError{Field: "retention.s3.bucket"}).Section(); got != "retention" {
		t.Errorf("Section() = %q, want retention", got)
	}
}
