package config

import (
	"testing"

	"github.com/rockets-cn/allsky/pkg/twilight"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Station.Latitude != DefaultLatitude || cfg.Station.Longitude != DefaultLongitude {
		t.Errorf("location = %v,%v, want %v,%v", cfg.Station.Latitude, cfg.Station.Longitude, DefaultLatitude, DefaultLongitude)
	}
	if cfg.Station.Timezone != "Asia/Shanghai" {
		t.Errorf("timezone = %q, want Asia/Shanghai", cfg.Station.Timezone)
	}
	if cfg.Capture.Interval != DefaultCaptureInterval || cfg.Capture.AutoCapture {
		t.Errorf("capture = %+v, want 60s interval and auto_capture off", cfg.Capture)
	}
	if cfg.Retention.MaxImages != 100 || !cfg.Retention.ArchiveEnabled {
		t.Errorf("retention = %+v, want 100 images with archiving", cfg.Retention)
	}
	if cfg.Camera.Quality != 95 || cfg.Camera.Format != "jpg" {
		t.Errorf("camera = %+v, want quality 95 jpg", cfg.Camera)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:5000" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics should be enabled by default")
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Capture: CaptureConfig{Interval: 90_000_000_000},
		Storage: StorageConfig{Index: "sqlite"},
	}
	ApplyDefaults(cfg)

	if cfg.Capture.Interval.Seconds() != 90 {
		t.Errorf("interval = %v, want 90s", cfg.Capture.Interval)
	}
	if cfg.Storage.Index != "sqlite" {
		t.Errorf("index = %q, want sqlite", cfg.Storage.Index)
	}
	if cfg.Storage.BasePath != DefaultBasePath {
		t.Errorf("base path = %q, want default", cfg.Storage.BasePath)
	}
}

func TestCameraConfig_ParameterTable(t *testing.T) {
	cam := CameraConfig{Settings: map[string]twilight.Parameters{
		"night":    {Exposure: 8, Gain: 60},
		"Nautical": {Exposure: 1, Gain: 25},
		"bogus":    {Exposure: 99, Gain: 99},
	}}
	table := cam.ParameterTable()

	if got := table.For(twilight.Night); got != (twilight.Parameters{Exposure: 8, Gain: 60}) {
		t.Errorf("night = %v", got)
	}
	if got := table.For(twilight.Nautical); got != (twilight.Parameters{Exposure: 1, Gain: 25}) {
		t.Errorf("nautical = %v", got)
	}
	if got := table.For(twilight.Day); got != twilight.DefaultParameters().For(twilight.Day) {
		t.Errorf("day = %v, want built-in value", got)
	}
}

func TestConfig_CloneIsDeep(t *testing.T) {
	cfg := Default()
	cfg.Camera.Settings = map[string]twilight.Parameters{"night": {Exposure: 5, Gain: 40}}

	clone := cfg.Clone()
	clone.Camera.Settings["night"] = twilight.Parameters{Exposure: 1, Gain: 1}
	clone.Station.Latitude = 0

	if cfg.Camera.Settings["night"].Exposure != 5 {
		t.Error("modifying the clone's settings changed the original")
	}
	if cfg.Station.Latitude != DefaultLatitude {
		t.Error("modifying the clone's station changed the original")
	}
}
