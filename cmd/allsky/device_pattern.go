//go:build !opencv

package main

import (
	"github.com/rockets-cn/allsky/pkg/capture"
	"github.com/rockets-cn/allsky/pkg/cli"
	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/station"
)

func newDevice(cfg config.CameraConfig) (capture.Device, error) {
	if cfg.Backend == "opencv" {
		return nil, cli.NewConfigError("camera.backend",
			"this binary was built without OpenCV support; rebuild with -tags opencv")
	}
	return station.NewPatternDevice(cfg), nil
}
