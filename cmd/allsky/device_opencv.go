//go:build opencv

package main

import (
	"github.com/rockets-cn/allsky/pkg/capture"
	"github.com/rockets-cn/allsky/pkg/capture/opencv"
	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/station"
)

func newDevice(cfg config.CameraConfig) (capture.Device, error) {
	if cfg.Backend != "opencv" {
		return station.NewPatternDevice(cfg), nil
	}
	dev, err := opencv.Open(cfg.DeviceID, cfg.Width, cfg.Height, cfg.Quality)
	if err != nil {
		return nil, err
	}
	return dev, nil
}
