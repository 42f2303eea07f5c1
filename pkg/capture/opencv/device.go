//go:build opencv

// Package opencv drives a camera through OpenCV. It is only built with the
// opencv build tag because it needs the OpenCV libraries at link time.
package opencv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/rockets-cn/allsky/pkg/capture"
	"github.com/rockets-cn/allsky/pkg/twilight"
)

// Device is a capture.Device backed by gocv.VideoCapture.
type Device struct {
	quality int

	mu sync.Mutex
	vc *gocv.VideoCapture
}

// Open opens camera id and requests a width x height frame size. Frames are
// encoded as JPEG at quality.
func Open(id, width, height, quality int) (*Device, error) {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", id, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera %d is not available", id)
	}
	if width > 0 && height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	return &Device{vc: vc, quality: quality}, nil
}

// Configure implements capture.Device.
func (d *Device) Configure(ctx context.Context, params twilight.Parameters) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.vc == nil {
		return errors.New("camera is closed")
	}
	d.vc.Set(gocv.VideoCaptureExposure, float64(params.Exposure))
	d.vc.Set(gocv.VideoCaptureGain, float64(params.Gain))
	return nil
}

// Read implements capture.Device.
func (d *Device) Read(ctx context.Context) (capture.Frame, error) {
	if err := ctx.Err(); err != nil {
		return capture.Frame{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.vc == nil {
		return capture.Frame{}, errors.New("camera is closed")
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if ok := d.vc.Read(&mat); !ok || mat.Empty() {
		return capture.Frame{}, errors.New("camera returned no frame")
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, d.quality})
	if err != nil {
		return capture.Frame{}, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	return capture.Frame{
		Data:   bytes.Clone(buf.GetBytes()),
		Width:  mat.Cols(),
		Height: mat.Rows(),
		Format: "jpg",
	}, nil
}

// Close implements capture.Device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.vc == nil {
		return nil
	}
	err := d.vc.Close()
	d.vc = nil
	return err
}
