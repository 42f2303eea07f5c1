package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	"github.com/rockets-cn/allsky/pkg/twilight"
)

// ErrDeviceClosed is returned by reads after Close.
var ErrDeviceClosed = errors.New("device closed")

// PatternDevice is a Device that renders a radial sky gradient instead of
// reading hardware. Brightness follows exposure and gain, so period changes
// are visible in the output. Used when no camera is attached.
type PatternDevice struct {
	Width   int
	Height  int
	Quality int

	mu     sync.Mutex
	params twilight.Parameters
	closed bool
}

// NewPatternDevice creates a pattern device producing width x height JPEGs.
func NewPatternDevice(width, height, quality int) *PatternDevice {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return &PatternDevice{Width: width, Height: height, Quality: quality}
}

// Configure implements Device.
func (p *PatternDevice) Configure(ctx context.Context, params twilight.Parameters) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrDeviceClosed
	}
	p.params = params
	return nil
}

// Read implements Device.
func (p *PatternDevice) Read(ctx context.Context) (Frame, error) {
	p.mu.Lock()
	params, closed := p.params, p.closed
	p.mu.Unlock()

	if closed {
		return Frame{}, ErrDeviceClosed
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	// Map exposure [-13, 13] and gain [0, 100] onto a 0-255 base level.
	level := 128 + params.Exposure*8 + params.Gain/2
	level = max(0, min(255, level))

	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	cx, cy := p.Width/2, p.Height/2
	radius := max(1, min(cx, cy))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			dx, dy := x-cx, y-cy
			falloff := (dx*dx + dy*dy) * 96 / (radius * radius)
			img.SetGray(x, y, color.Gray{Y: uint8(max(0, level-falloff))})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.Quality}); err != nil {
		return Frame{}, fmt.Errorf("failed to encode frame: %w", err)
	}
	return Frame{Data: buf.Bytes(), Width: p.Width, Height: p.Height, Format: "jpg"}, nil
}

// Close implements Device.
func (p *PatternDevice) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
