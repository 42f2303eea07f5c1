package station

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/rockets-cn/allsky/pkg/capture"
	"github.com/rockets-cn/allsky/pkg/weather"
)

// TextOverlay returns an Overlay that stamps capture details in the top
// left corner of the frame. Frames are re-encoded at quality.
func TextOverlay(quality int) Overlay {
	return func(ctx context.Context, frame capture.Frame, info CaptureInfo) (capture.Frame, error) {
		src, _, err := image.Decode(bytes.NewReader(frame.Data))
		if err != nil {
			return frame, fmt.Errorf("failed to decode frame: %w", err)
		}

		dst := image.NewRGBA(src.Bounds())
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		drawLines(dst, overlayLines(info))

		var buf bytes.Buffer
		switch strings.ToLower(frame.Format) {
		case "png":
			err = png.Encode(&buf, dst)
		default:
			err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
		}
		if err != nil {
			return frame, fmt.Errorf("failed to encode frame: %w", err)
		}
		frame.Data = buf.Bytes()
		return frame, nil
	}
}

func overlayLines(info CaptureInfo) []string {
	lines := []string{
		info.StationName,
		info.Time.Format("2006-01-02 15:04:05 MST"),
		fmt.Sprintf("%s  %s", info.Resolution.Period, info.Resolution.Parameters),
	}
	var wx []string
	for _, key := range []string{weather.KeyCloudCover, weather.KeyTemperature, weather.KeyHumidity} {
		if v := info.Weather.Get(key); v != "" && v != weather.NotAvailable {
			wx = append(wx, key+": "+v)
		}
	}
	if len(wx) > 0 {
		lines = append(lines, strings.Join(wx, "  "))
	}
	return lines
}

func drawLines(dst *image.RGBA, lines []string) {
	face := basicfont.Face7x13
	const pad = 4
	lineHeight := face.Metrics().Height.Ceil()

	d := &font.Drawer{Dst: dst, Src: image.White, Face: face}
	width := 0
	for _, l := range lines {
		width = max(width, d.MeasureString(l).Ceil())
	}

	box := image.Rect(0, 0, width+2*pad, len(lines)*lineHeight+2*pad).Intersect(dst.Bounds())
	draw.Draw(dst, box, image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Over)

	for i, l := range lines {
		d.Dot = fixed.P(pad, pad+(i+1)*lineHeight-face.Descent)
		d.DrawString(l)
	}
}
