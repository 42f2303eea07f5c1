package imagestore

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/evanoberholster/imagemeta"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ProbeResolution decodes only the image header to get its size.
func ProbeResolution(r io.Reader) (Resolution, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Resolution{}, "", fmt.Errorf("failed to decode image header: %w", err)
	}
	return Resolution{Width: cfg.Width, Height: cfg.Height}, format, nil
}

// ProbeBytes is ProbeResolution for in-memory data.
func ProbeBytes(data []byte) (Resolution, string, error) {
	return ProbeResolution(bytes.NewReader(data))
}

// CaptureTimeOf returns the EXIF capture time of the file at path, trying
// DateTimeOriginal, CreateDate and ModifyDate in that order. The file's
// modification time is used when no EXIF date is present.
func CaptureTimeOf(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return time.Time{}, err
	}

	exifData, err := imagemeta.Decode(f)
	if err != nil {
		slog.Debug("no EXIF metadata, using modification time",
			"path", path,
			"error", err,
		)
		return info.ModTime(), nil
	}

	switch {
	case !exifData.DateTimeOriginal().IsZero():
		return exifData.DateTimeOriginal(), nil
	case !exifData.CreateDate().IsZero():
		return exifData.CreateDate(), nil
	case !exifData.ModifyDate().IsZero():
		return exifData.ModifyDate(), nil
	default:
		return info.ModTime(), nil
	}
}
