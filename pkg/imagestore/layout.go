package imagestore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultPrefix is the file name prefix for captured images.
	DefaultPrefix = "allsky"

	// IndexFileName is the JSON index file at the base root.
	IndexFileName = "metadata.json"

	// SQLiteFileName is the SQLite index file at the base root.
	SQLiteFileName = "metadata.db"
)

// imageExtensions lists the file types counted as images.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsImageFile reports whether name has an image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Layout resolves where images, archives and the index live.
type Layout struct {
	Base    string
	Archive string
	Prefix  string

	// TZ selects the calendar used for directory partitioning. Nil means
	// the capture time's own location.
	TZ *time.Location
}

func (l Layout) prefix() string {
	if l.Prefix == "" {
		return DefaultPrefix
	}
	return l.Prefix
}

// Dir returns the YYYY/MM/DD directory for t.
func (l Layout) Dir(t time.Time) string {
	if l.TZ != nil {
		t = t.In(l.TZ)
	}
	return filepath.Join(l.Base, t.Format("2006"), t.Format("01"), t.Format("02"))
}

// FileName returns <prefix>_<YYYYMMDD_HHMMSS>.<ext> for t.
func (l Layout) FileName(t time.Time, ext string) string {
	if l.TZ != nil {
		t = t.In(l.TZ)
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s_%s.%s", l.prefix(), t.Format("20060102_150405"), ext)
}

// PathFor returns the full path for an image captured at t. When that path
// is taken, a numeric suffix is added so an earlier image is never
// overwritten.
func (l Layout) PathFor(t time.Time, ext string) string {
	dir := l.Dir(t)
	name := l.FileName(t, ext)
	candidate := filepath.Join(dir, name)

	base := strings.TrimSuffix(name, filepath.Ext(name))
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, filepath.Ext(name)))
	}
}

// Rel returns path relative to the base directory. It fails for paths
// outside the base.
func (l Layout) Rel(path string) (string, error) {
	rel, err := filepath.Rel(l.Base, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside %s", path, l.Base)
	}
	return rel, nil
}

// ArchivePathFor maps an image path to its mirrored archive location.
func (l Layout) ArchivePathFor(path string) (string, error) {
	rel, err := l.Rel(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.Archive, rel), nil
}

// IndexPath returns the JSON index path.
func (l Layout) IndexPath() string {
	return filepath.Join(l.Base, IndexFileName)
}

// SQLitePath returns the SQLite index path.
func (l Layout) SQLitePath() string {
	return filepath.Join(l.Base, SQLiteFileName)
}

// dirUsage counts image files and their total size below root. A missing
// root counts as empty.
func dirUsage(root string) (files int, size int64, err error) {
	if root == "" {
		return 0, 0, nil
	}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || !IsImageFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files++
		size += info.Size()
		return nil
	})
	return files, size, err
}
