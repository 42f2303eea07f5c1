package imagestore

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLayout_Paths(t *testing.T) {
	l := Layout{Base: "/data/images", Archive: "/data/archive", TZ: time.FixedZone("CST", 8*3600)}
	at := time.Date(2024, 6, 21, 17, 30, 5, 0, time.UTC) // 01:30:05 next day in CST

	if got, want := l.Dir(at), filepath.Join("/data/images", "2024", "06", "22"); got != want {
		t.Errorf("Dir() = %s, want %s", got, want)
	}
	if got, want := l.FileName(at, ".JPEG"), "allsky_20240622_013005.jpg"; got != want {
		t.Errorf("FileName() = %s, want %s", got, want)
	}

	archived, err := l.ArchivePathFor("/data/images/2024/06/22/allsky_20240622_013005.jpg")
	if err != nil {
		t.Fatalf("ArchivePathFor() error = %v", err)
	}
	if want := "/data/archive/2024/06/22/allsky_20240622_013005.jpg"; archived != want {
		t.Errorf("ArchivePathFor() = %s, want %s", archived, want)
	}

	if _, err := l.ArchivePathFor("/etc/passwd"); err == nil {
		t.Error("ArchivePathFor(outside base) error = nil")
	}
}

func TestIsImageFile(t *testing.T) {
	tests := map[string]bool{
		"a.jpg":         true,
		"b.JPEG":        true,
		"c.webp":        true,
		"metadata.json": false,
		"metadata.db":   false,
		".tmp-123":      false,
	}
	for name, want := range tests {
		if got := IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}
