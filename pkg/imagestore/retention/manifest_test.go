package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rockets-cn/allsky/pkg/imagestore"
)

func TestManifest_AppendConcatenatesFrames(t *testing.T) {
	m := NewManifest(t.TempDir())
	m.now = func() time.Time { return base }

	first := []ManifestEntry{{Record: imagestore.Record{Path: "/a.jpg"}, Action: ActionDelete, EvictedAt: base}}
	second := []ManifestEntry{
		{Record: imagestore.Record{Path: "/b.jpg"}, Action: ActionArchive, Destination: "/archive/b.jpg", EvictedAt: base},
		{Record: imagestore.Record{Path: "/c.jpg"}, Action: ActionArchive, Destination: "/archive/c.jpg", EvictedAt: base},
	}
	if err := m.Append(first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := m.Append(second); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := m.Append(nil); err != nil {
		t.Fatalf("Append(nil) error = %v", err)
	}

	entries, err := ReadManifest(m.PathFor(base))
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	want := []string{"/a.jpg", "/b.jpg", "/c.jpg"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Record.Path != want[i] {
			t.Errorf("entries[%d] = %s, want %s", i, e.Record.Path, want[i])
		}
	}
}

func TestManifest_PathForIsDaily(t *testing.T) {
	m := NewManifest("/var/allsky/archive")
	got := m.PathFor(time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC))
	want := filepath.Join("/var/allsky/archive", "manifest-20240309.jsonl.zst")
	if got != want {
		t.Errorf("PathFor() = %s, want %s", got, want)
	}
}

func TestReadManifest_Missing(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "none.jsonl.zst"))
	if !os.IsNotExist(err) {
		t.Errorf("ReadManifest() error = %v, want not-exist", err)
	}
}
