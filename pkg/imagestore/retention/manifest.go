package retention

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/rockets-cn/allsky/pkg/imagestore"
)

// ManifestEntry is one evicted record.
type ManifestEntry struct {
	Record      imagestore.Record `json:"record"`
	Action      Action            `json:"action"`
	Destination string            `json:"destination,omitempty"`
	EvictedAt   time.Time         `json:"evicted_at"`
}

// Manifest appends evicted records to daily zstd-compressed JSON-lines
// files. Each Append writes one zstd frame; readers decode the
// concatenated frames as a single stream.
type Manifest struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewManifest creates a manifest writer storing files in dir.
func NewManifest(dir string) *Manifest {
	return &Manifest{dir: dir, now: time.Now}
}

// PathFor returns the manifest file for the day containing t.
func (m *Manifest) PathFor(t time.Time) string {
	return filepath.Join(m.dir, fmt.Sprintf("manifest-%s.jsonl.zst", t.Format("20060102")))
}

// Append writes entries to today's manifest.
func (m *Manifest) Append(entries []ManifestEntry) error {
	if len(entries) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	path := m.PathFor(m.now())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	jsonEnc := json.NewEncoder(enc)
	for _, e := range entries {
		if err := jsonEnc.Encode(e); err != nil {
			enc.Close()
			return fmt.Errorf("failed to write manifest entry: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush manifest: %w", err)
	}
	return f.Close()
}

// ReadManifest decodes every entry in a manifest file.
func ReadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	var entries []ManifestEntry
	jsonDec := json.NewDecoder(dec)
	for {
		var e ManifestEntry
		err := jsonDec.Decode(&e)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, fmt.Errorf("failed to decode manifest entry: %w", err)
		}
		entries = append(entries, e)
	}
}
