package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
)

// DefaultHorizon is how long records stay in the index.
const DefaultHorizon = 30 * 24 * time.Hour

// ErrNotFound is returned for paths that are not indexed.
var ErrNotFound = errors.New("image not found")

// ErrPastHorizon is returned by Import for images captured before the
// index horizon. Such images would be dropped from the index on the next
// rewrite, so they are not copied.
var ErrPastHorizon = errors.New("capture time is past the index horizon")

// Options configures a Store.
type Options struct {
	Layout Layout

	// Index persists records. Default: JSON file at Layout.IndexPath().
	Index Index

	// Horizon drops records older than this from the index on every
	// rewrite. Default: 30 days.
	Horizon time.Duration

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Store is the metadata store. It owns the image files below the base
// directory and the index that describes them.
type Store struct {
	layout  Layout
	index   Index
	horizon time.Duration
	now     func() time.Time
	logger  *slog.Logger

	// mu is the single writer lock. Readers take RLock.
	mu      sync.RWMutex
	records map[string]Record
}

// Open creates the base directory, loads the index and reconciles it with
// the files on disk. A corrupt index is logged and treated as empty.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Layout.Base == "" {
		return nil, errpolicy.NewConfigurationError("storage.base_path", "base path is required")
	}
	if opts.Index == nil {
		opts.Index = NewJSONIndex(opts.Layout.IndexPath())
	}
	if opts.Horizon <= 0 {
		opts.Horizon = DefaultHorizon
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	for _, dir := range []string{opts.Layout.Base, opts.Layout.Archive} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errpolicy.NewStorageError("create_directory", dir, err)
		}
	}

	s := &Store{
		layout:  opts.Layout,
		index:   opts.Index,
		horizon: opts.Horizon,
		now:     opts.Now,
		records: make(map[string]Record),
		logger:  slog.Default().With("component", "imagestore"),
	}

	if _, err := s.LoadAll(ctx); err != nil {
		s.logger.Error("failed to load index, starting empty", "error", err)
	}
	return s, nil
}

// Layout returns the store's directory layout.
func (s *Store) Layout() Layout {
	return s.layout
}

// Horizon returns how long records stay in the index.
func (s *Store) Horizon() time.Duration {
	return s.horizon
}

// Cutoff returns the oldest capture time the index keeps, by the store's
// clock.
func (s *Store) Cutoff() time.Time {
	return s.now().Add(-s.horizon)
}

// Save writes c to its date-partitioned path, adds a record and rewrites the
// index. Any failure aborts this save only; the written file is removed.
func (s *Store) Save(ctx context.Context, c Capture) (Record, error) {
	if len(c.Data) == 0 {
		return Record{}, errpolicy.NewStorageError("save", "", errors.New("empty image data"))
	}
	if c.CaptureTime.IsZero() {
		c.CaptureTime = s.now()
	}
	if c.Format == "" {
		c.Format = "jpg"
	}
	if c.Resolution == (Resolution{}) {
		if res, _, err := ProbeBytes(c.Data); err == nil {
			c.Resolution = res
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.layout.PathFor(c.CaptureTime, c.Format)
	if err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(c.Data)
		return err
	}); err != nil {
		return Record{}, errpolicy.NewStorageError("write_image", path, err)
	}

	return s.commitLocked(ctx, path, c)
}

// Import copies an existing image file into the store. The capture time is
// read from EXIF, falling back to the file's modification time. Images
// captured before Cutoff are rejected with ErrPastHorizon and not copied.
func (s *Store) Import(ctx context.Context, src string, settings ExposureSettings) (Record, error) {
	in, err := os.Open(src)
	if err != nil {
		return Record{}, errpolicy.NewStorageError("open_import", src, err)
	}
	defer in.Close()

	res, _, err := ProbeResolution(in)
	if err != nil {
		return Record{}, errpolicy.NewStorageError("probe_import", src, err)
	}
	captured, err := CaptureTimeOf(src)
	if err != nil {
		return Record{}, errpolicy.NewStorageError("probe_import", src, err)
	}
	if cutoff := s.Cutoff(); captured.Before(cutoff) {
		return Record{}, errpolicy.NewStorageError("import", src,
			fmt.Errorf("%w: captured %s, cutoff %s", ErrPastHorizon,
				captured.Format(time.RFC3339), cutoff.Format(time.RFC3339)))
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return Record{}, errpolicy.NewStorageError("open_import", src, err)
	}

	ext := strings.TrimPrefix(filepath.Ext(src), ".")
	c := Capture{CaptureTime: captured, Format: ext, Resolution: res, Settings: settings}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.layout.PathFor(c.CaptureTime, c.Format)
	if err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}); err != nil {
		return Record{}, errpolicy.NewStorageError("copy_image", path, err)
	}

	return s.commitLocked(ctx, path, c)
}

// commitLocked indexes a file that was just written. Caller holds s.mu.
func (s *Store) commitLocked(ctx context.Context, path string, c Capture) (Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Record{}, errpolicy.NewStorageError("stat_image", path, err)
	}

	rec := Record{
		ID:          uuid.NewString(),
		Path:        path,
		CaptureTime: c.CaptureTime,
		FileSize:    info.Size(),
		Resolution:  c.Resolution,
		Settings:    c.Settings,
		Weather:     c.Weather,
		Astronomy:   c.Astronomy,
	}

	s.records[path] = rec
	if err := s.persistLocked(ctx); err != nil {
		delete(s.records, path)
		os.Remove(path)
		return Record{}, err
	}

	s.logger.Info("image saved",
		"image_path", path,
		"period", c.Settings.Period,
		"file_size", rec.FileSize,
	)
	return rec, nil
}

// persistLocked drops records past the horizon or missing on disk, then
// rewrites the index. Caller holds s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	cutoff := s.now().Add(-s.horizon)
	for path, r := range s.records {
		if r.CaptureTime.Before(cutoff) || !fileExists(path) {
			delete(s.records, path)
		}
	}
	return s.index.Replace(ctx, s.sortedLocked())
}

// LoadAll reloads the index and reconciles it with the filesystem. Records
// whose file no longer exists are dropped without error. The result is
// ordered oldest first. The writer lock is held from the read to the swap
// so a concurrent Save cannot be overwritten by an older index.
func (s *Store) LoadAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.index.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.records = make(map[string]Record, len(loaded))
	dropped := 0
	for _, r := range loaded {
		if !fileExists(r.Path) {
			dropped++
			continue
		}
		s.records[r.Path] = r
	}

	if dropped > 0 {
		s.logger.Info("dropped index entries with missing files", "count", dropped)
		if err := s.index.Replace(ctx, s.sortedLocked()); err != nil {
			s.logger.Warn("failed to rewrite reconciled index", "error", err)
		}
	}
	return s.sortedLocked(), nil
}

// Records returns the indexed records, oldest first.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// Count returns the number of indexed records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record for path.
func (s *Store) Get(path string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[path]
	return r, ok
}

// Query returns records captured in [start, end], newest first. Nil bounds
// are open. A non-positive limit returns all matches.
func (s *Store) Query(ctx context.Context, start, end *time.Time, limit int) ([]Record, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, fmt.Errorf("invalid range: end %s before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if start != nil && r.CaptureTime.Before(*start) {
			continue
		}
		if end != nil && r.CaptureTime.After(*end) {
			continue
		}
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool {
		ta, tb := out[a].CaptureTime, out[b].CaptureTime
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return out[a].Path > out[b].Path
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PruneOlderThan removes records captured before cutoff from the index.
// Image files are left in place; file eviction belongs to the retention
// policy.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for path, r := range s.records {
		if r.CaptureTime.Before(cutoff) {
			delete(s.records, path)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.index.Replace(ctx, s.sortedLocked()); err != nil {
		return removed, err
	}
	s.logger.Info("pruned index", "removed", removed, "cutoff", cutoff.Format(time.RFC3339))
	return removed, nil
}

// Delete removes an image file and its record.
func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[path]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errpolicy.NewStorageError("delete_image", path, err)
	}
	delete(s.records, path)
	return s.index.Replace(ctx, s.sortedLocked())
}

// Forget drops records from the index without touching files. Unknown
// paths are ignored.
func (s *Store) Forget(ctx context.Context, paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, p := range paths {
		if _, ok := s.records[p]; ok {
			delete(s.records, p)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.index.Replace(ctx, s.sortedLocked())
}

// Stats walks the image and archive directories.
func (s *Store) Stats(ceiling int) (StorageStats, error) {
	files, size, err := dirUsage(s.layout.Base)
	if err != nil {
		return StorageStats{}, errpolicy.NewStorageError("stat_directory", s.layout.Base, err)
	}

	stats := StorageStats{
		CurrentFiles: files,
		CurrentSize:  size,
		Ceiling:      ceiling,
	}

	// The archive may live below the base directory; don't count it twice.
	if s.layout.Archive != "" {
		stats.ArchiveFiles, stats.ArchiveSize, err = dirUsage(s.layout.Archive)
		if err != nil {
			return StorageStats{}, errpolicy.NewStorageError("stat_directory", s.layout.Archive, err)
		}
		if _, relErr := s.layout.Rel(s.layout.Archive); relErr == nil {
			stats.CurrentFiles -= stats.ArchiveFiles
			stats.CurrentSize -= stats.ArchiveSize
		}
	}

	if ceiling > 0 {
		stats.UsagePercent = float64(stats.CurrentFiles) / float64(ceiling) * 100
	}
	return stats, nil
}

// Statistics summarizes the index and the storage usage.
func (s *Store) Statistics(ceiling int) (Statistics, error) {
	records := s.Records()
	since := s.now().Add(-24 * time.Hour)

	st := Statistics{TotalImages: len(records)}
	for _, r := range records {
		if r.CaptureTime.After(since) {
			st.Recent24h++
		}
	}
	if len(records) > 0 {
		oldest, newest := records[0].CaptureTime, records[len(records)-1].CaptureTime
		st.Oldest, st.Newest = &oldest, &newest
	}

	storage, err := s.Stats(ceiling)
	if err != nil {
		return st, err
	}
	st.Storage = storage
	return st, nil
}

// Close closes the index.
func (s *Store) Close() error {
	return s.index.Close()
}

func (s *Store) sortedLocked() []Record {
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sortByCaptureTime(out)
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
