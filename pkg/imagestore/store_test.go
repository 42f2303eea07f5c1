package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

var testNow = time.Date(2024, 6, 21, 22, 30, 0, 0, time.UTC)

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{
		Layout: Layout{Base: filepath.Join(dir, "images"), Archive: filepath.Join(dir, "archive"), TZ: time.UTC},
		Now:    func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func saveAt(t *testing.T, s *Store, at time.Time) Record {
	t.Helper()
	rec, err := s.Save(context.Background(), Capture{
		Data:        testJPEG(t, 8, 6),
		Format:      "jpg",
		CaptureTime: at,
		Settings:    ExposureSettings{Period: "night", Exposure: 5, Gain: 40},
		Weather:     map[string]string{"Cloud Cover": "10%"},
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return rec
}

func TestStore_SaveLayoutAndIndex(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	rec := saveAt(t, s, testNow)

	want := filepath.Join(dir, "images", "2024", "06", "21", "allsky_20240621_223000.jpg")
	if rec.Path != want {
		t.Errorf("Path = %s, want %s", rec.Path, want)
	}
	if rec.ID == "" {
		t.Error("ID is empty")
	}
	if rec.Resolution != (Resolution{Width: 8, Height: 6}) {
		t.Errorf("Resolution = %+v, want 8x6", rec.Resolution)
	}
	if info, err := os.Stat(rec.Path); err != nil || info.Size() != rec.FileSize {
		t.Errorf("file stat = %v, %v; want size %d", info, err, rec.FileSize)
	}
	if _, err := os.Stat(filepath.Join(dir, "images", IndexFileName)); err != nil {
		t.Errorf("index file missing: %v", err)
	}
}

func TestStore_SameSecondDoesNotOverwrite(t *testing.T) {
	s := openTestStore(t, t.TempDir())

	a := saveAt(t, s, testNow)
	b := saveAt(t, s, testNow)

	if a.Path == b.Path {
		t.Fatalf("both saves wrote %s", a.Path)
	}
	if s.Count() != 2 {
		t.Errorf("Count() = %d, want 2", s.Count())
	}
}

func TestStore_LoadAllAfterRestartDropsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	var recs []Record
	for i := 0; i < 3; i++ {
		recs = append(recs, saveAt(t, s, testNow.Add(-time.Duration(i)*time.Minute)))
	}
	s.Close()

	if err := os.Remove(recs[1].Path); err != nil {
		t.Fatalf("os.Remove() error = %v", err)
	}

	reopened := openTestStore(t, dir)
	loaded, err := reopened.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadAll() returned %d records, want 2", len(loaded))
	}
	for _, r := range loaded {
		if r.Path == recs[1].Path {
			t.Errorf("record for deleted file %s still indexed", r.Path)
		}
	}
	if loaded[0].Weather["Cloud Cover"] != "10%" {
		t.Errorf("weather snapshot lost across restart: %v", loaded[0].Weather)
	}
}

func TestStore_CorruptIndexStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "images")
	os.MkdirAll(base, 0o755)
	os.WriteFile(filepath.Join(base, IndexFileName), []byte("{not json"), 0o644)

	s := openTestStore(t, dir)
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}
	saveAt(t, s, testNow)
	if s.Count() != 1 {
		t.Errorf("Count() after save = %d, want 1", s.Count())
	}
}

func TestStore_SaveAppliesHorizon(t *testing.T) {
	s := openTestStore(t, t.TempDir())

	old := saveAt(t, s, testNow.Add(-10*24*time.Hour))
	// Age the store's clock so the first record falls past the horizon.
	s.now = func() time.Time { return testNow.Add(25 * 24 * time.Hour) }
	saveAt(t, s, testNow.Add(25*24*time.Hour))

	if _, ok := s.Get(old.Path); ok {
		t.Error("record older than the horizon is still indexed")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestStore_Query(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	for i := 0; i < 10; i++ {
		saveAt(t, s, testNow.Add(-time.Duration(i)*time.Hour))
	}
	ctx := context.Background()

	all, err := s.Query(ctx, nil, nil, 0)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("Query() returned %d, want 10", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CaptureTime.After(all[i-1].CaptureTime) {
			t.Fatalf("Query() not newest first at %d", i)
		}
	}

	start := testNow.Add(-5 * time.Hour)
	end := testNow.Add(-2 * time.Hour)
	ranged, _ := s.Query(ctx, &start, &end, 0)
	if len(ranged) != 4 {
		t.Errorf("Query(range) returned %d, want 4", len(ranged))
	}

	limited, _ := s.Query(ctx, nil, nil, 3)
	if len(limited) != 3 || !limited[0].CaptureTime.Equal(testNow) {
		t.Errorf("Query(limit 3) = %d records, first %v", len(limited), limited[0].CaptureTime)
	}

	if _, err := s.Query(ctx, &end, &start, 0); err == nil {
		t.Error("Query(end before start) error = nil")
	}
}

func TestStore_PruneOlderThan(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	var recs []Record
	for i := 0; i < 5; i++ {
		recs = append(recs, saveAt(t, s, testNow.Add(-time.Duration(i)*24*time.Hour)))
	}

	removed, err := s.PruneOlderThan(context.Background(), testNow.Add(-36*time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if s.Count() != 2 {
		t.Errorf("Count() = %d, want 2", s.Count())
	}
	if _, err := os.Stat(recs[4].Path); err != nil {
		t.Errorf("pruned file was removed from disk: %v", err)
	}
}

func TestStore_DeleteAndForget(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	ctx := context.Background()
	a := saveAt(t, s, testNow)
	b := saveAt(t, s, testNow.Add(-time.Minute))

	if err := s.Delete(ctx, a.Path); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
		t.Errorf("deleted file still exists: %v", err)
	}
	if err := s.Delete(ctx, a.Path); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Forget(ctx, b.Path, "/nope.jpg"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}
	if _, err := os.Stat(b.Path); err != nil {
		t.Errorf("Forget removed the file: %v", err)
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	data := testJPEG(t, 4, 4)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Save(context.Background(), Capture{
				Data:        data,
				CaptureTime: testNow.Add(-time.Duration(i) * time.Second),
			})
			if err != nil {
				t.Errorf("Save(%d) error = %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	reopened := openTestStore(t, dir)
	if reopened.Count() != 20 {
		t.Errorf("reopened Count() = %d, want 20", reopened.Count())
	}
}

func TestStore_SaveRejectsEmptyData(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	if _, err := s.Save(context.Background(), Capture{}); err == nil {
		t.Error("Save(empty) error = nil")
	}
}

func TestStore_Stats(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	for i := 0; i < 4; i++ {
		saveAt(t, s, testNow.Add(-time.Duration(i)*time.Minute))
	}

	archived := filepath.Join(dir, "archive", "2024", "06", "20", "allsky_20240620_010000.jpg")
	os.MkdirAll(filepath.Dir(archived), 0o755)
	os.WriteFile(archived, []byte("old"), 0o644)

	stats, err := s.Stats(10)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.CurrentFiles != 4 {
		t.Errorf("CurrentFiles = %d, want 4", stats.CurrentFiles)
	}
	if stats.ArchiveFiles != 1 || stats.ArchiveSize != 3 {
		t.Errorf("archive = %d files / %d bytes, want 1 / 3", stats.ArchiveFiles, stats.ArchiveSize)
	}
	if stats.UsagePercent != 40 {
		t.Errorf("UsagePercent = %v, want 40", stats.UsagePercent)
	}
}

func TestStore_Statistics(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	for i := 0; i < 5; i++ {
		saveAt(t, s, testNow.Add(-time.Duration(i)*10*time.Hour))
	}

	st, err := s.Statistics(100)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if st.TotalImages != 5 {
		t.Errorf("TotalImages = %d, want 5", st.TotalImages)
	}
	if st.Recent24h != 3 {
		t.Errorf("Recent24h = %d, want 3", st.Recent24h)
	}
	if st.Newest == nil || !st.Newest.Equal(testNow) {
		t.Errorf("Newest = %v, want %v", st.Newest, testNow)
	}
}

func TestStore_Import(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	src := filepath.Join(dir, "incoming.jpg")
	if err := os.WriteFile(src, testJPEG(t, 12, 9), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := testNow.Add(-2 * time.Hour)
	os.Chtimes(src, mtime, mtime)

	rec, err := s.Import(context.Background(), src, ExposureSettings{Period: "day"})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !rec.CaptureTime.Equal(mtime) {
		t.Errorf("CaptureTime = %v, want file mtime %v", rec.CaptureTime, mtime)
	}
	if rec.Resolution != (Resolution{Width: 12, Height: 9}) {
		t.Errorf("Resolution = %+v, want 12x9", rec.Resolution)
	}
	want := fmt.Sprintf("allsky_%s.jpg", mtime.UTC().Format("20060102_150405"))
	if filepath.Base(rec.Path) != want {
		t.Errorf("file name = %s, want %s", filepath.Base(rec.Path), want)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("Import removed the source: %v", err)
	}
}

func TestStore_ImportRejectsPastHorizon(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	src := filepath.Join(dir, "old.jpg")
	if err := os.WriteFile(src, testJPEG(t, 8, 6), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := testNow.Add(-40 * 24 * time.Hour)
	os.Chtimes(src, mtime, mtime)

	_, err := s.Import(context.Background(), src, ExposureSettings{Period: "night"})
	if !errors.Is(err, ErrPastHorizon) {
		t.Fatalf("Import() error = %v, want ErrPastHorizon", err)
	}
	copied := s.Layout().PathFor(mtime, "jpg")
	if _, statErr := os.Stat(copied); !os.IsNotExist(statErr) {
		t.Errorf("image past the horizon was copied to %s", copied)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}
}

// pausingIndex blocks Load until release is closed.
type pausingIndex struct {
	Index
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *pausingIndex) Load(ctx context.Context) ([]Record, error) {
	p.once.Do(func() { close(p.entered) })
	<-p.release
	return p.Index.Load(ctx)
}

func TestStore_SaveDuringLoadAllIsKept(t *testing.T) {
	dir := t.TempDir()
	layout := Layout{Base: filepath.Join(dir, "images"), TZ: time.UTC}
	s, err := Open(context.Background(), Options{
		Layout: layout,
		Now:    func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	saveAt(t, s, testNow.Add(-time.Hour))

	idx := &pausingIndex{
		Index:   NewJSONIndex(layout.IndexPath()),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s.index = idx

	loadDone := make(chan error, 1)
	go func() {
		_, err := s.LoadAll(context.Background())
		loadDone <- err
	}()
	<-idx.entered

	type saveResult struct {
		rec Record
		err error
	}
	saved := make(chan saveResult, 1)
	go func() {
		rec, err := s.Save(context.Background(), Capture{
			Data:        testJPEG(t, 8, 6),
			CaptureTime: testNow.Add(-30 * time.Minute),
		})
		saved <- saveResult{rec, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(idx.release)

	if err := <-loadDone; err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	res := <-saved
	if res.err != nil {
		t.Fatalf("Save() error = %v", res.err)
	}
	b := res.rec
	saveAt(t, s, testNow)

	if _, ok := s.Get(b.Path); !ok {
		t.Errorf("record %s saved during LoadAll is missing from memory", b.Path)
	}
	persisted, err := NewJSONIndex(layout.IndexPath()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(persisted) != 3 {
		t.Errorf("persisted index has %d records, want 3", len(persisted))
	}
}

func TestStore_CutoffUsesStoreClock(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	if s.Horizon() != DefaultHorizon {
		t.Errorf("Horizon() = %v, want %v", s.Horizon(), DefaultHorizon)
	}
	if want := testNow.Add(-DefaultHorizon); !s.Cutoff().Equal(want) {
		t.Errorf("Cutoff() = %v, want %v", s.Cutoff(), want)
	}
}
