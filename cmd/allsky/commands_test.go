package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/rockets-cn/allsky/pkg/capture"
	"github.com/rockets-cn/allsky/pkg/cli"
	"github.com/rockets-cn/allsky/pkg/imagestore"
)

// writeConfig writes a small station configuration into a temp dir and
// points --config at it.
func writeConfig(t *testing.T, maxImages int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigAt(t, path, dir, maxImages)

	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })
	return dir
}

func writeConfigAt(t *testing.T, path, dir string, maxImages int) {
	t.Helper()
	data := fmt.Sprintf(`station:
  name: test
  timezone: UTC
camera:
  width: 64
  height: 48
  retry_delay: 1ms
storage:
  base_path: %s
  archive_path: %s
retention:
  max_images: %d
  schedule: ""
telemetry:
  logging:
    level: error
`, filepath.Join(dir, "images"), filepath.Join(dir, "archive"), maxImages)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestCmd(name string) (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{Use: name}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	return cmd, &buf
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"run", "capture", "images", "import", "prune", "stats", "config", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered (err = %v)", name, err)
		}
	}
	if cmd, _, err := rootCmd.Find([]string{"config", "validate"}); err != nil || cmd != configValidateCmd {
		t.Errorf("config validate not registered (err = %v)", err)
	}
}

func TestCaptureAndList(t *testing.T) {
	writeConfig(t, 2)
	captureFlags.output = "json"
	imagesFlags.output = "json"
	imagesFlags.since, imagesFlags.until, imagesFlags.limit = "", "", 0

	for i := 0; i < 3; i++ {
		cmd, buf := newTestCmd("capture")
		if err := runCapture(cmd, nil); err != nil {
			t.Fatalf("capture %d: %v", i, err)
		}
		var recs []imagestore.Record
		if err := json.Unmarshal(buf.Bytes(), &recs); err != nil || len(recs) != 1 {
			t.Fatalf("capture output = %s (err = %v)", buf, err)
		}
	}

	cmd, buf := newTestCmd("images")
	if err := listImages(cmd, nil); err != nil {
		t.Fatalf("images: %v", err)
	}
	var recs []imagestore.Record
	if err := json.Unmarshal(buf.Bytes(), &recs); err != nil {
		t.Fatalf("images output = %s: %v", buf, err)
	}
	if len(recs) != 2 {
		t.Errorf("images = %d, want 2 after retention", len(recs))
	}
}

func TestListImages_BadTime(t *testing.T) {
	writeConfig(t, 10)
	imagesFlags.since = "yesterday"
	t.Cleanup(func() { imagesFlags.since = "" })

	cmd, _ := newTestCmd("images")
	err := listImages(cmd, nil)
	if err == nil {
		t.Fatal("images accepted an invalid --since")
	}
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("ExitCode = %d, want %d", cli.ExitCode(err), cli.ExitConfig)
	}
}

func TestPrune(t *testing.T) {
	dir := writeConfig(t, 0)
	captureFlags.output = "text"
	for i := 0; i < 3; i++ {
		cmd, _ := newTestCmd("capture")
		if err := runCapture(cmd, nil); err != nil {
			t.Fatalf("capture %d: %v", i, err)
		}
	}

	writeConfigAt(t, cfgFile, dir, 1)

	pruneFlags.dryRun = true
	cmd, buf := newTestCmd("prune")
	if err := runPrune(cmd, nil); err != nil {
		t.Fatalf("prune --dry-run: %v", err)
	}
	if !strings.Contains(buf.String(), "Would evict 2 images") {
		t.Errorf("dry run output = %q", buf)
	}

	pruneFlags.dryRun = false
	cmd, buf = newTestCmd("prune")
	if err := runPrune(cmd, nil); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(buf.String(), "Archived 2") {
		t.Errorf("prune output = %q", buf)
	}
}

func TestStats(t *testing.T) {
	writeConfig(t, 10)
	captureFlags.output = "text"
	cmd, _ := newTestCmd("capture")
	if err := runCapture(cmd, nil); err != nil {
		t.Fatalf("capture: %v", err)
	}

	statsFlags.output = "text"
	cmd, buf := newTestCmd("stats")
	if err := runStats(cmd, nil); err != nil {
		t.Fatalf("stats: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"total_images", "ceiling", "10"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestImport(t *testing.T) {
	writeConfig(t, 10)
	src := t.TempDir()
	dev := capture.NewPatternDevice(40, 30, 80)
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	for i, name := range []string{"a.jpg", "nested/b.jpg", "stale.jpg"} {
		frame, err := dev.Read(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(src, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, frame.Data, 0o644); err != nil {
			t.Fatal(err)
		}
		// Local midnight at the default station longitude.
		mtime := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 16, i, 0, 0, time.UTC)
		if name == "stale.jpg" {
			mtime = mtime.AddDate(0, 0, -40)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}

	importFlags.quiet = true
	cmd, buf := newTestCmd("import")
	if err := runImport(cmd, []string{src}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(buf.String(), "Imported 2 of 3 images (1 failed)") {
		t.Errorf("import output = %q", buf)
	}

	imagesFlags.output = "json"
	imagesFlags.since, imagesFlags.until, imagesFlags.limit = "", "", 0
	cmd, buf = newTestCmd("images")
	if err := listImages(cmd, nil); err != nil {
		t.Fatalf("images: %v", err)
	}
	var recs []imagestore.Record
	if err := json.Unmarshal(buf.Bytes(), &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("images = %d, want 2", len(recs))
	}
	for _, r := range recs {
		if r.Settings.Period != "night" {
			t.Errorf("%s period = %q, want night", r.Path, r.Settings.Period)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	dir := writeConfig(t, 10)

	cmd, buf := newTestCmd("validate")
	if err := validateConfig(cmd, nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(buf.String(), "is valid") {
		t.Errorf("output = %q", buf)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("station:\n  latitude: 123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgFile = bad
	cmd, buf = newTestCmd("validate")
	err := validateConfig(cmd, nil)
	if err == nil {
		t.Fatal("validate accepted latitude 123")
	}
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("ExitCode = %d, want %d", cli.ExitCode(err), cli.ExitConfig)
	}
	if !strings.Contains(buf.String(), "station.latitude") {
		t.Errorf("output does not name the field: %q", buf)
	}
}

func TestLoadStore_MissingDefaultUsesDefaults(t *testing.T) {
	orig := cfgFile
	cfgFile = defaultConfigFile
	t.Cleanup(func() { cfgFile = orig })
	t.Chdir(t.TempDir())

	store, path, err := loadStore(nil)
	if err != nil {
		t.Fatalf("loadStore() error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want defaults", path)
	}
	if got := store.Config().Station.Name; got != "allsky" {
		t.Errorf("station name = %q, want default", got)
	}
}

func TestParseTimeFlag(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Time
		wantNil bool
		wantErr bool
	}{
		{value: "", wantNil: true},
		{value: "2024-06-21T18:00:00Z", want: time.Date(2024, 6, 21, 18, 0, 0, 0, time.UTC)},
		{value: "2024-06-21", want: time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)},
		{value: "21/06/2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseTimeFlag("since", tt.value, time.UTC)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
				return
			}
			if got == nil || !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
