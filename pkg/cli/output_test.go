package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rockets-cn/allsky/pkg/imagestore"
)

func sampleRecords() ImageTable {
	return ImageTable{
		{
			Path:        "/images/2024/06/21/allsky_20240621_223000.jpg",
			CaptureTime: time.Date(2024, 6, 21, 22, 30, 0, 0, time.UTC),
			FileSize:    2048,
			Resolution:  imagestore.Resolution{Width: 1920, Height: 1080},
			Settings:    imagestore.ExposureSettings{Period: "night", Exposure: 5, Gain: 40},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "json", want: FormatJSON},
		{in: "csv", want: FormatCSV},
		{in: "yaml", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextFormatter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatText).FormatTo(buf, sampleRecords()); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header and one row:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "CAPTURED") {
		t.Errorf("header = %q", lines[0])
	}
	for _, want := range []string{"2024-06-21T22:30:00Z", "night", "2.0 KiB", "1920x1080"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q does not contain %q", lines[1], want)
		}
	}
}

func TestTextFormatter_Plain(t *testing.T) {
	out, err := (&TextFormatter{}).Format("captured 3 images")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(out) != "captured 3 images\n" {
		t.Errorf("Format() = %q", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	out, err := NewFormatter(FormatJSON).Format(sampleRecords())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	var got []imagestore.Record
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 1 || got[0].Settings.Gain != 40 {
		t.Errorf("records = %+v", got)
	}
}

func TestCSVFormatter(t *testing.T) {
	out, err := NewFormatter(FormatCSV).Format(KeyValues{{"images", "3"}, {"period", "night"}})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "KEY,VALUE\nimages,3\nperiod,night\n"
	if string(out) != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}

	if _, err := NewFormatter(FormatCSV).Format(42); err == nil {
		t.Error("Format(non-tabular) error = nil")
	}
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := HumanBytes(tt.n); got != tt.want {
			t.Errorf("HumanBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
