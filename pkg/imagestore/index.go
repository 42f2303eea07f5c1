package imagestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
)

// Index persists the set of records. Replace rewrites the whole index.
type Index interface {
	Load(ctx context.Context) ([]Record, error)
	Replace(ctx context.Context, records []Record) error
	Close() error
}

// JSONIndex stores records as a JSON object keyed by image path.
type JSONIndex struct {
	path string
}

// NewJSONIndex creates a JSON index at path.
func NewJSONIndex(path string) *JSONIndex {
	return &JSONIndex{path: path}
}

// Load implements Index. A missing file is an empty index.
func (j *JSONIndex) Load(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errpolicy.NewStorageError("read_index", j.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var byPath map[string]Record
	if err := json.Unmarshal(data, &byPath); err != nil {
		return nil, errpolicy.NewStorageError("decode_index", j.path, err)
	}

	records := make([]Record, 0, len(byPath))
	for path, r := range byPath {
		if r.Path == "" {
			r.Path = path
		}
		records = append(records, r)
	}
	sortByCaptureTime(records)
	return records, nil
}

// Replace implements Index. The file is replaced atomically.
func (j *JSONIndex) Replace(ctx context.Context, records []Record) error {
	byPath := make(map[string]Record, len(records))
	for _, r := range records {
		byPath[r.Path] = r
	}

	data, err := json.MarshalIndent(byPath, "", "  ")
	if err != nil {
		return errpolicy.NewStorageError("encode_index", j.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return errpolicy.NewStorageError("write_index", j.path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(j.path), ".metadata-*.json")
	if err != nil {
		return errpolicy.NewStorageError("write_index", j.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errpolicy.NewStorageError("write_index", j.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errpolicy.NewStorageError("write_index", j.path, err)
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		os.Remove(tmpName)
		return errpolicy.NewStorageError("write_index", j.path, err)
	}
	return nil
}

// Close implements Index.
func (j *JSONIndex) Close() error {
	return nil
}

// String implements fmt.Stringer.
func (j *JSONIndex) String() string {
	return fmt.Sprintf("json:%s", j.path)
}

// sortByCaptureTime orders records oldest first, ties by path.
func sortByCaptureTime(records []Record) {
	sort.Slice(records, func(a, b int) bool {
		ta, tb := records[a].CaptureTime, records[b].CaptureTime
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return records[a].Path < records[b].Path
	})
}
