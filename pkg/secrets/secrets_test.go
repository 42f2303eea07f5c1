package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("TEST_SECRET_OWM_API_KEY", "abc123")
	p := NewEnvProvider("TEST_SECRET_")

	got, err := p.GetSecret(context.Background(), "owm-api-key")
	if err != nil || got != "abc123" {
		t.Fatalf("GetSecret() = %q, %v; want abc123", got, err)
	}
	if _, err := p.GetSecret(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing secret error = %v, want ErrNotFound", err)
	}
}

func writeSecret(t *testing.T, dir, name, value string, mode os.FileMode) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(value), mode); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "owm-api-key", "  from-file\n", 0o600)
	writeSecret(t, dir, "loose", "x", 0o644)
	p := NewFileProvider(dir)
	ctx := context.Background()

	got, err := p.GetSecret(ctx, "owm-api-key")
	if err != nil || got != "from-file" {
		t.Fatalf("GetSecret() = %q, %v; want from-file", got, err)
	}

	tests := []struct {
		name     string
		secret   string
		notFound bool
	}{
		{"missing", "nope", true},
		{"insecure permissions", "loose", false},
		{"traversal", "../etc/passwd", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.GetSecret(ctx, tt.secret)
			if err == nil {
				t.Fatal("GetSecret() error = nil")
			}
			if errors.Is(err, ErrNotFound) != tt.notFound {
				t.Errorf("errors.Is(ErrNotFound) = %v, want %v (err = %v)", !tt.notFound, tt.notFound, err)
			}
		})
	}
}

type countingProvider struct {
	values map[string]string
	calls  int
	err    error
}

func (p *countingProvider) GetSecret(ctx context.Context, name string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	if v, ok := p.values[name]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (p *countingProvider) Name() string { return "counting" }

func TestManager_FallbackAndCache(t *testing.T) {
	first := &countingProvider{values: map[string]string{}}
	second := &countingProvider{values: map[string]string{"key": "v2"}}
	m := NewManager([]Provider{first, second}, time.Minute)

	for range 3 {
		got, err := m.GetSecret(context.Background(), "key")
		if err != nil || got != "v2" {
			t.Fatalf("GetSecret() = %q, %v", got, err)
		}
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("provider calls = %d, %d; want 1, 1", first.calls, second.calls)
	}
}

func TestManager_ProviderErrorStops(t *testing.T) {
	broken := &countingProvider{err: errors.New("permission denied")}
	backup := &countingProvider{values: map[string]string{"key": "v"}}
	m := NewManager([]Provider{broken, backup}, 0)

	if _, err := m.GetSecret(context.Background(), "key"); err == nil {
		t.Fatal("GetSecret() error = nil")
	}
	if backup.calls != 0 {
		t.Error("lookup continued after a provider failure")
	}
}

func TestManager_Resolve(t *testing.T) {
	p := &countingProvider{values: map[string]string{"a": "1", "b": "2"}}
	m := NewManager([]Provider{p}, 0)
	ctx := context.Background()

	got, err := m.Resolve(ctx, "${secret:a}-${secret:b}-plain")
	if err != nil || got != "1-2-plain" {
		t.Errorf("Resolve() = %q, %v", got, err)
	}

	got, err = m.Resolve(ctx, "${secret:a}/${secret:missing}")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
	if got != "1/${secret:missing}" {
		t.Errorf("Resolve() = %q, want unresolved reference kept", got)
	}

	if !HasReference("${secret:x}") || HasReference("plain") {
		t.Error("HasReference mismatch")
	}
}
