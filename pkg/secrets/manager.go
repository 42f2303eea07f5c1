package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultCacheSize = 64

var refPattern = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// HasReference reports whether s contains a ${secret:name} reference.
func HasReference(s string) bool {
	return refPattern.MatchString(s)
}

// Manager resolves secrets through an ordered list of providers.
type Manager struct {
	providers []Provider
	cache     *expirable.LRU[string, string]
	logger    *slog.Logger
}

// NewManager creates a manager. Resolved values are cached for ttl; a
// non-positive ttl disables caching.
func NewManager(providers []Provider, ttl time.Duration) *Manager {
	m := &Manager{
		providers: providers,
		logger:    slog.Default().With("component", "secrets"),
	}
	if ttl > 0 {
		m.cache = expirable.NewLRU[string, string](defaultCacheSize, nil, ttl)
	}
	return m
}

// GetSecret returns the value from the first provider that has it. A
// provider error other than ErrNotFound stops the search.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	if m.cache != nil {
		if v, ok := m.cache.Get(name); ok {
			return v, nil
		}
	}

	for _, p := range m.providers {
		value, err := p.GetSecret(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("provider %s: %w", p.Name(), err)
		}
		m.logger.Debug("secret resolved", "name", redactName(name), "provider", p.Name())
		if m.cache != nil {
			m.cache.Add(name, value)
		}
		return value, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Resolve replaces every ${secret:name} reference in input. On failure the
// unresolved references are kept and the first error is returned.
func (m *Manager) Resolve(ctx context.Context, input string) (string, error) {
	var firstErr error
	out := refPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := refPattern.FindStringSubmatch(match)[1]
		value, err := m.GetSecret(ctx, name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		return value
	})
	return out, firstErr
}

// redactName keeps only the first few characters of a secret name.
func redactName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:4] + "***"
}
