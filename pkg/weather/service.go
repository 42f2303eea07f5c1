package weather

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/fetchcache"
)

const (
	// DefaultTTL is how long a snapshot stays fresh.
	DefaultTTL = 300 * time.Second

	// DefaultClearSkyThreshold is the highest cloud cover, in percent,
	// still considered clear.
	DefaultClearSkyThreshold = 50.0
)

// Provider fetches current conditions for a location.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, lat, lon float64) (Snapshot, error)
}

// Options configures a Service.
type Options struct {
	TTL               time.Duration
	ClearSkyThreshold float64
	Observer          fetchcache.Observer
	Recorder          *errpolicy.Recorder
	Now               func() time.Time
}

// Service serves cached weather snapshots.
type Service struct {
	cache     *fetchcache.Cache[fetchcache.LocationKey, Snapshot]
	recorder  *errpolicy.Recorder
	threshold float64
	logger    *slog.Logger

	mu       sync.RWMutex
	provider Provider
}

// NewService creates a weather service around provider.
func NewService(provider Provider, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.ClearSkyThreshold <= 0 {
		opts.ClearSkyThreshold = DefaultClearSkyThreshold
	}
	return &Service{
		cache: fetchcache.New[fetchcache.LocationKey, Snapshot]("weather", opts.TTL, fetchcache.Options{
			Now:      opts.Now,
			Observer: opts.Observer,
		}),
		recorder:  opts.Recorder,
		threshold: opts.ClearSkyThreshold,
		provider:  provider,
		logger:    slog.Default().With("component", "weather"),
	}
}

// Provider returns the active provider.
func (s *Service) Provider() Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// SetProvider switches providers and drops cached snapshots.
func (s *Service) SetProvider(p Provider) {
	s.mu.Lock()
	s.provider = p
	s.mu.Unlock()
	s.cache.Purge()
	s.logger.Info("weather provider switched", "provider", p.Name())
}

// Current returns the snapshot for a location. On failure it returns the
// stale snapshot when one exists, else the Unavailable snapshot together
// with the error.
func (s *Service) Current(ctx context.Context, lat, lon float64) (Snapshot, error) {
	key := fetchcache.NewLocationKey(lat, lon)
	provider := s.Provider()

	snap, err := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) (Snapshot, error) {
		return provider.Fetch(ctx, key.Latitude, key.Longitude)
	})
	if err != nil {
		if errors.Is(err, fetchcache.ErrFetchFailed) && s.recorder != nil {
			s.recorder.Record(err, map[string]any{
				"source":   provider.Name(),
				"location": key.String(),
			})
		}
		return Unavailable(), err
	}
	return snap.Clone(), nil
}

// Get is Current for presentation: failures become the Unavailable
// snapshot.
func (s *Service) Get(ctx context.Context, lat, lon float64) Snapshot {
	snap, err := s.Current(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("weather unavailable", "error", err)
	}
	return snap
}

// ForceUpdate drops the cached snapshot for a location and fetches anew.
func (s *Service) ForceUpdate(ctx context.Context, lat, lon float64) (Snapshot, error) {
	s.cache.Invalidate(fetchcache.NewLocationKey(lat, lon))
	return s.Current(ctx, lat, lon)
}

// ClearSky reports whether cloud cover is at or below the threshold.
// Unknown cloud cover counts as clear so missing data never blocks
// capturing.
func (s *Service) ClearSky(ctx context.Context, lat, lon float64) bool {
	cover, ok := s.Get(ctx, lat, lon).CloudCover()
	if !ok {
		return true
	}
	return cover <= s.threshold
}
