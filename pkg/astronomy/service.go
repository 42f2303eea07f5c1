package astronomy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/fetchcache"
)

// DefaultTTL is how long a computed sky stays fresh.
const DefaultTTL = 600 * time.Second

// Options configures a Service.
type Options struct {
	TTL      time.Duration
	Observer fetchcache.Observer
	Recorder *errpolicy.Recorder
	Now      func() time.Time
}

// Service serves cached sky computations.
type Service struct {
	provider Provider
	cache    *fetchcache.Cache[fetchcache.LocationKey, Sky]
	recorder *errpolicy.Recorder
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates an astronomy service around provider.
func NewService(provider Provider, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		provider: provider,
		cache: fetchcache.New[fetchcache.LocationKey, Sky]("astronomy", opts.TTL, fetchcache.Options{
			Now:      opts.Now,
			Observer: opts.Observer,
		}),
		recorder: opts.Recorder,
		now:      opts.Now,
		logger:   slog.Default().With("component", "astronomy"),
	}
}

// Current returns the sky for a location, computed at most TTL ago.
func (s *Service) Current(ctx context.Context, lat, lon float64) (Sky, error) {
	key := fetchcache.NewLocationKey(lat, lon)
	sky, err := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) (Sky, error) {
		sky, err := s.provider.Fetch(ctx, key.Latitude, key.Longitude, s.now())
		if err != nil {
			return Sky{}, errpolicy.NewDataFetchError("astronomy", "sky computation failed", err)
		}
		return sky, nil
	})
	if err != nil {
		if errors.Is(err, fetchcache.ErrFetchFailed) && s.recorder != nil {
			s.recorder.Record(err, map[string]any{"location": key.String()})
		}
		s.logger.Warn("astronomy data unavailable", "error", err)
		return Sky{}, err
	}
	return sky, nil
}

// Snapshot returns the compact record form, or nil when unavailable.
func (s *Service) Snapshot(ctx context.Context, lat, lon float64) map[string]any {
	sky, err := s.Current(ctx, lat, lon)
	if err != nil {
		return nil
	}
	return sky.Snapshot()
}
