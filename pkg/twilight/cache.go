package twilight

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheCapacity is the number of calendar days a BoundaryCache keeps.
const DefaultCacheCapacity = 1440

// Location identifies an observing site.
type Location struct {
	Latitude  float64
	Longitude float64

	// TZ determines calendar-day rollover. Nil means UTC.
	TZ *time.Location
}

func (l Location) zone() *time.Location {
	if l.TZ == nil {
		return time.UTC
	}
	return l.TZ
}

func (l Location) equal(o Location) bool {
	return l.Latitude == o.Latitude && l.Longitude == o.Longitude && l.zone().String() == o.zone().String()
}

// Ephemeris computes the boundary set for a location on the calendar day
// containing date. Implementations return an error when the sun never
// crosses one of the thresholds (polar day or night).
type Ephemeris interface {
	Boundaries(date time.Time, latitude, longitude float64) (Boundaries, error)
}

// EphemerisFunc adapts a function to the Ephemeris interface.
type EphemerisFunc func(date time.Time, latitude, longitude float64) (Boundaries, error)

// Boundaries implements Ephemeris.
func (f EphemerisFunc) Boundaries(date time.Time, latitude, longitude float64) (Boundaries, error) {
	return f(date, latitude, longitude)
}

// cacheEntry is a computed day. available is false when the ephemeris
// failed for that date.
type cacheEntry struct {
	boundaries Boundaries
	available  bool
}

// BoundaryCache memoizes boundary sets per calendar day for a single
// location. It is safe for concurrent use.
type BoundaryCache struct {
	ephemeris Ephemeris
	logger    *slog.Logger

	// mu guards location and keeps compute+insert atomic per day.
	mu       sync.Mutex
	location Location
	located  bool
	days     *lru.Cache[string, cacheEntry]

	// OnCompute is called after every ephemeris invocation. Optional.
	OnCompute func(date string, err error)
}

// NewBoundaryCache creates a cache holding up to capacity days. Once full,
// the oldest inserted day is evicted first. Reads do not refresh an entry.
func NewBoundaryCache(eph Ephemeris, capacity int) (*BoundaryCache, error) {
	if eph == nil {
		return nil, fmt.Errorf("ephemeris is required")
	}
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	days, err := lru.New[string, cacheEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create boundary cache: %w", err)
	}
	return &BoundaryCache{
		ephemeris: eph,
		days:      days,
		logger:    slog.Default().With("component", "twilight"),
	}, nil
}

// DateKey returns the cache key (ISO date) for t at loc.
func DateKey(t time.Time, loc Location) string {
	return t.In(loc.zone()).Format(time.DateOnly)
}

// Get returns the boundary set for the calendar day containing date at loc.
// ok is false when the ephemeris could not produce one; the failure is
// remembered for that day. A location different from the previous call
// discards every cached day first.
func (c *BoundaryCache) Get(date time.Time, loc Location) (Boundaries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.located && !c.location.equal(loc) {
		c.logger.Info("location changed, invalidating boundary cache",
			"latitude", loc.Latitude,
			"longitude", loc.Longitude,
			"cached_days", c.days.Len(),
		)
		c.days.Purge()
	}
	c.location = loc
	c.located = true

	key := DateKey(date, loc)
	if e, ok := c.days.Peek(key); ok {
		return e.boundaries, e.available
	}

	// Local noon lands on the right solar day for any longitude.
	local := date.In(loc.zone())
	noon := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc.zone())

	b, err := c.ephemeris.Boundaries(noon, loc.Latitude, loc.Longitude)
	if err == nil {
		err = b.Validate()
	}
	if c.OnCompute != nil {
		c.OnCompute(key, err)
	}

	entry := cacheEntry{boundaries: b, available: err == nil}
	if err != nil {
		c.logger.Warn("sun boundaries unavailable",
			"date", key,
			"latitude", loc.Latitude,
			"longitude", loc.Longitude,
			"error", err,
		)
		entry.boundaries = Boundaries{}
	}
	c.days.Add(key, entry)

	return entry.boundaries, entry.available
}

// InvalidateLocation discards every cached day.
func (c *BoundaryCache) InvalidateLocation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.days.Purge()
	c.located = false
}

// Len returns the number of cached days.
func (c *BoundaryCache) Len() int {
	return c.days.Len()
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Period     Period     `json:"period"`
	Parameters Parameters `json:"parameters"`
	Boundaries Boundaries `json:"boundaries"`

	// Available is false when the ephemeris failed and Night was assumed.
	Available bool `json:"available"`
}

// Resolve classifies t at loc and picks its parameters from table. When no
// boundary set is available for the day, the Night parameters are used.
func (c *BoundaryCache) Resolve(t time.Time, loc Location, table ParameterTable) Resolution {
	b, ok := c.Get(t, loc)
	if !ok {
		return Resolution{Period: Night, Parameters: table.For(Night)}
	}
	p := Classify(t, b)
	return Resolution{
		Period:     p,
		Parameters: table.For(p),
		Boundaries: b,
		Available:  true,
	}
}
