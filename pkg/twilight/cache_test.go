package twilight

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type countingEphemeris struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (e *countingEphemeris) Boundaries(date time.Time, lat, lon float64) (Boundaries, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.fail {
		return Boundaries{}, errors.New("sun never sets")
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return sampleBoundaries(day), nil
}

func (e *countingEphemeris) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

var shanghai = Location{Latitude: 31.2304, Longitude: 121.4737, TZ: time.FixedZone("CST", 8*3600)}

func TestBoundaryCache_MemoizesPerDay(t *testing.T) {
	eph := &countingEphemeris{}
	c, err := NewBoundaryCache(eph, 10)
	if err != nil {
		t.Fatalf("NewBoundaryCache() error = %v", err)
	}

	morning := time.Date(2024, 6, 21, 6, 0, 0, 0, shanghai.TZ)
	for i := 0; i < 24; i++ {
		if _, ok := c.Get(morning.Add(time.Duration(i)*30*time.Minute), shanghai); !ok {
			t.Fatal("Get() ok = false")
		}
	}
	if got := eph.count(); got != 1 {
		t.Errorf("ephemeris calls = %d, want 1", got)
	}

	c.Get(morning.Add(24*time.Hour), shanghai)
	if got := eph.count(); got != 2 {
		t.Errorf("ephemeris calls after rollover = %d, want 2", got)
	}
}

func TestBoundaryCache_LocationChangeInvalidates(t *testing.T) {
	eph := &countingEphemeris{}
	c, _ := NewBoundaryCache(eph, 10)
	now := time.Date(2024, 6, 21, 12, 0, 0, 0, shanghai.TZ)

	c.Get(now, shanghai)
	c.Get(now.Add(24*time.Hour), shanghai)
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	moved := shanghai
	moved.Latitude = 40.0
	c.Get(now, moved)
	if c.Len() != 1 {
		t.Errorf("Len() after move = %d, want 1", c.Len())
	}
	if got := eph.count(); got != 3 {
		t.Errorf("ephemeris calls = %d, want 3", got)
	}

	c.InvalidateLocation()
	if c.Len() != 0 {
		t.Errorf("Len() after InvalidateLocation = %d, want 0", c.Len())
	}
}

func TestBoundaryCache_EvictsOldest(t *testing.T) {
	eph := &countingEphemeris{}
	c, _ := NewBoundaryCache(eph, 3)
	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	loc := Location{Latitude: 10, Longitude: 10}

	for i := 0; i < 3; i++ {
		c.Get(first.AddDate(0, 0, i), loc)
	}
	// Reading the oldest day must not protect it from eviction.
	c.Get(first, loc)
	c.Get(first.AddDate(0, 0, 3), loc)

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	before := eph.count()
	c.Get(first, loc)
	if eph.count() != before+1 {
		t.Error("oldest day was not evicted")
	}
}

func TestBoundaryCache_UnavailableFallsBackToNight(t *testing.T) {
	eph := &countingEphemeris{fail: true}
	c, _ := NewBoundaryCache(eph, 10)
	noon := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	loc := Location{Latitude: 78.2, Longitude: 15.6}

	res := c.Resolve(noon, loc, DefaultParameters())
	if res.Available {
		t.Error("Available = true, want false")
	}
	if res.Period != Night {
		t.Errorf("Period = %v, want Night", res.Period)
	}
	if res.Parameters != DefaultParameters().For(Night) {
		t.Errorf("Parameters = %v, want night parameters", res.Parameters)
	}

	// The failure is cached for the day.
	c.Resolve(noon.Add(time.Hour), loc, DefaultParameters())
	if got := eph.count(); got != 1 {
		t.Errorf("ephemeris calls = %d, want 1", got)
	}
}

func TestBoundaryCache_InvalidSetIsUnavailable(t *testing.T) {
	eph := EphemerisFunc(func(date time.Time, lat, lon float64) (Boundaries, error) {
		b := sampleBoundaries(date)
		b.Sunset = b.Sunrise.Add(-time.Hour)
		return b, nil
	})
	c, _ := NewBoundaryCache(eph, 10)

	if _, ok := c.Get(time.Now(), Location{}); ok {
		t.Error("Get() ok = true for non-monotonic boundaries")
	}
}

func TestBoundaryCache_Resolve(t *testing.T) {
	c, _ := NewBoundaryCache(&countingEphemeris{}, 10)
	table := DefaultParameters()
	noon := time.Date(2024, 6, 21, 12, 0, 0, 0, shanghai.TZ)

	res := c.Resolve(noon, shanghai, table)
	if !res.Available || res.Period != Day || res.Parameters != table.For(Day) {
		t.Errorf("Resolve(noon) = %+v", res)
	}

	res = c.Resolve(time.Date(2024, 6, 21, 23, 0, 0, 0, shanghai.TZ), shanghai, table)
	if res.Period != Night {
		t.Errorf("Resolve(23:00) period = %v, want Night", res.Period)
	}
}

func TestNewBoundaryCache_RequiresEphemeris(t *testing.T) {
	if _, err := NewBoundaryCache(nil, 10); err == nil {
		t.Error("NewBoundaryCache(nil) error = nil")
	}
}
