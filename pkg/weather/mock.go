package weather

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

var mockConditions = []string{"Clear", "Partly cloudy", "Overcast", "Light rain", "Clear, clouds later"}

// Mock produces plausible random readings. It is the fallback provider
// when no real one is configured.
type Mock struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMock creates a mock provider with a fixed seed.
func NewMock(seed int64) *Mock {
	return &Mock{rng: rand.New(rand.NewSource(seed))}
}

// Name implements Provider.
func (m *Mock) Name() string {
	return "mock"
}

// Fetch implements Provider.
func (m *Mock) Fetch(ctx context.Context, lat, lon float64) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	uniform := func(lo, hi float64) float64 { return lo + m.rng.Float64()*(hi-lo) }
	temp := uniform(-10, 35)

	s := Unavailable()
	s[KeyCloudCover] = fmt.Sprintf("%d%%", m.rng.Intn(101))
	s[KeyHumidity] = fmt.Sprintf("%.0f%%", uniform(30, 90))
	s[KeyDewPoint] = fmt.Sprintf("%.1f°C", temp-uniform(5, 15))
	s[KeyPressure] = fmt.Sprintf("%.1f hPa", uniform(990, 1030))
	s[KeyWindSpeed] = fmt.Sprintf("%.1f m/s", uniform(0, 20))
	s[KeyWindGust] = fmt.Sprintf("%.1f m/s", uniform(0, 30))
	s[KeySkyTemperature] = fmt.Sprintf("%.1f°C", temp-uniform(10, 30))
	s[KeyTemperature] = fmt.Sprintf("%.1f°C", temp)
	s[KeySkyQuality] = fmt.Sprintf("%.1f mag/arcsec²", uniform(15, 22))
	s[KeyRainRate] = fmt.Sprintf("%.1f mm/h", uniform(0, 5))
	s[KeyWeather] = mockConditions[m.rng.Intn(len(mockConditions))]
	return s, nil
}
