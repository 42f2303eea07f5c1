package fetchcache

import (
	"fmt"
	"math"
)

// LocationKey is a latitude/longitude pair rounded to two decimal places
// (about 1 km), so nearby requests share an entry.
type LocationKey struct {
	Latitude  float64
	Longitude float64
}

// NewLocationKey rounds lat and lon into a LocationKey.
func NewLocationKey(lat, lon float64) LocationKey {
	return LocationKey{
		Latitude:  math.Round(lat*100) / 100,
		Longitude: math.Round(lon*100) / 100,
	}
}

// String implements fmt.Stringer.
func (k LocationKey) String() string {
	return fmt.Sprintf("%.2f,%.2f", k.Latitude, k.Longitude)
}
