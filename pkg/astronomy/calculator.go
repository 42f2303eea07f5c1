package astronomy

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sixdouglas/suncalc"
)

const (
	// DefaultMagnitudeLimit is the faintest star reported.
	DefaultMagnitudeLimit = 4.0

	// DefaultMinAltitude is the lowest altitude, in degrees, counted as
	// visible.
	DefaultMinAltitude = 10.0
)

// Provider computes the sky for a location and instant.
type Provider interface {
	Fetch(ctx context.Context, lat, lon float64, t time.Time) (Sky, error)
}

// Calculator is the default Provider.
type Calculator struct {
	MagnitudeLimit float64
	MinAltitude    float64
	Catalog        []Star
}

// NewCalculator returns a calculator over the bright-star catalog.
func NewCalculator(magnitudeLimit float64) *Calculator {
	if magnitudeLimit == 0 {
		magnitudeLimit = DefaultMagnitudeLimit
	}
	return &Calculator{
		MagnitudeLimit: magnitudeLimit,
		MinAltitude:    DefaultMinAltitude,
		Catalog:        BrightStars,
	}
}

// Fetch implements Provider.
func (c *Calculator) Fetch(ctx context.Context, lat, lon float64, t time.Time) (Sky, error) {
	if err := ctx.Err(); err != nil {
		return Sky{}, err
	}

	sun := suncalc.GetPosition(t, lat, lon)
	moon := suncalc.GetMoonPosition(t, lat, lon)
	illum := suncalc.GetMoonIllumination(t)

	return Sky{
		Timestamp: t,
		Observer:  Observer{Latitude: lat, Longitude: lon},
		Sun:       body(sun.Altitude, sun.Azimuth),
		Moon: Moon{
			Body:         body(moon.Altitude, moon.Azimuth),
			Illumination: illum.Fraction,
			Phase:        illum.Phase,
			PhaseName:    PhaseName(illum.Phase),
			DistanceKm:   moon.Distance,
		},
		Stars:          c.VisibleStars(lat, lon, t),
		MagnitudeLimit: c.MagnitudeLimit,
	}, nil
}

// VisibleStars returns catalog stars brighter than the magnitude limit and
// higher than the minimum altitude, brightest first.
func (c *Calculator) VisibleStars(lat, lon float64, t time.Time) []VisibleStar {
	var out []VisibleStar
	for _, s := range c.Catalog {
		if s.Magnitude > c.MagnitudeLimit {
			continue
		}
		alt, az := Horizontal(s.RA, s.Dec, lat, lon, t)
		if alt <= c.MinAltitude {
			continue
		}
		out = append(out, VisibleStar{Star: s, Altitude: alt, Azimuth: az})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Magnitude < out[j].Magnitude
	})
	return out
}

// body converts suncalc radians (azimuth from south, westward) to degrees
// with azimuth from north through east.
func body(altitude, azimuth float64) Body {
	return Body{
		Altitude: altitude * rad,
		Azimuth:  normalizeDegrees(azimuth*rad + 180),
	}
}

var phaseNames = []string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

// PhaseName names a lunar phase given as a fraction of the synodic month
// (0 new, 0.25 first quarter, 0.5 full, 0.75 last quarter).
func PhaseName(phase float64) string {
	phase -= math.Floor(phase)
	i := int(math.Floor(phase*8+0.5)) % len(phaseNames)
	return phaseNames[i]
}
