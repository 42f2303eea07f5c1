package astronomy

import (
	"math"
	"time"

	"github.com/rockets-cn/allsky/pkg/twilight"
)

// Body is the horizontal position of a solar-system object.
type Body struct {
	Altitude float64 `json:"altitude"`
	Azimuth  float64 `json:"azimuth"`
}

// Moon adds phase data to the moon position.
type Moon struct {
	Body
	Illumination float64 `json:"illumination"`
	Phase        float64 `json:"phase"`
	PhaseName    string  `json:"phase_name"`
	DistanceKm   float64 `json:"distance_km"`
}

// VisibleStar is a catalog star above the altitude cutoff.
type VisibleStar struct {
	Star
	Altitude float64 `json:"altitude"`
	Azimuth  float64 `json:"azimuth"`
}

// Observer is the station position.
type Observer struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Sky is everything computed for one instant.
type Sky struct {
	Timestamp      time.Time     `json:"timestamp"`
	Observer       Observer      `json:"observer"`
	Sun            Body          `json:"sun"`
	Moon           Moon          `json:"moon"`
	Stars          []VisibleStar `json:"stars"`
	MagnitudeLimit float64       `json:"magnitude_limit"`
}

// Brightest returns the brightest visible star.
func (s Sky) Brightest() (VisibleStar, bool) {
	if len(s.Stars) == 0 {
		return VisibleStar{}, false
	}
	// Stars are sorted by magnitude.
	return s.Stars[0], true
}

// Snapshot is the compact form stored with each image record.
func (s Sky) Snapshot() map[string]any {
	out := map[string]any{
		"sun_altitude":      round1(s.Sun.Altitude),
		"moon_altitude":     round1(s.Moon.Altitude),
		"moon_phase":        s.Moon.PhaseName,
		"moon_illumination": round1(s.Moon.Illumination * 100),
		"visible_stars":     len(s.Stars),
	}
	if b, ok := s.Brightest(); ok {
		out["brightest_star"] = b.Name
	}
	return out
}

// StarLabel is a star name and its pixel position on a frame.
type StarLabel struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Labels projects up to max visible stars onto a width×height frame for
// overlay annotation.
func (s Sky) Labels(width, height, max int) []StarLabel {
	var out []StarLabel
	for _, star := range s.Stars {
		if len(out) >= max {
			break
		}
		if x, y, ok := Project(star.Altitude, star.Azimuth, width, height); ok {
			out = append(out, StarLabel{Name: star.Name, X: x, Y: y})
		}
	}
	return out
}

// Summary is the observing summary served by the status API.
type Summary struct {
	Period           twilight.Period `json:"period"`
	NextBoundary     string          `json:"next_boundary,omitempty"`
	NextBoundaryAt   *time.Time      `json:"next_boundary_at,omitempty"`
	SunAltitude      float64         `json:"sun_altitude"`
	MoonPhase        string          `json:"moon_phase"`
	MoonIllumination float64         `json:"moon_illumination"`
	MoonAltitude     float64         `json:"moon_altitude"`
	TotalStars       int             `json:"total_stars"`
	BrightStars      int             `json:"bright_stars"`
	BrightestStar    *VisibleStar    `json:"brightest_star,omitempty"`
}

// Summarize combines the sky with the current lighting resolution.
func Summarize(sky Sky, res twilight.Resolution, now time.Time) Summary {
	sum := Summary{
		Period:           res.Period,
		SunAltitude:      round1(sky.Sun.Altitude),
		MoonPhase:        sky.Moon.PhaseName,
		MoonIllumination: round1(sky.Moon.Illumination * 100),
		MoonAltitude:     round1(sky.Moon.Altitude),
		TotalStars:       len(sky.Stars),
	}
	if res.Available {
		if name, at, ok := res.Boundaries.Next(now); ok {
			sum.NextBoundary = name
			sum.NextBoundaryAt = &at
		}
	}
	for _, s := range sky.Stars {
		if s.Magnitude < 2.0 {
			sum.BrightStars++
		}
	}
	if b, ok := sky.Brightest(); ok {
		sum.BrightestStar = &b
	}
	return sum
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
