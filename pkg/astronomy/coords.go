package astronomy

import (
	"math"
	"time"
)

const (
	deg = math.Pi / 180
	rad = 180 / math.Pi

	unixEpochJD = 2440587.5
	j2000JD     = 2451545.0
)

func julianDate(t time.Time) float64 {
	return float64(t.UnixNano())/float64(24*time.Hour) + unixEpochJD
}

// SiderealTime returns the local mean sidereal time in degrees [0, 360).
func SiderealTime(t time.Time, longitude float64) float64 {
	d := julianDate(t) - j2000JD
	c := d / 36525
	gmst := 280.46061837 + 360.98564736629*d + 0.000387933*c*c - c*c*c/38710000
	return normalizeDegrees(gmst + longitude)
}

// Horizontal converts equatorial coordinates (degrees) to altitude and
// azimuth (degrees, azimuth from north through east) for an observer.
func Horizontal(ra, dec, latitude, longitude float64, t time.Time) (altitude, azimuth float64) {
	h := (SiderealTime(t, longitude) - ra) * deg
	phi := latitude * deg
	delta := dec * deg

	sinAlt := math.Sin(phi)*math.Sin(delta) + math.Cos(phi)*math.Cos(delta)*math.Cos(h)
	altitude = math.Asin(math.Max(-1, math.Min(1, sinAlt))) * rad

	y := -math.Cos(delta) * math.Sin(h)
	x := math.Sin(delta)*math.Cos(phi) - math.Cos(delta)*math.Sin(phi)*math.Cos(h)
	azimuth = normalizeDegrees(math.Atan2(y, x) * rad)
	return altitude, azimuth
}

// Project maps altitude/azimuth onto an all-sky frame with the zenith at
// the center and the horizon on the inscribed circle. North is up.
func Project(altitude, azimuth float64, width, height int) (x, y int, ok bool) {
	if altitude < 0 {
		return 0, 0, false
	}
	radius := (90 - altitude) / 90 * float64(min(width, height)) / 2
	x = int(math.Round(float64(width)/2 + radius*math.Sin(azimuth*deg)))
	y = int(math.Round(float64(height)/2 - radius*math.Cos(azimuth*deg)))
	return x, y, x >= 0 && x < width && y >= 0 && y < height
}

func normalizeDegrees(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v
}
