package astronomy

import (
	"math"
	"testing"
	"time"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSiderealTime_J2000(t *testing.T) {
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := SiderealTime(j2000, 0); !approx(got, 280.46, 0.01) {
		t.Errorf("SiderealTime(J2000) = %.3f, want 280.46", got)
	}
	if got := SiderealTime(j2000, 90); !approx(got, 10.46, 0.01) {
		t.Errorf("SiderealTime(J2000, 90E) = %.3f, want 10.46", got)
	}
}

func TestHorizontal_CelestialPoleAltitudeEqualsLatitude(t *testing.T) {
	at := time.Date(2024, 6, 21, 22, 30, 0, 0, time.UTC)
	for _, lat := range []float64{-30, 0, 31.23, 60} {
		alt, _ := Horizontal(0, 90, lat, 121.47, at)
		if !approx(alt, lat, 1e-6) {
			t.Errorf("lat %v: pole altitude = %v", lat, alt)
		}
	}
}

func TestHorizontal_TransitAtZenith(t *testing.T) {
	at := time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC)
	lat, lon := 31.23, 121.47
	ra := SiderealTime(at, lon)

	alt, _ := Horizontal(ra, lat, lat, lon, at)
	if !approx(alt, 90, 1e-4) {
		t.Errorf("altitude at transit = %v, want 90", alt)
	}

	// A star south of the zenith on the meridian sits due south.
	alt, az := Horizontal(ra, lat-20, lat, lon, at)
	if !approx(alt, 70, 1e-6) || !approx(az, 180, 1e-6) {
		t.Errorf("meridian star alt/az = %v/%v, want 70/180", alt, az)
	}
}

func TestHorizontal_RisingStarIsEast(t *testing.T) {
	at := time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC)
	// Hour angle -90° on the equator: rising in the east.
	ra := SiderealTime(at, 0) + 90
	alt, az := Horizontal(ra, 0, 0, 0, at)
	if !approx(alt, 0, 1e-6) || !approx(az, 90, 1e-6) {
		t.Errorf("alt/az = %v/%v, want 0/90", alt, az)
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		name       string
		alt, az    float64
		wantX      int
		wantY      int
		wantInside bool
	}{
		{name: "zenith", alt: 90, az: 0, wantX: 100, wantY: 50, wantInside: true},
		{name: "north horizon", alt: 0, az: 0, wantX: 100, wantY: 0, wantInside: true},
		{name: "east at 45", alt: 45, az: 90, wantX: 125, wantY: 50, wantInside: true},
		{name: "below horizon", alt: -5, az: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := Project(tt.alt, tt.az, 200, 100)
			if ok != tt.wantInside {
				t.Fatalf("Project() ok = %v, want %v", ok, tt.wantInside)
			}
			if ok && (x != tt.wantX || y != tt.wantY) {
				t.Errorf("Project() = (%d, %d), want (%d, %d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}
