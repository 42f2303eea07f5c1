package twilight

import (
	"testing"
	"time"
)

func TestSunCalc_MidLatitude(t *testing.T) {
	cst := time.FixedZone("CST", 8*3600)
	noon := time.Date(2024, 3, 20, 12, 0, 0, 0, cst)

	b, err := SunCalc{}.Boundaries(noon, 31.2304, 121.4737)
	if err != nil {
		t.Fatalf("Boundaries() error = %v", err)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	rise := b.Sunrise.In(cst)
	if rise.Hour() < 5 || rise.Hour() > 6 {
		t.Errorf("sunrise = %s, want around 06:00 local", rise.Format(time.TimeOnly))
	}
	set := b.Sunset.In(cst)
	if set.Hour() < 17 || set.Hour() > 18 {
		t.Errorf("sunset = %s, want around 18:00 local", set.Format(time.TimeOnly))
	}
	if got := Classify(noon, b); got != Day {
		t.Errorf("Classify(noon) = %v, want Day", got)
	}
}

func TestSunCalc_PolarDay(t *testing.T) {
	noon := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

	if _, err := (SunCalc{}).Boundaries(noon, 78.22, 15.65); err == nil {
		t.Error("Boundaries() error = nil during polar day")
	}
}
