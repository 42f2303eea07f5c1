package twilight

import (
	"math/rand"
	"testing"
	"time"
)

// sampleBoundaries builds a monotonic boundary set around the given day.
func sampleBoundaries(day time.Time) Boundaries {
	at := func(h, m int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
	}
	return Boundaries{
		AstronomicalDawn: at(3, 30),
		NauticalDawn:     at(4, 5),
		CivilDawn:        at(4, 40),
		Sunrise:          at(5, 10),
		Sunset:           at(19, 0),
		CivilDusk:        at(19, 30),
		NauticalDusk:     at(20, 5),
		AstronomicalDusk: at(20, 45),
	}
}

func TestClassify_Boundaries(t *testing.T) {
	day := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	b := sampleBoundaries(day)

	tests := []struct {
		name string
		at   time.Time
		want Period
	}{
		{"midnight", day, Night},
		{"astronomical dawn", b.AstronomicalDawn, Astronomical},
		{"just before astronomical dawn", b.AstronomicalDawn.Add(-time.Nanosecond), Night},
		{"nautical dawn", b.NauticalDawn, Nautical},
		{"civil dawn", b.CivilDawn, Civil},
		{"sunrise", b.Sunrise, Day},
		{"just before sunrise", b.Sunrise.Add(-time.Nanosecond), Civil},
		{"noon", day.Add(12 * time.Hour), Day},
		{"sunset", b.Sunset, Civil},
		{"just before sunset", b.Sunset.Add(-time.Nanosecond), Day},
		{"civil dusk", b.CivilDusk, Nautical},
		{"nautical dusk", b.NauticalDusk, Astronomical},
		{"astronomical dusk", b.AstronomicalDusk, Night},
		{"late evening", day.Add(23 * time.Hour), Night},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.at, b); got != tt.want {
				t.Errorf("Classify(%s) = %v, want %v", tt.at.Format(time.TimeOnly), got, tt.want)
			}
		})
	}
}

func TestClassify_Partition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	year := int64(366 * 24 * time.Hour)

	for i := 0; i < 10000; i++ {
		ts := start.Add(time.Duration(rng.Int63n(year)))
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		b := sampleBoundaries(day)

		matches := 0
		var matched Period
		for _, p := range Periods {
			if b.Contains(p, ts) {
				matches++
				matched = p
			}
		}
		if matches != 1 {
			t.Fatalf("timestamp %s matched %d periods, want exactly 1", ts, matches)
		}
		if got := Classify(ts, b); got != matched {
			t.Fatalf("Classify(%s) = %v, predicate matched %v", ts, got, matched)
		}
	}
}

func TestClassify_DegenerateBoundaries(t *testing.T) {
	now := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

	// Zero boundaries: nothing contains now, so the result is Night.
	if got := Classify(now, Boundaries{}); got != Night {
		t.Errorf("Classify(zero boundaries) = %v, want Night", got)
	}

	// Non-monotonic set still yields a single period.
	b := sampleBoundaries(now)
	b.Sunrise, b.Sunset = b.Sunset, b.Sunrise
	got := Classify(now, b)
	if got < Day || got > Night {
		t.Errorf("Classify(non-monotonic) = %v, want a valid period", got)
	}
}

func TestBoundaries_Validate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := sampleBoundaries(day).Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	b := sampleBoundaries(day)
	b.CivilDusk = b.Sunset.Add(-time.Minute)
	if err := b.Validate(); err == nil {
		t.Error("Validate() = nil for out-of-order civil dusk")
	}

	b = sampleBoundaries(day)
	b.NauticalDawn = time.Time{}
	if err := b.Validate(); err == nil {
		t.Error("Validate() = nil for missing nautical dawn")
	}
}

func TestBoundaries_Next(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := sampleBoundaries(day)

	name, at, ok := b.Next(day.Add(12 * time.Hour))
	if !ok || name != "sunset" || !at.Equal(b.Sunset) {
		t.Errorf("Next(noon) = %q %v %v, want sunset", name, at, ok)
	}

	if _, _, ok := b.Next(b.AstronomicalDusk); ok {
		t.Error("Next(astronomical dusk) ok = true, want false")
	}
}

func TestParsePeriod(t *testing.T) {
	for _, p := range Periods {
		got, err := ParsePeriod(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePeriod(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParsePeriod("dusk"); err == nil {
		t.Error("ParsePeriod(dusk) error = nil")
	}
	if got, _ := ParsePeriod(" Nautical "); got != Nautical {
		t.Errorf("ParsePeriod(\" Nautical \") = %v, want Nautical", got)
	}
}

func TestParameterTable(t *testing.T) {
	table := DefaultParameters()

	if got := table.For(Night); got != (Parameters{Exposure: 5, Gain: 40}) {
		t.Errorf("For(Night) = %v", got)
	}
	if got := table.For(Period(99)); got != table.For(Night) {
		t.Errorf("For(unknown) = %v, want night parameters", got)
	}

	updated := table.With(Day, Parameters{Exposure: -6, Gain: 5})
	if table.For(Day).Exposure != -5 {
		t.Error("With() mutated the original table")
	}
	if updated.For(Day).Exposure != -6 {
		t.Errorf("updated day exposure = %d, want -6", updated.For(Day).Exposure)
	}

	m := table.Map()
	if len(m) != 5 || m["astronomical"].Gain != 30 {
		t.Errorf("Map() = %v", m)
	}
}
