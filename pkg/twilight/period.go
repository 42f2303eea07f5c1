package twilight

import (
	"fmt"
	"strings"
	"time"
)

// Period is a lighting period. Periods are ordered by darkness: Day is the
// lightest, Night the darkest.
type Period int

const (
	Day Period = iota
	Civil
	Nautical
	Astronomical
	Night
)

// Periods lists every period from lightest to darkest.
var Periods = []Period{Day, Civil, Nautical, Astronomical, Night}

var periodNames = [...]string{"day", "civil", "nautical", "astronomical", "night"}

// String returns the lower-case period name.
func (p Period) String() string {
	if p < Day || p > Night {
		return fmt.Sprintf("period(%d)", int(p))
	}
	return periodNames[p]
}

// MarshalText implements encoding.TextMarshaler.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePeriod parses a period name, case-insensitively.
func ParsePeriod(s string) (Period, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range periodNames {
		if n == name {
			return Period(i), nil
		}
	}
	return Night, fmt.Errorf("unknown lighting period %q", s)
}

// Boundaries holds the eight sun-elevation crossings for one location and
// calendar day.
type Boundaries struct {
	AstronomicalDawn time.Time `json:"astronomical_dawn"`
	NauticalDawn     time.Time `json:"nautical_dawn"`
	CivilDawn        time.Time `json:"civil_dawn"`
	Sunrise          time.Time `json:"sunrise"`
	Sunset           time.Time `json:"sunset"`
	CivilDusk        time.Time `json:"civil_dusk"`
	NauticalDusk     time.Time `json:"nautical_dusk"`
	AstronomicalDusk time.Time `json:"astronomical_dusk"`
}

var boundaryNames = [8]string{
	"astronomical_dawn", "nautical_dawn", "civil_dawn", "sunrise",
	"sunset", "civil_dusk", "nautical_dusk", "astronomical_dusk",
}

// ordered returns the boundaries in the order they occur during a day.
func (b Boundaries) ordered() [8]time.Time {
	return [8]time.Time{
		b.AstronomicalDawn, b.NauticalDawn, b.CivilDawn, b.Sunrise,
		b.Sunset, b.CivilDusk, b.NauticalDusk, b.AstronomicalDusk,
	}
}

// Validate reports whether all boundaries are set and non-decreasing.
func (b Boundaries) Validate() error {
	ts := b.ordered()
	for i, t := range ts {
		if t.IsZero() {
			return fmt.Errorf("boundary %s is not set", boundaryNames[i])
		}
		if i > 0 && t.Before(ts[i-1]) {
			return fmt.Errorf("boundary %s (%s) precedes %s (%s)",
				boundaryNames[i], t.Format(time.RFC3339), boundaryNames[i-1], ts[i-1].Format(time.RFC3339))
		}
	}
	return nil
}

// Next returns the first boundary strictly after t together with its name.
// ok is false when t is at or after astronomical dusk.
func (b Boundaries) Next(t time.Time) (name string, at time.Time, ok bool) {
	for i, bt := range b.ordered() {
		if bt.After(t) {
			return boundaryNames[i], bt, true
		}
	}
	return "", time.Time{}, false
}

// within reports whether t lies in [start, end).
func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// Contains reports whether t falls in period p. For a valid boundary set
// exactly one period contains any instant.
func (b Boundaries) Contains(p Period, t time.Time) bool {
	switch p {
	case Day:
		return within(t, b.Sunrise, b.Sunset)
	case Civil:
		return within(t, b.CivilDawn, b.Sunrise) || within(t, b.Sunset, b.CivilDusk)
	case Nautical:
		return within(t, b.NauticalDawn, b.CivilDawn) || within(t, b.CivilDusk, b.NauticalDusk)
	case Astronomical:
		return within(t, b.AstronomicalDawn, b.NauticalDawn) || within(t, b.NauticalDusk, b.AstronomicalDusk)
	case Night:
		return !within(t, b.AstronomicalDawn, b.AstronomicalDusk)
	}
	return false
}

// Classify returns the lighting period for t. It is total: degenerate or
// non-monotonic boundaries still yield a period, with Night as the fallback.
func Classify(t time.Time, b Boundaries) Period {
	switch {
	case b.Contains(Day, t):
		return Day
	case b.Contains(Civil, t):
		return Civil
	case b.Contains(Nautical, t):
		return Nautical
	case b.Contains(Astronomical, t):
		return Astronomical
	default:
		return Night
	}
}
