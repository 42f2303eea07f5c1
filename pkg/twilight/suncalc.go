package twilight

import (
	"fmt"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
)

// maxBoundarySpread bounds how far any boundary may sit from the requested
// local noon. Values outside come from a threshold the sun never crosses.
const maxBoundarySpread = 36 * time.Hour

// SunCalc is the default Ephemeris, backed by the suncalc algorithms.
type SunCalc struct{}

// Boundaries implements Ephemeris.
func (SunCalc) Boundaries(date time.Time, latitude, longitude float64) (Boundaries, error) {
	times := suncalc.GetTimes(date, latitude, longitude)

	b := Boundaries{
		AstronomicalDawn: times[suncalc.NightEnd].Value,
		NauticalDawn:     times[suncalc.NauticalDawn].Value,
		CivilDawn:        times[suncalc.Dawn].Value,
		Sunrise:          times[suncalc.Sunrise].Value,
		Sunset:           times[suncalc.Sunset].Value,
		CivilDusk:        times[suncalc.Dusk].Value,
		NauticalDusk:     times[suncalc.NauticalDusk].Value,
		AstronomicalDusk: times[suncalc.Night].Value,
	}

	for i, t := range b.ordered() {
		if d := t.Sub(date); d > maxBoundarySpread || d < -maxBoundarySpread {
			return Boundaries{}, errpolicy.NewDataFetchError("ephemeris",
				fmt.Sprintf("%s not reached on %s", boundaryNames[i], date.Format(time.DateOnly)), nil)
		}
	}
	if err := b.Validate(); err != nil {
		return Boundaries{}, errpolicy.NewDataFetchError("ephemeris", "invalid boundary set", err)
	}
	return b, nil
}
