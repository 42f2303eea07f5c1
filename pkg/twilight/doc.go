// Package twilight maps wall-clock time to a lighting period and the capture
// parameters associated with it.
//
// The sun's position divides each day into five periods, ordered from
// lightest to darkest:
//
//	Day          sunrise .. sunset
//	Civil        civil dawn .. sunrise, sunset .. civil dusk
//	Nautical     nautical dawn .. civil dawn, civil dusk .. nautical dusk
//	Astronomical astronomical dawn .. nautical dawn, nautical dusk .. astronomical dusk
//	Night        everything else
//
// Intervals are half-open, so an instant that falls exactly on a boundary
// belongs to the lighter of the two adjacent periods.
//
// Boundaries are computed once per calendar day by an Ephemeris and memoized
// in a BoundaryCache. When the ephemeris cannot produce a valid set (polar day
// or night), the cache remembers that and Resolve falls back to Night.
package twilight
