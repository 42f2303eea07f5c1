package capture

import (
	"context"
	"time"
)

// GateSettings selects which checks the gate applies.
type GateSettings struct {
	NightOnly    bool
	WeatherCheck bool
}

// WeatherPredicate reports whether current conditions are worth capturing.
type WeatherPredicate func(ctx context.Context) bool

// Gate approves or denies a scheduled capture attempt.
type Gate struct {
	// Weather is consulted when WeatherCheck is set. Nil approves.
	Weather WeatherPredicate
}

// InNightWindow reports whether t's wall-clock hour is 18:00-06:59
// inclusive. The window spans 13 hours.
func InNightWindow(t time.Time) bool {
	h := t.Hour()
	return h >= 18 || h <= 6
}

// Approve reports whether a capture may run at now.
func (g *Gate) Approve(ctx context.Context, now time.Time, s GateSettings) bool {
	if s.NightOnly && !InNightWindow(now) {
		return false
	}
	if s.WeatherCheck && g != nil && g.Weather != nil && !g.Weather(ctx) {
		return false
	}
	return true
}
