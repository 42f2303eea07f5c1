package weather

import (
	"maps"
	"strconv"
	"strings"
)

// Display keys.
const (
	KeyCloudCover     = "Cloud Cover"
	KeyHumidity       = "Humidity"
	KeyDewPoint       = "Dew Point"
	KeyPressure       = "Pressure"
	KeyWindSpeed      = "Wind Speed"
	KeyWindGust       = "Wind Gust"
	KeySkyTemperature = "SkyTemperature"
	KeyTemperature    = "Temperature"
	KeySkyQuality     = "Sky Quality"
	KeyRainRate       = "Rain Rate"
	KeyWeather        = "Weather"
	KeyVisibility     = "Visibility"
)

// NotAvailable is the value shown when a reading is missing.
const NotAvailable = "N/A"

// Keys lists the display keys in overlay order.
var Keys = []string{
	KeyCloudCover,
	KeyHumidity,
	KeyDewPoint,
	KeyPressure,
	KeyWindSpeed,
	KeyWindGust,
	KeySkyTemperature,
	KeyTemperature,
	KeySkyQuality,
	KeyRainRate,
	KeyWeather,
}

// Snapshot maps display keys to formatted readings.
type Snapshot map[string]string

// Unavailable returns a snapshot with every key set to NotAvailable.
func Unavailable() Snapshot {
	s := make(Snapshot, len(Keys))
	for _, k := range Keys {
		s[k] = NotAvailable
	}
	return s
}

// Clone returns a copy safe to hand to callers.
func (s Snapshot) Clone() Snapshot {
	return maps.Clone(s)
}

// Get returns the value for key, or NotAvailable.
func (s Snapshot) Get(key string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return NotAvailable
}

// CloudCover parses the cloud cover percentage.
func (s Snapshot) CloudCover() (float64, bool) {
	v := strings.TrimSpace(strings.TrimSuffix(s[KeyCloudCover], "%"))
	if v == "" || v == NotAvailable {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
