package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
)

const (
	// DefaultOpenWeatherMapURL is the current-weather API base.
	DefaultOpenWeatherMapURL = "https://api.openweathermap.org/data/2.5"

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 10 * time.Second
)

// OpenWeatherMapConfig configures the OpenWeatherMap provider.
type OpenWeatherMapConfig struct {
	APIKey  string
	BaseURL string
	Lang    string
	Timeout time.Duration

	// Retry wraps each fetch. Zero value means a single attempt.
	Retry errpolicy.RetryOptions
}

// OpenWeatherMap reads current conditions from the OpenWeatherMap API.
type OpenWeatherMap struct {
	config OpenWeatherMapConfig
	client *http.Client
	logger *slog.Logger
}

// NewOpenWeatherMap creates a provider.
func NewOpenWeatherMap(config OpenWeatherMapConfig) *OpenWeatherMap {
	if config.BaseURL == "" {
		config.BaseURL = DefaultOpenWeatherMapURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Lang == "" {
		config.Lang = "en"
	}
	return &OpenWeatherMap{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: slog.Default().With("component", "weather.openweathermap"),
	}
}

// Name implements Provider.
func (o *OpenWeatherMap) Name() string {
	return "openweathermap"
}

// Configured reports whether an API key is set.
func (o *OpenWeatherMap) Configured() bool {
	return o.config.APIKey != ""
}

// Fetch implements Provider.
func (o *OpenWeatherMap) Fetch(ctx context.Context, lat, lon float64) (Snapshot, error) {
	if !o.Configured() {
		return nil, errpolicy.NewDataFetchError(o.Name(), "API key not configured", nil)
	}

	opts := o.config.Retry
	if opts.Logger == nil {
		opts.Logger = o.logger
	}
	snap, err := errpolicy.RetryValue(ctx, func(ctx context.Context) (Snapshot, error) {
		return o.fetchOnce(ctx, lat, lon)
	}, opts)
	if err != nil {
		return nil, errpolicy.NewDataFetchError(o.Name(), "request failed", err)
	}

	o.logger.Debug("weather updated",
		"temperature", snap[KeyTemperature],
		"weather", snap[KeyWeather],
	)
	return snap, nil
}

type owmResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Visibility float64 `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain *struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}

func (o *OpenWeatherMap) fetchOnce(ctx context.Context, lat, lon float64) (Snapshot, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", o.config.APIKey)
	q.Set("units", "metric")
	q.Set("lang", o.config.Lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.config.BaseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var data owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return data.snapshot(), nil
}

func (r owmResponse) snapshot() Snapshot {
	s := Unavailable()
	s[KeyCloudCover] = fmt.Sprintf("%.0f%%", r.Clouds.All)
	s[KeyHumidity] = fmt.Sprintf("%.0f%%", r.Main.Humidity)
	s[KeyPressure] = fmt.Sprintf("%.0f hPa", r.Main.Pressure)
	s[KeyTemperature] = fmt.Sprintf("%.1f°C", r.Main.Temp)
	s[KeyWindSpeed] = fmt.Sprintf("%.1f m/s", r.Wind.Speed)
	s[KeyWindGust] = fmt.Sprintf("%.1f m/s", r.Wind.Gust)
	s[KeyVisibility] = fmt.Sprintf("%.1f km", r.Visibility/1000)
	s[KeyRainRate] = "0.0 mm/h"
	if r.Rain != nil {
		s[KeyRainRate] = fmt.Sprintf("%.1f mm/h", r.Rain.OneHour)
	}
	if len(r.Weather) > 0 && r.Weather[0].Description != "" {
		s[KeyWeather] = r.Weather[0].Description
	}
	if r.Main.Humidity > 0 {
		s[KeyDewPoint] = fmt.Sprintf("%.1f°C", DewPoint(r.Main.Temp, r.Main.Humidity))
	}
	return s
}

// DewPoint returns the dew point in °C using the Magnus approximation.
func DewPoint(tempC, humidity float64) float64 {
	const a, b = 17.27, 237.7
	alpha := a*tempC/(b+tempC) + math.Log(humidity/100)
	return b * alpha / (a - alpha)
}
