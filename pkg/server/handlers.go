package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rockets-cn/allsky/pkg/capture"
	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/imagestore"
	"github.com/rockets-cn/allsky/pkg/twilight"
	"github.com/rockets-cn/allsky/pkg/weather"
)

// DefaultImageLimit caps /api/images when no limit is given.
const DefaultImageLimit = 100

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Station          string              `json:"station"`
	Latitude         float64             `json:"latitude"`
	Longitude        float64             `json:"longitude"`
	Timezone         string              `json:"timezone"`
	Period           twilight.Period     `json:"period"`
	Parameters       twilight.Parameters `json:"parameters"`
	Scheduler        capture.Status      `json:"scheduler"`
	WeatherProvider  string              `json:"weather_provider"`
	Images           int                 `json:"images"`
	WebsocketClients int                 `json:"websocket_clients"`
	Time             time.Time           `json:"time"`
}

// Image is a record plus the URL it is served from.
type Image struct {
	imagestore.Record
	URL string `json:"url"`
}

// ImageList is returned by GET /api/images.
type ImageList struct {
	Images []Image `json:"images"`
	Count  int     `json:"count"`
}

// WeatherResponse is returned by the weather endpoints.
type WeatherResponse struct {
	Provider string           `json:"provider"`
	ClearSky bool             `json:"clear_sky"`
	Data     weather.Snapshot `json:"data"`
}

// CameraUpdate is the body of PUT /api/config/camera. Omitted fields keep
// their current values.
type CameraUpdate struct {
	Settings map[string]twilight.Parameters `json:"settings"`
	Quality  *int                           `json:"quality,omitempty"`
}

// CameraResponse is returned by PUT /api/config/camera.
type CameraResponse struct {
	Version  uint64                         `json:"version"`
	Quality  int                            `json:"quality"`
	Settings map[string]twilight.Parameters `json:"settings"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.station.Config().Config()
	res := s.station.CurrentPeriod()
	writeJSON(w, http.StatusOK, StatusResponse{
		Station:          cfg.Station.Name,
		Latitude:         cfg.Station.Latitude,
		Longitude:        cfg.Station.Longitude,
		Timezone:         cfg.Station.Timezone,
		Period:           res.Period,
		Parameters:       res.Parameters,
		Scheduler:        s.station.SchedulerStatus(),
		WeatherProvider:  s.station.WeatherProvider(),
		Images:           s.station.Store().Count(),
		WebsocketClients: s.hub.Clients(),
		Time:             time.Now(),
	})
}

func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	if s.station.SchedulerStatus().Running {
		writeError(w, r, http.StatusConflict, "conflict", "scheduler is already running")
		return
	}
	if !s.station.StartScheduler() {
		writeError(w, r, http.StatusBadRequest, "invalid_request",
			"auto capture is disabled in the configuration")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "started", "scheduler": s.station.SchedulerStatus()})
}

func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	if err := s.station.StopScheduler(); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "stopped", "scheduler": s.station.SchedulerStatus()})
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	rec, err := s.station.CaptureOnce(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.image(rec))
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseTime(q.Get("start"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "start: "+err.Error())
		return
	}
	end, err := parseTime(q.Get("end"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "end: "+err.Error())
		return
	}
	limit := DefaultImageLimit
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
	}

	records, err := s.station.Store().Query(r.Context(), start, end, limit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	out := ImageList{Images: make([]Image, 0, len(records)), Count: len(records)}
	for _, rec := range records {
		out.Images = append(out.Images, s.image(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// parseTime accepts RFC 3339 timestamps and plain dates. Empty means open.
func parseTime(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q", v)
	}
	return &t, nil
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	path, ok := s.imagePath(w, r)
	if !ok {
		return
	}
	rec, found := s.station.Store().Get(path)
	if !found {
		writeFailure(w, r, fmt.Errorf("%w: %s", imagestore.ErrNotFound, chi.URLParam(r, "*")))
		return
	}
	if r.URL.Query().Get("meta") != "" {
		writeJSON(w, http.StatusOK, s.image(rec))
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, r, http.StatusNotFound, "not_found", "image file is missing")
			return
		}
		writeFailure(w, r, errpolicy.NewStorageError("open_image", path, err))
		return
	}
	defer f.Close()
	http.ServeContent(w, r, filepath.Base(path), rec.CaptureTime, f)
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	path, ok := s.imagePath(w, r)
	if !ok {
		return
	}
	if err := s.station.Store().Delete(r.Context(), path); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// imagePath maps the wildcard URL segment to a path under the image root.
func (s *Server) imagePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	rel := chi.URLParam(r, "*")
	clean := filepath.Clean(filepath.FromSlash(rel))
	if rel == "" || filepath.IsAbs(clean) || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid image path")
		return "", false
	}
	return filepath.Join(s.station.Store().Layout().Base, clean), true
}

func (s *Server) image(rec imagestore.Record) Image {
	img := Image{Record: rec}
	if rel, err := s.station.Store().Layout().Rel(rec.Path); err == nil {
		img.URL = "/api/images/" + filepath.ToSlash(rel)
	}
	return img
}

func (s *Server) handleStorage(w http.ResponseWriter, r *http.Request) {
	stats, err := s.station.StorageStats()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	recent := s.station.Recorder().Recent()
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		if n < len(recent) {
			recent = recent[len(recent)-n:]
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":  s.station.Recorder().Stats(),
		"recent": recent,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.station.Statistics()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	snap, err := s.station.Weather(r.Context())
	s.writeWeather(w, r, snap, err)
}

func (s *Server) handleWeatherRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.station.RefreshWeather(r.Context())
	s.writeWeather(w, r, snap, err)
}

func (s *Server) writeWeather(w http.ResponseWriter, r *http.Request, snap weather.Snapshot, err error) {
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	threshold := s.station.Config().Config().Weather.ClearSkyThreshold
	cover, known := snap.CloudCover()
	writeJSON(w, http.StatusOK, WeatherResponse{
		Provider: s.station.WeatherProvider(),
		ClearSky: !known || cover <= threshold,
		Data:     snap,
	})
}

func (s *Server) handleAstronomy(w http.ResponseWriter, r *http.Request) {
	sky, err := s.station.Sky(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	summary, err := s.station.SkySummary(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary, "sky": sky})
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.station.CurrentPeriod())
}

func (s *Server) handleCameraConfig(w http.ResponseWriter, r *http.Request) {
	var body CameraUpdate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return
	}
	for name := range body.Settings {
		if _, err := twilight.ParsePeriod(name); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	snap, err := s.station.Config().Update(func(c *config.Config) error {
		if c.Camera.Settings == nil {
			c.Camera.Settings = make(map[string]twilight.Parameters, len(body.Settings))
		}
		for name, params := range body.Settings {
			c.Camera.Settings[name] = params
		}
		if body.Quality != nil {
			c.Camera.Quality = *body.Quality
		}
		return nil
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "camera settings updated", "version", snap.Version)
	writeJSON(w, http.StatusOK, CameraResponse{
		Version:  snap.Version,
		Quality:  snap.Config.Camera.Quality,
		Settings: snap.Config.Camera.ParameterTable().Map(),
	})
}
