package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rockets-cn/allsky/pkg/astronomy"
	"github.com/rockets-cn/allsky/pkg/capture"
	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/fetchcache"
	"github.com/rockets-cn/allsky/pkg/imagestore"
	"github.com/rockets-cn/allsky/pkg/imagestore/retention"
	"github.com/rockets-cn/allsky/pkg/telemetry/metrics"
	"github.com/rockets-cn/allsky/pkg/telemetry/tracing"
	"github.com/rockets-cn/allsky/pkg/twilight"
	"github.com/rockets-cn/allsky/pkg/weather"
)

// Options configures a Station. Only Config is required; every other
// component is built from the configuration when left nil.
type Options struct {
	Config *config.Store

	// Device is the camera. Default: the synthetic pattern device.
	Device capture.Device

	// Ephemeris computes sun boundaries. Default: twilight.SunCalc.
	Ephemeris twilight.Ephemeris

	// Weather overrides the configured weather provider.
	Weather weather.Provider

	// Astronomy overrides the star/sun/moon calculator.
	Astronomy astronomy.Provider

	// Index overrides the configured index backend.
	Index imagestore.Index

	// Archiver overrides the configured archive sink.
	Archiver retention.Archiver

	// Metrics receives station metrics. Optional.
	Metrics *metrics.Collector

	// Tracer records capture spans. Optional.
	Tracer *tracing.Tracer

	// Recorder collects errors. Default: a new recorder.
	Recorder *errpolicy.Recorder

	// Overlay annotates frames before they are saved. Optional.
	Overlay Overlay

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Station owns one instance of every component.
type Station struct {
	config      *config.Store
	device      *capture.LockedDevice
	boundaries  *twilight.BoundaryCache
	weather     *weather.Service
	astronomy   *astronomy.Service
	store       *imagestore.Store
	policy      *retention.Policy
	maintenance *retention.Scheduler
	scheduler   *capture.Scheduler
	recorder    *errpolicy.Recorder
	metrics     *metrics.Collector
	tracer      *tracing.Tracer
	events      *Broadcaster
	overlay     Overlay
	now         func() time.Time
	logger      *slog.Logger

	unsubscribe func()

	// mu guards the fields below.
	mu         sync.Mutex
	applied    *config.Config
	lastPeriod twilight.Period
	hasPeriod  bool
	closed     bool
}

// New builds a station from the current configuration snapshot. The
// scheduler is not started; call Start.
func New(ctx context.Context, opts Options) (*Station, error) {
	if opts.Config == nil {
		return nil, errors.New("station: configuration store is required")
	}
	cfg := opts.Config.Config()

	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Recorder == nil {
		opts.Recorder = errpolicy.NewRecorder(errpolicy.DefaultRecentCapacity)
	}
	if opts.Metrics != nil {
		opts.Recorder.OnRecord(opts.Metrics.RecordError)
	}
	if opts.Device == nil {
		opts.Device = NewPatternDevice(cfg.Camera)
	}
	if opts.Ephemeris == nil {
		opts.Ephemeris = twilight.SunCalc{}
	}
	if opts.Weather == nil {
		provider, err := NewWeatherProvider(cfg.Weather)
		if err != nil {
			return nil, err
		}
		opts.Weather = provider
	}
	if opts.Astronomy == nil {
		opts.Astronomy = astronomy.NewCalculator(cfg.Astronomy.MagnitudeLimit)
	}

	layout := NewLayout(cfg)
	if opts.Index == nil {
		index, err := NewIndex(cfg.Storage, layout)
		if err != nil {
			return nil, err
		}
		opts.Index = index
	}
	if opts.Archiver == nil {
		archiver, err := NewArchiver(ctx, cfg.Retention, layout)
		if err != nil {
			return nil, fmt.Errorf("failed to create archiver: %w", err)
		}
		opts.Archiver = archiver
	}

	boundaries, err := twilight.NewBoundaryCache(opts.Ephemeris, cfg.Station.BoundaryCacheSize)
	if err != nil {
		return nil, err
	}
	recorder := opts.Recorder
	boundaries.OnCompute = func(date string, err error) {
		if err != nil {
			recorder.Record(errpolicy.NewDataFetchError("ephemeris",
				"sun boundaries unavailable, using night parameters", err),
				map[string]any{"date": date})
		}
	}

	store, err := imagestore.Open(ctx, imagestore.Options{
		Layout:  layout,
		Index:   opts.Index,
		Horizon: cfg.Storage.Horizon,
		Now:     opts.Now,
	})
	if err != nil {
		return nil, err
	}

	// Keep the collector typed nil-safe: a nil *Collector must not become a
	// non-nil fetchcache.Observer.
	var observer fetchcache.Observer
	if opts.Metrics != nil {
		observer = opts.Metrics
	}

	s := &Station{
		config:     opts.Config,
		device:     capture.NewLockedDevice(opts.Device, cameraRetry(cfg.Camera)),
		boundaries: boundaries,
		weather: weather.NewService(opts.Weather, weather.Options{
			TTL:               cfg.Weather.CacheDuration,
			ClearSkyThreshold: cfg.Weather.ClearSkyThreshold,
			Observer:          observer,
			Recorder:          opts.Recorder,
			Now:               opts.Now,
		}),
		astronomy: astronomy.NewService(opts.Astronomy, astronomy.Options{
			TTL:      cfg.Astronomy.CacheDuration,
			Observer: observer,
			Recorder: opts.Recorder,
			Now:      opts.Now,
		}),
		store:    store,
		recorder: opts.Recorder,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		events:   NewBroadcaster(),
		overlay:  opts.Overlay,
		now:      opts.Now,
		applied:  cfg,
		logger:   slog.Default().With("component", "station"),
	}

	s.policy = retention.NewPolicy(store, retentionConfig(cfg.Retention), opts.Archiver,
		NewManifest(cfg.Retention, layout), opts.Recorder)
	s.policy.OnEviction = s.onEviction
	s.maintenance = retention.NewScheduler(s.policy, cfg.Retention.Schedule)

	s.scheduler = capture.NewScheduler(s.scheduledCapture, capture.SchedulerOptions{
		Gate:        &capture.Gate{Weather: s.clearSky},
		Recorder:    opts.Recorder,
		JoinTimeout: cfg.Capture.JoinTimeout,
		MaxBackoff:  cfg.Capture.MaxBackoff,
		Now:         s.localNow,
		OnCapture:   opts.Metrics.RecordCapture,
	})

	s.unsubscribe = opts.Config.Subscribe(s.onConfig)
	s.refreshStorageMetrics()

	s.logger.Info("station ready",
		"name", cfg.Station.Name,
		"latitude", cfg.Station.Latitude,
		"longitude", cfg.Station.Longitude,
		"images", store.Count(),
	)
	return s, nil
}

func cameraRetry(cfg config.CameraConfig) errpolicy.RetryOptions {
	retry := capture.DefaultReadRetry
	if cfg.ReadRetries > 0 {
		retry.MaxRetries = cfg.ReadRetries
	}
	if cfg.RetryDelay > 0 {
		retry.BaseDelay = cfg.RetryDelay
	}
	return retry
}

// Start begins background work: scheduled captures when auto capture is
// enabled, and retention maintenance when a schedule is configured.
func (s *Station) Start(ctx context.Context) error {
	if err := s.maintenance.Start(ctx); err != nil {
		return err
	}
	s.StartScheduler()
	return nil
}

// Close stops background work and releases the device and the index.
// Close is idempotent.
func (s *Station) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.maintenance.Stop()

	var errs []error
	if err := s.scheduler.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := s.device.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close device: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close index: %w", err))
	}
	return errors.Join(errs...)
}

// StartScheduler starts scheduled captures with the configured settings.
// It returns false when already running or auto capture is disabled.
func (s *Station) StartScheduler() bool {
	started := s.scheduler.Start(schedulerSettings(s.config.Config().Capture))
	if started {
		s.events.Publish(Event{Type: EventScheduler, Time: s.now(), Data: map[string]any{"running": true}})
	}
	return started
}

// StopScheduler stops scheduled captures.
func (s *Station) StopScheduler() error {
	wasRunning := s.scheduler.IsRunning()
	err := s.scheduler.Stop()
	if wasRunning {
		s.events.Publish(Event{Type: EventScheduler, Time: s.now(), Data: map[string]any{"running": false}})
	}
	return err
}

// SchedulerStatus returns the scheduler status surface.
func (s *Station) SchedulerStatus() capture.Status {
	return s.scheduler.Status()
}

// Device returns the serialized capture device.
func (s *Station) Device() *capture.LockedDevice {
	return s.device
}

// Store returns the image store.
func (s *Station) Store() *imagestore.Store {
	return s.store
}

// Policy returns the retention policy.
func (s *Station) Policy() *retention.Policy {
	return s.policy
}

// Recorder returns the station's error recorder.
func (s *Station) Recorder() *errpolicy.Recorder {
	return s.recorder
}

// Events returns the station event feed.
func (s *Station) Events() *Broadcaster {
	return s.events
}

// Config returns the configuration store.
func (s *Station) Config() *config.Store {
	return s.config
}

// Location returns the configured observing site.
func (s *Station) Location() twilight.Location {
	return s.config.Config().Station.Location()
}

// localNow is the current time in the station's zone.
func (s *Station) localNow() time.Time {
	return s.now().In(s.Location().TZ)
}

// Period resolves the lighting period and parameters at t.
func (s *Station) Period(t time.Time) twilight.Resolution {
	cfg := s.config.Config()
	return s.boundaries.Resolve(t, cfg.Station.Location(), cfg.Camera.ParameterTable())
}

// CurrentPeriod resolves the lighting period now.
func (s *Station) CurrentPeriod() twilight.Resolution {
	return s.Period(s.now())
}

// Weather returns the current weather snapshot for the station.
func (s *Station) Weather(ctx context.Context) (weather.Snapshot, error) {
	loc := s.Location()
	return s.weather.Current(ctx, loc.Latitude, loc.Longitude)
}

// RefreshWeather discards the cached snapshot and fetches a new one.
func (s *Station) RefreshWeather(ctx context.Context) (weather.Snapshot, error) {
	loc := s.Location()
	return s.weather.ForceUpdate(ctx, loc.Latitude, loc.Longitude)
}

// WeatherProvider returns the name of the active weather provider.
func (s *Station) WeatherProvider() string {
	return s.weather.Provider().Name()
}

// Sky returns the current sky computation.
func (s *Station) Sky(ctx context.Context) (astronomy.Sky, error) {
	loc := s.Location()
	return s.astronomy.Current(ctx, loc.Latitude, loc.Longitude)
}

// SkySummary combines the sky with the current lighting period.
func (s *Station) SkySummary(ctx context.Context) (astronomy.Summary, error) {
	sky, err := s.Sky(ctx)
	if err != nil {
		return astronomy.Summary{}, err
	}
	now := s.now()
	return astronomy.Summarize(sky, s.Period(now), now), nil
}

func (s *Station) clearSky(ctx context.Context) bool {
	loc := s.Location()
	return s.weather.ClearSky(ctx, loc.Latitude, loc.Longitude)
}
