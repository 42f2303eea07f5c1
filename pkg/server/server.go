package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rockets-cn/allsky/pkg/config"
	"github.com/rockets-cn/allsky/pkg/station"
	"github.com/rockets-cn/allsky/pkg/telemetry/health"
	"github.com/rockets-cn/allsky/pkg/telemetry/metrics"
	"github.com/rockets-cn/allsky/pkg/telemetry/tracing"
)

// Options configures a Server.
type Options struct {
	// Station is required.
	Station *station.Station

	// Metrics serves /metrics when enabled. Optional.
	Metrics *metrics.Collector

	// Health backs /health and /ready. Default: NewHealthChecker(Station).
	Health *health.Checker

	// Tracer wraps requests in spans. Optional.
	Tracer *tracing.Tracer

	// Version, Commit and BuildTime are reported by /version.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the station's HTTP API.
type Server struct {
	config    config.ServerConfig
	telemetry config.TelemetryConfig
	station   *station.Station
	metrics   *metrics.Collector
	health    *health.Checker
	tracer    *tracing.Tracer
	hub       *Hub
	version   [3]string
	logger    *slog.Logger

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// New creates a server for opts.Station using its current configuration.
func New(opts Options) (*Server, error) {
	if opts.Station == nil {
		return nil, errors.New("server: station is required")
	}
	cfg := opts.Station.Config().Config()
	if opts.Health == nil {
		opts.Health = NewHealthChecker(opts.Station)
	}
	return &Server{
		config:    cfg.Server,
		telemetry: cfg.Telemetry,
		station:   opts.Station,
		metrics:   opts.Metrics,
		health:    opts.Health,
		tracer:    opts.Tracer,
		hub:       NewHub(opts.Station.Events()),
		version:   [3]string{opts.Version, opts.Commit, opts.BuildTime},
		logger:    slog.Default().With("component", "server"),
	}, nil
}

// NewHealthChecker registers the standard checks for st: the device and the
// image directory are critical, capture freshness is advisory.
func NewHealthChecker(st *station.Station) *health.Checker {
	cfg := st.Config().Config()
	maxAge := 3 * cfg.Capture.Interval
	checker := health.New(5 * time.Second)
	checker.RegisterCheck("device", health.DeviceCheck(st.Device()))
	checker.RegisterCheck("storage", health.DirectoryCheck(cfg.Storage.BasePath))
	checker.RegisterAdvisory("scheduler", health.CaptureFreshnessCheck(
		func() bool { return st.SchedulerStatus().Running },
		func() time.Time { return st.SchedulerStatus().LastCapture },
		maxAge,
		time.Now,
	))
	return checker
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.logger))
	r.Use(requestID)
	r.Use(traceRequests(s.tracer))
	r.Use(requestLogger(s.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/scheduler/start", s.handleSchedulerStart)
		r.Post("/scheduler/stop", s.handleSchedulerStop)
		r.Post("/capture", s.handleCapture)

		r.Get("/images", s.handleListImages)
		r.Get("/images/*", s.handleGetImage)
		r.Delete("/images/*", s.handleDeleteImage)

		r.Get("/storage", s.handleStorage)
		r.Get("/errors", s.handleErrors)
		r.Get("/stats", s.handleStats)

		r.Get("/weather", s.handleWeather)
		r.Post("/weather/refresh", s.handleWeatherRefresh)
		r.Get("/astronomy", s.handleAstronomy)
		r.Get("/period", s.handlePeriod)

		r.Put("/config/camera", s.handleCameraConfig)
	})

	r.Handle("/ws", s.hub)

	r.Get(s.telemetry.Health.LivenessPath, s.health.LivenessHandler())
	r.Get(s.telemetry.Health.ReadinessPath, s.health.ReadinessHandler())
	r.Get("/version", health.VersionHandler(s.version[0], s.version[1], s.version[2]))
	if s.metrics.Enabled() {
		r.Handle(s.telemetry.Metrics.Path, s.metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			r.Method+" is not allowed on "+r.URL.Path)
	})
	return r
}

// Start serves until ctx is cancelled or the listener fails, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Shutdown disconnects websocket clients and stops the HTTP server within
// the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		s.hub.Close()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		s.logger.Info("http server stopped")
	})
	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listener address while running.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}
