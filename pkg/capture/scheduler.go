package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
)

const (
	// DefaultJoinTimeout bounds how long Stop waits for the loop to exit.
	DefaultJoinTimeout = 5 * time.Second

	// DefaultMaxBackoff caps the wait after a failed capture.
	DefaultMaxBackoff = 60 * time.Second
)

// ErrStopTimeout is returned by Stop when the loop did not exit in time.
var ErrStopTimeout = errors.New("capture loop did not stop within timeout")

// Settings configures the scheduler loop.
type Settings struct {
	AutoCapture  bool
	Interval     time.Duration
	NightOnly    bool
	WeatherCheck bool
}

func (s Settings) gate() GateSettings {
	return GateSettings{NightOnly: s.NightOnly, WeatherCheck: s.WeatherCheck}
}

// Status is the scheduler status surface.
type Status struct {
	Running      bool      `json:"running"`
	Interval     float64   `json:"interval"`
	NightOnly    bool      `json:"night_only"`
	WeatherCheck bool      `json:"weather_check"`
	Captures     uint64    `json:"captures"`
	Failures     uint64    `json:"failures"`
	Skipped      uint64    `json:"skipped"`
	LastCapture  time.Time `json:"last_capture,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

// Callback performs one capture end to end.
type Callback func(ctx context.Context) error

// SchedulerOptions configures a Scheduler. Zero values use defaults.
type SchedulerOptions struct {
	Gate        *Gate
	Recorder    *errpolicy.Recorder
	JoinTimeout time.Duration
	MaxBackoff  time.Duration

	// Now returns the wall-clock time used by the gate. Default: time.Now.
	Now func() time.Time

	// OnCapture is called after every attempt with its outcome. Optional.
	OnCapture func(err error, elapsed time.Duration)
}

// Scheduler runs the capture callback periodically in the background.
type Scheduler struct {
	callback    Callback
	gate        *Gate
	recorder    *errpolicy.Recorder
	joinTimeout time.Duration
	maxBackoff  time.Duration
	now         func() time.Time
	onCapture   func(err error, elapsed time.Duration)
	logger      *slog.Logger

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	// mu guards the fields below. The loop never holds it while capturing.
	mu          sync.RWMutex
	running     bool
	settings    Settings
	captures    uint64
	failures    uint64
	skipped     uint64
	lastCapture time.Time
	lastErr     string
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(callback Callback, opts SchedulerOptions) *Scheduler {
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = DefaultJoinTimeout
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Recorder == nil {
		opts.Recorder = errpolicy.NewRecorder(errpolicy.DefaultRecentCapacity)
	}
	return &Scheduler{
		callback:    callback,
		gate:        opts.Gate,
		recorder:    opts.Recorder,
		joinTimeout: opts.JoinTimeout,
		maxBackoff:  opts.MaxBackoff,
		now:         opts.Now,
		onCapture:   opts.OnCapture,
		logger:      slog.Default().With("component", "capture.scheduler"),
	}
}

// Start launches the capture loop. It returns false without doing anything
// when the scheduler is already running, auto capture is disabled or the
// interval is not positive.
func (s *Scheduler) Start(settings Settings) bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.IsRunning() {
		s.logger.Warn("scheduler already running")
		return false
	}
	if !settings.AutoCapture {
		s.logger.Info("auto capture disabled, scheduler not started")
		return false
	}
	if settings.Interval <= 0 {
		s.logger.Error("invalid capture interval", "interval", settings.Interval)
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.running = true
	s.settings = settings
	s.mu.Unlock()

	s.cancel = cancel
	s.done = done
	go s.loop(ctx, done)

	s.logger.Info("scheduler started",
		"interval", settings.Interval.String(),
		"night_only", settings.NightOnly,
		"weather_check", settings.WeatherCheck,
	)
	return true
}

// Stop cancels the loop and waits up to the join timeout for it to exit.
// Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	done := s.done
	s.cancel = nil
	s.done = nil

	var err error
	select {
	case <-done:
		s.logger.Info("scheduler stopped")
	case <-time.After(s.joinTimeout):
		err = fmt.Errorf("%w (%s)", ErrStopTimeout, s.joinTimeout)
		s.logger.Warn("scheduler stop timed out, capture still in progress",
			"timeout", s.joinTimeout.String(),
		)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return err
}

// UpdateSettings changes interval and gating for a running loop. The new
// values apply from the next iteration.
func (s *Scheduler) UpdateSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Status returns a snapshot of the scheduler state without waiting on the
// loop.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Running:      s.running,
		Interval:     s.settings.Interval.Seconds(),
		NightOnly:    s.settings.NightOnly,
		WeatherCheck: s.settings.WeatherCheck,
		Captures:     s.captures,
		Failures:     s.failures,
		Skipped:      s.skipped,
		LastCapture:  s.lastCapture,
		LastError:    s.lastErr,
	}
}

func (s *Scheduler) currentSettings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		settings := s.currentSettings()
		wait := settings.Interval

		if s.gate.Approve(ctx, s.now(), settings.gate()) {
			// Cancellation may have arrived while the gate was consulting
			// the weather.
			if ctx.Err() != nil {
				return
			}
			if err := s.attempt(ctx); err != nil {
				wait = min(settings.Interval, s.maxBackoff)
			}
		} else {
			s.mu.Lock()
			s.skipped++
			s.mu.Unlock()
			s.logger.Debug("capture skipped by gate",
				"night_only", settings.NightOnly,
				"weather_check", settings.WeatherCheck,
			)
		}

		timer.Reset(wait)
	}
}

// attempt runs the callback once, converting panics to errors.
func (s *Scheduler) attempt(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capture callback panicked: %v", r)
		}
		elapsed := time.Since(start)
		s.finish(err, elapsed)
	}()
	return s.callback(ctx)
}

func (s *Scheduler) finish(err error, elapsed time.Duration) {
	s.mu.Lock()
	if err != nil {
		s.failures++
		s.lastErr = err.Error()
	} else {
		s.captures++
		s.lastCapture = s.now()
		s.lastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.recorder.Record(err, map[string]any{"operation": "scheduled_capture"})
	} else {
		s.logger.Info("scheduled capture complete", "duration_ms", elapsed.Milliseconds())
	}
	if s.onCapture != nil {
		s.onCapture(err, elapsed)
	}
}
