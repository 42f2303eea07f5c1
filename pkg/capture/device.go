package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/twilight"
)

// Frame is one encoded image read from the device.
type Frame struct {
	Data   []byte
	Width  int
	Height int

	// Format is the file extension of the encoding, e.g. "jpg".
	Format string
}

// Device is a camera. Implementations need not be safe for concurrent use;
// LockedDevice serializes access.
type Device interface {
	// Configure applies exposure and gain.
	Configure(ctx context.Context, params twilight.Parameters) error

	// Read grabs and encodes one frame.
	Read(ctx context.Context) (Frame, error)

	// Close releases the device.
	Close() error
}

// DefaultReadRetry is the retry policy for frame reads.
var DefaultReadRetry = errpolicy.RetryOptions{
	MaxRetries:  3,
	BaseDelay:   500 * time.Millisecond,
	Exponential: true,
}

// LockedDevice serializes configure+read sequences against a Device so that
// scheduled and on-demand captures never interleave device calls.
type LockedDevice struct {
	mu      sync.Mutex
	dev     Device
	applied *twilight.Parameters
	retry   errpolicy.RetryOptions
	logger  *slog.Logger
}

// NewLockedDevice wraps dev. Frame reads are retried according to retry.
func NewLockedDevice(dev Device, retry errpolicy.RetryOptions) *LockedDevice {
	logger := slog.Default().With("component", "capture.device")
	if retry.Logger == nil {
		retry.Logger = logger
	}
	return &LockedDevice{
		dev:    dev,
		retry:  retry,
		logger: logger,
	}
}

// Capture applies params and reads a frame while holding the device lock.
// Parameters are only written when they differ from the last applied set.
// Failures are returned as device errors.
func (d *LockedDevice) Capture(ctx context.Context, params twilight.Parameters) (Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.applied == nil || *d.applied != params {
		if err := d.dev.Configure(ctx, params); err != nil {
			d.applied = nil
			return Frame{}, errpolicy.NewDeviceError(fmt.Sprintf("failed to apply %s", params), err)
		}
		applied := params
		d.applied = &applied
		d.logger.Info("camera parameters applied",
			"exposure", params.Exposure,
			"gain", params.Gain,
		)
	}

	frame, err := errpolicy.RetryValue(ctx, d.dev.Read, d.retry)
	if err != nil {
		return Frame{}, errpolicy.NewDeviceError("failed to read frame", err)
	}
	return frame, nil
}

// Applied returns the parameters currently set on the device.
func (d *LockedDevice) Applied() (twilight.Parameters, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.applied == nil {
		return twilight.Parameters{}, false
	}
	return *d.applied, true
}

// Ping checks the device answers a read. Used by health checks.
func (d *LockedDevice) Ping(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.dev.Read(ctx); err != nil {
		return errpolicy.NewDeviceError("device not responding", err)
	}
	return nil
}

// Close closes the underlying device.
func (d *LockedDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applied = nil
	return d.dev.Close()
}
