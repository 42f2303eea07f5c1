package health

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Pinger is implemented by capture devices.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DeviceCheck reports whether the camera answers.
func DeviceCheck(dev Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if dev == nil {
			return fmt.Errorf("no capture device configured")
		}
		return dev.Ping(ctx)
	}
}

// DirectoryCheck reports whether dir exists and accepts new files.
func DirectoryCheck(dir string) CheckFunc {
	return func(context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("storage directory unavailable: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		f, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			return fmt.Errorf("storage directory not writable: %w", err)
		}
		name := f.Name()
		f.Close()
		return os.Remove(name)
	}
}

// CaptureFreshnessCheck fails when the scheduler is running but no capture
// succeeded within maxAge. A stopped scheduler is healthy. last returns the
// zero time before the first capture.
func CaptureFreshnessCheck(running func() bool, last func() time.Time, maxAge time.Duration, now func() time.Time) CheckFunc {
	if now == nil {
		now = time.Now
	}
	return func(context.Context) error {
		if !running() {
			return nil
		}
		t := last()
		if t.IsZero() {
			return nil
		}
		if age := now().Sub(t); age > maxAge {
			return fmt.Errorf("last capture %s ago exceeds %s", age.Round(time.Second), maxAge)
		}
		return nil
	}
}
