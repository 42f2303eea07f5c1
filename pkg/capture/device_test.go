package capture

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/twilight"
)

type fakeDevice struct {
	mu         sync.Mutex
	configures []twilight.Parameters
	reads      int
	failReads  int
	active     atomic.Int32
	overlap    atomic.Bool
}

func (d *fakeDevice) enter() {
	if d.active.Add(1) > 1 {
		d.overlap.Store(true)
	}
}

func (d *fakeDevice) leave() { d.active.Add(-1) }

func (d *fakeDevice) Configure(ctx context.Context, p twilight.Parameters) error {
	d.enter()
	defer d.leave()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.configures = append(d.configures, p)
	return nil
}

func (d *fakeDevice) Read(ctx context.Context) (Frame, error) {
	d.enter()
	defer d.leave()
	time.Sleep(time.Millisecond)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	if d.reads <= d.failReads {
		return Frame{}, errors.New("frame grab failed")
	}
	return Frame{Data: []byte{0xff, 0xd8}, Width: 2, Height: 1, Format: "jpg"}, nil
}

func (d *fakeDevice) Close() error { return nil }

var noWait = errpolicy.RetryOptions{
	MaxRetries: 3,
	Sleep:      func(context.Context, time.Duration) error { return nil },
}

func TestLockedDevice_ConfiguresOnlyOnChange(t *testing.T) {
	dev := &fakeDevice{}
	ld := NewLockedDevice(dev, noWait)
	ctx := context.Background()
	night := twilight.Parameters{Exposure: 5, Gain: 40}
	day := twilight.Parameters{Exposure: -5, Gain: 10}

	for _, p := range []twilight.Parameters{night, night, day, day, night} {
		if _, err := ld.Capture(ctx, p); err != nil {
			t.Fatalf("Capture() error = %v", err)
		}
	}

	if len(dev.configures) != 3 {
		t.Errorf("configure calls = %d, want 3", len(dev.configures))
	}
	if got, ok := ld.Applied(); !ok || got != night {
		t.Errorf("Applied() = %v, %v; want %v", got, ok, night)
	}
}

func TestLockedDevice_RetriesReads(t *testing.T) {
	dev := &fakeDevice{failReads: 2}
	ld := NewLockedDevice(dev, noWait)

	if _, err := ld.Capture(context.Background(), twilight.Parameters{}); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if dev.reads != 3 {
		t.Errorf("reads = %d, want 3", dev.reads)
	}
}

func TestLockedDevice_ExhaustedIsDeviceError(t *testing.T) {
	dev := &fakeDevice{failReads: 10}
	ld := NewLockedDevice(dev, noWait)

	_, err := ld.Capture(context.Background(), twilight.Parameters{})
	if errpolicy.KindOf(err) != errpolicy.KindDevice {
		t.Errorf("Capture() error kind = %v, want %v", errpolicy.KindOf(err), errpolicy.KindDevice)
	}
	if dev.reads != 4 {
		t.Errorf("reads = %d, want 4", dev.reads)
	}
}

func TestLockedDevice_SerializesAccess(t *testing.T) {
	dev := &fakeDevice{}
	ld := NewLockedDevice(dev, noWait)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ld.Capture(context.Background(), twilight.Parameters{Exposure: i % 3})
		}(i)
	}
	wg.Wait()

	if dev.overlap.Load() {
		t.Error("device calls overlapped")
	}
}

func TestPatternDevice(t *testing.T) {
	dev := NewPatternDevice(64, 48, 90)
	ctx := context.Background()

	if err := dev.Configure(ctx, twilight.Parameters{Exposure: 5, Gain: 40}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	frame, err := dev.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(frame.Data))
	if err != nil {
		t.Fatalf("frame is not a JPEG: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Errorf("frame size = %dx%d, want 64x48", cfg.Width, cfg.Height)
	}

	dev.Close()
	if _, err := dev.Read(ctx); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("Read() after Close error = %v, want ErrDeviceClosed", err)
	}
}
