package errpolicy

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_FailsTwiceThenSucceeds(t *testing.T) {
	var calls int
	var delays []time.Duration

	opts := RetryOptions{
		MaxRetries:  3,
		BaseDelay:   500 * time.Millisecond,
		Exponential: true,
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	err := Retry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, opts)

	if err != nil {
		t.Fatalf("Retry() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delays[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestRetry_ObservedDelays(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}

	var stamps []time.Time
	err := Retry(context.Background(), func(ctx context.Context) error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 3 {
			return errors.New("transient")
		}
		return nil
	}, RetryOptions{MaxRetries: 3, BaseDelay: 500 * time.Millisecond, Exponential: true})

	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if len(stamps) != 3 {
		t.Fatalf("calls = %d, want 3", len(stamps))
	}

	want := []time.Duration{500 * time.Millisecond, time.Second}
	for i, w := range want {
		got := stamps[i+1].Sub(stamps[i])
		if got < w || got > w+250*time.Millisecond {
			t.Errorf("delay %d = %v, want about %v", i, got, w)
		}
	}
}

func TestRetry_Exhausted(t *testing.T) {
	var calls int
	final := errors.New("still broken")

	err := Retry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 3 {
			return final
		}
		return errors.New("broken")
	}, RetryOptions{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		Sleep:      func(context.Context, time.Duration) error { return nil },
	})

	if !errors.Is(err, final) {
		t.Errorf("Retry() error = %v, want %v", err, final)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int

	err := Retry(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	}, RetryOptions{MaxRetries: 5, BaseDelay: time.Hour})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryOptions_Delay(t *testing.T) {
	tests := []struct {
		name    string
		opts    RetryOptions
		attempt int
		want    time.Duration
	}{
		{"exponential first", RetryOptions{BaseDelay: 500 * time.Millisecond, Exponential: true}, 0, 500 * time.Millisecond},
		{"exponential third", RetryOptions{BaseDelay: 500 * time.Millisecond, Exponential: true}, 2, 2 * time.Second},
		{"flat", RetryOptions{BaseDelay: 500 * time.Millisecond}, 4, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetryValue(t *testing.T) {
	var calls int
	v, err := RetryValue(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("first")
		}
		return "frame", nil
	}, RetryOptions{MaxRetries: 1, Sleep: func(context.Context, time.Duration) error { return nil }})

	if err != nil {
		t.Fatalf("RetryValue() error = %v", err)
	}
	if v != "frame" {
		t.Errorf("RetryValue() = %q, want %q", v, "frame")
	}
}
