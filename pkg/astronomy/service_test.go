package astronomy

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rockets-cn/allsky/pkg/errpolicy"
	"github.com/rockets-cn/allsky/pkg/fetchcache"
)

type countingProvider struct {
	calls atomic.Int32
	err   error
}

func (p *countingProvider) Fetch(ctx context.Context, lat, lon float64, t time.Time) (Sky, error) {
	p.calls.Add(1)
	if p.err != nil {
		return Sky{}, p.err
	}
	return Sky{Timestamp: t, Observer: Observer{Latitude: lat, Longitude: lon}}, nil
}

func TestService_Current(t *testing.T) {
	now := time.Date(2024, 6, 21, 22, 0, 0, 0, time.UTC)
	p := &countingProvider{}
	s := NewService(p, Options{Now: func() time.Time { return now }})

	sky, err := s.Current(context.Background(), 31.2304, 121.4737)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if sky.Observer.Latitude != 31.23 || sky.Observer.Longitude != 121.47 {
		t.Errorf("observer = %+v, want rounded location", sky.Observer)
	}

	now = now.Add(599 * time.Second)
	s.Current(context.Background(), 31.23, 121.47)
	if got := p.calls.Load(); got != 1 {
		t.Errorf("provider called %d times within TTL, want 1", got)
	}

	now = now.Add(2 * time.Second)
	s.Current(context.Background(), 31.23, 121.47)
	if got := p.calls.Load(); got != 2 {
		t.Errorf("provider called %d times after TTL, want 2", got)
	}
}

func TestService_Failure(t *testing.T) {
	recorder := errpolicy.NewRecorder(5)
	s := NewService(&countingProvider{err: errors.New("boom")}, Options{Recorder: recorder})

	_, err := s.Current(context.Background(), 1, 2)
	if !errors.Is(err, fetchcache.ErrFetchFailed) {
		t.Fatalf("Current() error = %v, want ErrFetchFailed", err)
	}
	if errpolicy.KindOf(err) != errpolicy.KindDataFetch {
		t.Errorf("kind = %v, want data fetch", errpolicy.KindOf(err))
	}
	if recorder.Stats().TotalErrors != 1 {
		t.Errorf("TotalErrors = %d, want 1", recorder.Stats().TotalErrors)
	}
	if s.Snapshot(context.Background(), 1, 2) != nil {
		t.Error("Snapshot() should be nil when unavailable")
	}
}
