package retention

import (
	"context"
	"testing"
	"time"

	"github.com/rockets-cn/allsky/pkg/imagestore"
)

func recordAt(path string) imagestore.Record {
	return imagestore.Record{Path: path, CaptureTime: base}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "every 15 minutes", schedule: "*/15 * * * *", wantRunning: true},
		{name: "daily at 3 AM", schedule: "0 3 * * *", wantRunning: true},
		{name: "empty schedule", schedule: "", wantRunning: false},
		{name: "invalid cron", schedule: "invalid cron", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(newMemStore(), Config{MaxImages: 10}, nil, nil, nil)
			s := NewScheduler(p, tt.schedule)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := s.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if s.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", s.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning && s.NextRun() == nil {
				t.Error("NextRun() = nil for running scheduler")
			}
			s.Stop()
			if s.IsRunning() {
				t.Error("IsRunning() = true after Stop()")
			}
		})
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	p := NewPolicy(newMemStore(), Config{MaxImages: 10}, nil, nil, nil)
	s := NewScheduler(p, "0 * * * *")

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("scheduler still running after context cancel")
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	records := syntheticRecords(4)
	old := imagestore.Record{Path: "/images/old.jpg", CaptureTime: base.Add(-48 * time.Hour)}
	store := newMemStore(append(records, old)...)
	store.cutoff = base.Add(-24 * time.Hour)

	p := NewPolicy(store, Config{MaxImages: 10}, nil, nil, nil)
	s := NewScheduler(p, "")
	s.RunOnce(context.Background())

	if len(store.pruned) != 1 || !store.pruned[0].Equal(store.cutoff) {
		t.Fatalf("PruneOlderThan cutoffs = %v, want [%v]", store.pruned, store.cutoff)
	}
	if _, ok := store.records[old.Path]; ok {
		t.Error("record past the horizon should be pruned")
	}
	if len(store.records) != len(records) {
		t.Errorf("%d records left, want %d", len(store.records), len(records))
	}
}

func TestScheduler_RestartKeepsOneEntry(t *testing.T) {
	p := NewPolicy(newMemStore(), Config{MaxImages: 10}, nil, nil, nil)
	s := NewScheduler(p, "*/15 * * * *")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := s.Start(ctx); err != nil {
			t.Fatalf("Start() #%d error = %v", i+1, err)
		}
		s.Stop()
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	s.mu.Lock()
	entries := len(s.cron.Entries())
	s.mu.Unlock()
	if entries != 1 {
		t.Errorf("cron has %d entries after restarts, want 1", entries)
	}
}
