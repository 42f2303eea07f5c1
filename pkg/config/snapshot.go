package config

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is one published configuration. Snapshots are immutable: never
// modify Config through a snapshot.
type Snapshot struct {
	Version  uint64
	Config   *Config
	LoadedAt time.Time
}

// Store holds the active configuration snapshot. Reads are lock-free;
// publishing is serialized.
type Store struct {
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger

	// mu serializes publishing and guards listeners.
	mu        sync.Mutex
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(*Snapshot)
}

// NewStore creates a store whose first snapshot is cfg, version 1.
func NewStore(cfg *Config) *Store {
	s := &Store{logger: slog.Default().With("component", "config")}
	s.current.Store(&Snapshot{Version: 1, Config: cfg.Clone(), LoadedAt: time.Now()})
	return s
}

// Current returns the active snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Config returns the active configuration. Callers must not modify it.
func (s *Store) Config() *Config {
	return s.Current().Config
}

// Subscribe registers fn to run after every publish, in publish order.
// Listeners must not publish from inside the callback. The returned
// function removes the listener.
func (s *Store) Subscribe(fn func(*Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Update applies fn to a copy of the current configuration, validates the
// result and publishes it as the next version. On error nothing changes.
func (s *Store) Update(fn func(*Config) error) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().Config.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	return s.publishLocked(next)
}

// Replace validates cfg and publishes it as the next version.
func (s *Store) Replace(cfg *Config) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishLocked(cfg.Clone())
}

// Reload loads path leniently and publishes the result. Field errors are
// logged and the affected sections keep their defaults.
func (s *Store) Reload(path string) (*Snapshot, error) {
	cfg, problems, err := LoadSanitized(path)
	if err != nil {
		return nil, err
	}
	for _, p := range problems {
		s.logger.Warn("invalid configuration, section reset to defaults",
			"field", p.Field,
			"error", p.Message,
		)
	}
	return s.Replace(cfg)
}

func (s *Store) publishLocked(cfg *Config) (*Snapshot, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	snap := &Snapshot{Version: s.current.Load().Version + 1, Config: cfg, LoadedAt: time.Now()}
	s.current.Store(snap)

	s.logger.Info("configuration published", "version", snap.Version)
	for _, l := range s.listeners {
		l.fn(snap)
	}
	return snap, nil
}
