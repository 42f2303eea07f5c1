package config

import (
	"sync"
)

var (
	// globalStore holds the process-wide configuration store.
	globalStore *Store

	// storeMutex protects access to globalStore.
	storeMutex sync.RWMutex
)

// Initialize loads configuration leniently from path and installs it as the
// global store. It returns the field errors that caused sections to be
// reset to defaults.
func Initialize(path string) (*Store, []FieldError, error) {
	cfg, problems, err := LoadSanitized(path)
	if err != nil {
		return nil, nil, err
	}

	store := NewStore(cfg)
	SetStore(store)
	return store, problems, nil
}

// GetStore returns the global store, or nil before Initialize.
//
// For testing, prefer passing a *Store explicitly.
func GetStore() *Store {
	storeMutex.RLock()
	defer storeMutex.RUnlock()
	return globalStore
}

// SetStore replaces the global store.
func SetStore(s *Store) {
	storeMutex.Lock()
	defer storeMutex.Unlock()
	globalStore = s
}

// MustGetStore returns the global store and panics before Initialize.
func MustGetStore() *Store {
	s := GetStore()
	if s == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return s
}
