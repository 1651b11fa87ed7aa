package store

import (
	"context"
	"sync"

	"github.com/pagemorph/pagemorph/pkg/types"
)

// MemoryStore is an in-memory Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu      sync.RWMutex
	set     types.RuleSet
	enabled bool
}

// NewMemory creates an empty in-memory store with scanning enabled.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		set:     make(types.RuleSet),
		enabled: true,
	}
}

// Load returns a copy of the stored rule set.
func (s *MemoryStore) Load(ctx context.Context) (types.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Clone(), nil
}

// Save replaces the stored rule set.
func (s *MemoryStore) Save(ctx context.Context, set types.RuleSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = set.Clone()
	return nil
}

// Enabled returns the master enabled flag.
func (s *MemoryStore) Enabled(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled, nil
}

// SetEnabled sets the master enabled flag.
func (s *MemoryStore) SetEnabled(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
