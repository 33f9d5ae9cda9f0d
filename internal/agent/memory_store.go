package agent

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory agent store. Used in tests and single-node
// deployments where agents are loaded from config at startup.
type MemoryStore struct {
	mu     sync.RWMutex
	agents map[string]*Config
}

// NewMemoryStore creates a store seeded with the given agents.
func NewMemoryStore(agents ...*Config) *MemoryStore {
	s := &MemoryStore{agents: make(map[string]*Config, len(agents))}
	for _, a := range agents {
		s.agents[a.ID] = a
	}
	return s
}

// Get retrieves an agent by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// Put adds or replaces an agent.
func (s *MemoryStore) Put(a *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[a.ID] = a
}
