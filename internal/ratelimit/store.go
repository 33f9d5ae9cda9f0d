// Package ratelimit implements the sliding-window quota checks guarding the
// public chat endpoint.
package ratelimit

import (
	"sync"
	"time"
)

// entry is one counter window for a single key.
type entry struct {
	count   int
	resetAt time.Time
}

// CounterStore is an in-memory key→counter map with window expiry. It is the
// shared mutable state behind every rate-limit policy; increments on the same
// key are atomic under the store mutex.
type CounterStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time

	sweepEvery time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

// CounterStoreOption configures a CounterStore.
type CounterStoreOption func(*CounterStore)

// WithClock overrides the store's time source. Used by tests.
func WithClock(now func() time.Time) CounterStoreOption {
	return func(s *CounterStore) { s.now = now }
}

// WithSweepInterval sets how often expired entries are removed.
func WithSweepInterval(d time.Duration) CounterStoreOption {
	return func(s *CounterStore) { s.sweepEvery = d }
}

// NewCounterStore creates a counter store. Call Start to begin the background
// expiry sweep and Stop to end it.
func NewCounterStore(opts ...CounterStoreOption) *CounterStore {
	s := &CounterStore{
		entries:    make(map[string]*entry),
		now:        time.Now,
		sweepEvery: time.Minute,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Increment bumps the counter for key within the given window. The first call
// for a key (or the first after its window lapsed) starts a fresh window with
// count 1; later calls inside the window share its reset time.
//
// The error return satisfies the Counter interface; the in-memory store never
// fails.
func (s *CounterStore) Increment(key string, window time.Duration) (count int, resetAt time.Time, err error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = e
		return e.count, e.resetAt, nil
	}

	e.count++
	return e.count, e.resetAt, nil
}

// Len reports the number of live entries. Used by tests and the sweep.
func (s *CounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start launches the background sweep goroutine.
func (s *CounterStore) Start() {
	go func() {
		ticker := time.NewTicker(s.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the background sweep.
func (s *CounterStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// sweep removes expired entries. It snapshots candidate keys under the lock,
// releases it, then deletes in a second short critical section so concurrent
// increments are never blocked for a full scan.
func (s *CounterStore) sweep() {
	now := s.now()

	s.mu.Lock()
	expired := make([]string, 0, len(s.entries))
	for key, e := range s.entries {
		if now.After(e.resetAt) {
			expired = append(expired, key)
		}
	}
	s.mu.Unlock()

	if len(expired) == 0 {
		return
	}

	s.mu.Lock()
	for _, key := range expired {
		// Re-check: the key may have started a fresh window meanwhile.
		if e, ok := s.entries[key]; ok && now.After(e.resetAt) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}
