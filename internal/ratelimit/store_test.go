package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a settable time source for window tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCounterStoreIncrement(t *testing.T) {
	t.Run("first increment starts a window with count 1", func(t *testing.T) {
		clock := newFakeClock(time.Unix(1000, 0))
		store := NewCounterStore(WithClock(clock.Now))

		count, resetAt, err := store.Increment("k", time.Minute)
		if err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
		if count != 1 {
			t.Errorf("count = %d, want 1", count)
		}
		if want := clock.Now().Add(time.Minute); !resetAt.Equal(want) {
			t.Errorf("resetAt = %v, want %v", resetAt, want)
		}
	})

	t.Run("increments within the window share the reset time", func(t *testing.T) {
		clock := newFakeClock(time.Unix(1000, 0))
		store := NewCounterStore(WithClock(clock.Now))

		_, first, _ := store.Increment("k", time.Minute)
		clock.Advance(30 * time.Second)
		count, second, _ := store.Increment("k", time.Minute)

		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
		if !second.Equal(first) {
			t.Errorf("resetAt changed within window: %v != %v", second, first)
		}
	})

	t.Run("expired window restarts at count 1", func(t *testing.T) {
		clock := newFakeClock(time.Unix(1000, 0))
		store := NewCounterStore(WithClock(clock.Now))

		for i := 0; i < 5; i++ {
			store.Increment("k", time.Minute)
		}
		clock.Advance(61 * time.Second)

		count, resetAt, _ := store.Increment("k", time.Minute)
		if count != 1 {
			t.Errorf("count after expiry = %d, want 1", count)
		}
		if want := clock.Now().Add(time.Minute); !resetAt.Equal(want) {
			t.Errorf("resetAt = %v, want %v", resetAt, want)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		store := NewCounterStore()

		store.Increment("a", time.Minute)
		store.Increment("a", time.Minute)
		count, _, _ := store.Increment("b", time.Minute)

		if count != 1 {
			t.Errorf("count for fresh key = %d, want 1", count)
		}
	})
}

func TestCounterStoreConcurrent(t *testing.T) {
	store := NewCounterStore()

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				store.Increment("shared", time.Hour)
			}
		}()
	}
	wg.Wait()

	count, _, _ := store.Increment("shared", time.Hour)
	if want := goroutines*perGoroutine + 1; count != want {
		t.Errorf("count = %d, want %d (lost increments under concurrency)", count, want)
	}
}

func TestCounterStoreSweep(t *testing.T) {
	clock := newFakeClock(time.Unix(1000, 0))
	store := NewCounterStore(WithClock(clock.Now))

	store.Increment("old", time.Minute)
	clock.Advance(2 * time.Minute)
	store.Increment("fresh", time.Minute)

	store.sweep()

	if got := store.Len(); got != 1 {
		t.Errorf("Len() after sweep = %d, want 1", got)
	}

	// The swept key starts over cleanly.
	count, _, _ := store.Increment("old", time.Minute)
	if count != 1 {
		t.Errorf("count for swept key = %d, want 1", count)
	}
}
