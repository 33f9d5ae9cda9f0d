package ratelimit

import (
	"log/slog"
	"time"
)

// Counter is the storage backend for window counters. CounterStore is the
// in-process implementation; a distributed backend can be swapped in behind
// the same contract.
type Counter interface {
	Increment(key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// Decision is the outcome of evaluating all policies for one request.
// Remaining is -1 when no counter produced data (every backend errored and
// the request was allowed through); such a decision carries no quota to
// report.
type Decision struct {
	Allowed    bool
	Policy     PolicyKind
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	Message    string
}

// Limiter evaluates the closed set of quota policies against a shared
// counter backend.
type Limiter struct {
	counter  Counter
	policies []Policy
	logger   *slog.Logger
	now      func() time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLimiterClock overrides the limiter's time source. Used by tests.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a limiter over the given counter backend and policies.
// Policies are evaluated in slice order, failing fast on the first breach.
func NewLimiter(counter Counter, policies []Policy, logger *slog.Logger, opts ...LimiterOption) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{
		counter:  counter,
		policies: policies,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check evaluates all policies for the identity. The first policy over budget
// produces a rejection carrying that policy's limit, reset, and message;
// remaining policies are skipped so their counters are not consumed. When
// every policy passes, the decision reports the most restrictive remaining
// quota so clients see the binding constraint.
//
// A counter backend failure fails open: chat availability beats quota
// precision, so the error is logged and the request allowed.
func (l *Limiter) Check(id Identity) Decision {
	binding := Decision{Allowed: true, Remaining: -1}

	for _, p := range l.policies {
		count, resetAt, err := l.counter.Increment(p.KeyFor(id), p.Window)
		if err != nil {
			l.logger.Error("rate limit counter unavailable, failing open",
				"policy", p.Kind.String(), "error", err)
			continue
		}

		if count > p.Max {
			retry := resetAt.Sub(l.now())
			if retry < 0 {
				retry = 0
			}
			return Decision{
				Allowed:    false,
				Policy:     p.Kind,
				Limit:      p.Max,
				Remaining:  0,
				ResetAt:    resetAt,
				RetryAfter: retry,
				Message:    p.Message,
			}
		}

		remaining := p.Max - count
		if binding.Remaining < 0 || remaining < binding.Remaining {
			binding.Policy = p.Kind
			binding.Limit = p.Max
			binding.Remaining = remaining
			binding.ResetAt = resetAt
		}
	}

	// When every counter errored, binding.Remaining is still -1 and the
	// request proceeds with no quota to report.
	return binding
}
