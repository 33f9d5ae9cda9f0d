package llm

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitedError indicates the provider rejected the call for quota
// reasons. RetryAfter is guidance for the caller; this package never retries.
type RateLimitedError struct {
	// RetryAfter is zero when the provider gave no usable hint.
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider rate limited, retry after %s", e.RetryAfter)
	}
	return "provider rate limited, retry in a few minutes"
}

// RetryAfterSeconds returns the hint rounded up to whole seconds, 0 if none.
func (e *RateLimitedError) RetryAfterSeconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	secs := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}

// InputTooLargeError indicates the provider refused the input for exceeding
// a size or page limit.
type InputTooLargeError struct {
	Detail string
}

func (e *InputTooLargeError) Error() string {
	return "input too large for the provider: " + e.Detail
}

// GenerationError wraps any other provider failure behind a stable type so
// raw provider errors never reach callers.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Message
}

// Provider rate-limit reset headers, most specific first.
var resetHeaders = []string{
	"anthropic-ratelimit-requests-reset",
	"anthropic-ratelimit-tokens-reset",
}

// retryAfterHint extracts a retry delay from a rate-limited response. The
// fallback chain is: Retry-After seconds, then a token-bucket reset
// timestamp, then nothing.
func retryAfterHint(h http.Header, now time.Time) (time.Duration, bool) {
	if h == nil {
		return 0, false
	}

	if v := h.Get("retry-after"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second, true
		}
	}

	for _, name := range resetHeaders {
		v := h.Get(name)
		if v == "" {
			continue
		}
		if reset, err := time.Parse(time.RFC3339, v); err == nil {
			if d := reset.Sub(now); d > 0 {
				return d, true
			}
		}
	}

	return 0, false
}
