package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/expawatch/internal/model"
)

// UpstreamLimiter enforces a minimum gap between requests to the same upstream.
// The signup and application pollers run concurrently but hit the same API,
// so their fetchers share one limiter.
type UpstreamLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // key: upstream name; earliest time the next request may start
	minDelay time.Duration
}

// NewUpstreamLimiter creates a limiter enforcing minDelay between consecutive
// requests to the same upstream.
func NewUpstreamLimiter(minDelay time.Duration) *UpstreamLimiter {
	return &UpstreamLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until the upstream's slot is free. Concurrent callers are
// handed consecutive slots, so two kinds polling at once are spaced out.
// Returns an error if ctx is cancelled while waiting.
func (l *UpstreamLimiter) Wait(ctx context.Context, upstream string) error {
	l.mu.Lock()
	now := time.Now()
	slot := l.next[upstream]
	if slot.Before(now) {
		slot = now
	}
	l.next[upstream] = slot.Add(l.minDelay)
	l.mu.Unlock()

	remaining := time.Until(slot)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", upstream, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RateLimitedFetcher is a decorator that waits on the shared limiter before
// delegating to the wrapped RecordFetcher.
type RateLimitedFetcher struct {
	inner    model.RecordFetcher
	limiter  *UpstreamLimiter
	upstream string
}

// NewRateLimitedFetcher wraps a RecordFetcher with upstream-level rate limiting.
// All fetchers targeting the same upstream should share the same limiter instance.
func NewRateLimitedFetcher(inner model.RecordFetcher, limiter *UpstreamLimiter, upstream string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:    inner,
		limiter:  limiter,
		upstream: upstream,
	}
}

// FetchPage waits for the limiter, then delegates to the wrapped fetcher.
func (f *RateLimitedFetcher) FetchPage(ctx context.Context, page model.PageParams) ([]model.Record, error) {
	if err := f.limiter.Wait(ctx, f.upstream); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrFetchFailed, err)
	}
	return f.inner.FetchPage(ctx, page)
}
