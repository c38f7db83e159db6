package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/amishk599/expawatch/internal/model"
)

// Policy bounds how hard a Fetcher leans on the upstream for a single page.
type Policy struct {
	// MaxRetries is the number of extra attempts after the first failure.
	MaxRetries int
	// BaseDelay is the wait before the first retry; each later wait doubles it.
	BaseDelay time.Duration
	// MaxDelay caps any single wait, including one asked for via Retry-After.
	MaxDelay time.Duration
}

// DefaultMaxDelay caps a wait when the policy leaves MaxDelay unset.
const DefaultMaxDelay = 2 * time.Minute

// Fetcher re-requests the same page while the upstream failure looks transient.
// Cursor and filters never change between attempts.
type Fetcher struct {
	inner  model.RecordFetcher
	policy Policy
	logger *slog.Logger
	jitter func() float64
}

// NewFetcher wraps inner with policy.
func NewFetcher(inner model.RecordFetcher, policy Policy, logger *slog.Logger) *Fetcher {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = DefaultMaxDelay
	}
	return &Fetcher{inner: inner, policy: policy, logger: logger, jitter: rand.Float64}
}

// FetchPage returns the first successful page, or the last error once the
// failure is permanent, the retries are spent or ctx is done.
func (f *Fetcher) FetchPage(ctx context.Context, page model.PageParams) ([]model.Record, error) {
	for attempt := 0; ; attempt++ {
		records, err := f.inner.FetchPage(ctx, page)
		if err == nil {
			return records, nil
		}

		reason, ok := transient(err)
		if !ok || attempt == f.policy.MaxRetries {
			return nil, err
		}

		wait := f.wait(attempt, err)
		f.logger.Warn("fetch failed, retrying",
			"reason", reason,
			"retry", attempt+1,
			"max_retries", f.policy.MaxRetries,
			"wait", wait,
			"page", page.Page,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

// wait is BaseDelay doubled per prior retry, spread by ±30%, unless the
// upstream named its own Retry-After. Both are capped at MaxDelay.
func (f *Fetcher) wait(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return min(httpErr.RetryAfter, f.policy.MaxDelay)
	}
	d := f.policy.BaseDelay << attempt
	if d <= 0 || d > f.policy.MaxDelay {
		d = f.policy.MaxDelay
	}
	spread := (f.jitter()*2 - 1) * 0.3
	return time.Duration(float64(d) * (1 + spread))
}

// transient reports whether err is worth another attempt and, if so, a short
// label for the log line.
func transient(err error) (string, bool) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "", false
	case errors.Is(err, model.ErrInvalidResponse):
		return "", false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return "throttled", true
		case httpErr.StatusCode >= http.StatusInternalServerError:
			return "server_error", true
		default:
			return "", false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout", true
	}
	return "transport", true
}
