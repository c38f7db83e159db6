package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/amishk599/expawatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedFetcher answers each call from fn, recording what it was asked for.
type scriptedFetcher struct {
	calls int
	pages []model.PageParams
	fn    func(call int) ([]model.Record, error)
}

func (m *scriptedFetcher) FetchPage(_ context.Context, page model.PageParams) ([]model.Record, error) {
	m.calls++
	m.pages = append(m.pages, page)
	return m.fn(m.calls)
}

func fetchErr(status int) error {
	return fmt.Errorf("%w: %w", model.ErrFetchFailed, &model.HTTPError{StatusCode: status, Err: errors.New("upstream")})
}

func invalidErr(detail string) error {
	return fmt.Errorf("%w: people: %w: %s", model.ErrFetchFailed, model.ErrInvalidResponse, detail)
}

func newTestFetcher(inner model.RecordFetcher, retries int, base time.Duration) *Fetcher {
	return NewFetcher(inner, Policy{MaxRetries: retries, BaseDelay: base}, discardLogger())
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	records := []model.Record{{ID: "1", Kind: model.KindSignup}}
	inner := &scriptedFetcher{fn: func(_ int) ([]model.Record, error) {
		return records, nil
	}}

	got, err := newTestFetcher(inner, 2, time.Millisecond).FetchPage(context.Background(), model.PageParams{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("unexpected records: %v", got)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 call, got %d", inner.calls)
	}
}

func TestRetry_RetriesOn5xx_SameParams(t *testing.T) {
	inner := &scriptedFetcher{fn: func(call int) ([]model.Record, error) {
		if call == 1 {
			return nil, fetchErr(503)
		}
		return []model.Record{{ID: "1"}}, nil
	}}

	page := model.PageParams{Page: 1, PerPage: 10, Query: "q"}
	got, err := newTestFetcher(inner, 2, time.Millisecond).FetchPage(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", inner.calls)
	}
	if !reflect.DeepEqual(inner.pages[1], page) {
		t.Errorf("retry used different params: %+v", inner.pages[1])
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	inner := &scriptedFetcher{fn: func(_ int) ([]model.Record, error) {
		return nil, fetchErr(401)
	}}

	_, err := newTestFetcher(inner, 2, time.Millisecond).FetchPage(context.Background(), model.PageParams{Page: 1})
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 401 {
		t.Fatalf("expected HTTPError with status 401, got %v", err)
	}
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed to survive, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", inner.calls)
	}
}

func TestRetry_DoesNotRetryInvalidResponses(t *testing.T) {
	for _, detail := range []string{"graphql errors: Unauthorized", "response has no data", "decode data: unexpected EOF"} {
		t.Run(detail, func(t *testing.T) {
			inner := &scriptedFetcher{fn: func(_ int) ([]model.Record, error) {
				return nil, invalidErr(detail)
			}}

			_, err := newTestFetcher(inner, 3, time.Millisecond).FetchPage(context.Background(), model.PageParams{Page: 1})
			if !errors.Is(err, model.ErrInvalidResponse) {
				t.Fatalf("expected ErrInvalidResponse, got %v", err)
			}
			if inner.calls != 1 {
				t.Errorf("expected 1 call (no retry), got %d", inner.calls)
			}
		})
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	inner := &scriptedFetcher{fn: func(_ int) ([]model.Record, error) {
		return nil, fetchErr(500)
	}}

	_, err := newTestFetcher(inner, 2, time.Millisecond).FetchPage(context.Background(), model.PageParams{Page: 1})
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries
	if inner.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", inner.calls)
	}
}

func TestRetry_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	inner := &scriptedFetcher{fn: func(_ int) ([]model.Record, error) {
		return nil, errors.New("connection reset")
	}}

	if _, err := newTestFetcher(inner, 0, time.Millisecond).FetchPage(context.Background(), model.PageParams{Page: 1}); err == nil {
		t.Fatal("expected error, got nil")
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 call, got %d", inner.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	inner := &scriptedFetcher{fn: func(_ int) ([]model.Record, error) {
		return nil, fetchErr(500)
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(inner, 2, time.Second).FetchPage(ctx, model.PageParams{Page: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Errorf("expected the fetch error to survive, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", inner.calls)
	}
}

func TestWait_RetryAfterIsCapped(t *testing.T) {
	f := NewFetcher(nil, Policy{BaseDelay: time.Second, MaxDelay: 10 * time.Second}, discardLogger())

	throttled := &model.HTTPError{StatusCode: 429, RetryAfter: 5 * time.Second}
	if got := f.wait(0, throttled); got != 5*time.Second {
		t.Errorf("wait = %v, want the upstream's 5s", got)
	}
	throttled.RetryAfter = time.Hour
	if got := f.wait(0, throttled); got != 10*time.Second {
		t.Errorf("wait = %v, want the 10s cap", got)
	}
}

func TestWait_DoublesWithinJitter(t *testing.T) {
	f := NewFetcher(nil, Policy{BaseDelay: time.Second, MaxDelay: time.Minute}, discardLogger())
	f.jitter = func() float64 { return 0.5 }

	for attempt, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		if got := f.wait(attempt, errors.New("reset")); got != want {
			t.Errorf("attempt %d: wait = %v, want %v", attempt, got, want)
		}
	}

	f.jitter = func() float64 { return 1 }
	if got := f.wait(0, errors.New("reset")); got != 1300*time.Millisecond {
		t.Errorf("max jitter wait = %v, want 1.3s", got)
	}
	if got := f.wait(20, errors.New("reset")); got != 78*time.Second {
		t.Errorf("capped wait = %v, want 78s (60s + 30%%)", got)
	}
}
