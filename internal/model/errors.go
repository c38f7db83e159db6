package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrFetchFailed marks any transport, status or decode failure talking to the upstream.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrInvalidResponse marks an upstream reply that was delivered but cannot be used:
	// GraphQL errors, missing data or a body that does not decode. Asking again will not help.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrStoreFailed marks a persistence failure other than the uniqueness constraint.
	ErrStoreFailed = errors.New("store failed")
	// ErrNotifyFailed marks an unreachable or unbound notification channel.
	ErrNotifyFailed = errors.New("notify failed")
	// ErrConfigMissing is fatal at startup.
	ErrConfigMissing = errors.New("config missing")
	// ErrRecordNotFound is returned by RecordStore.Get.
	ErrRecordNotFound = errors.New("record not found")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
