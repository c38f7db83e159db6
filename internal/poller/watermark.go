package poller

import (
	"sync"
	"time"
)

// Watermark is the newest CreatedAt confirmed by a cycle in which every store
// write succeeded. It lives in memory only.
type Watermark struct {
	mu sync.Mutex
	at time.Time
}

// Before reports whether t is strictly older than the watermark. A zero t or
// an unset watermark never counts as older.
func (w *Watermark) Before(t time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.at.IsZero() || t.IsZero() {
		return false
	}
	return t.Before(w.at)
}

// Advance moves the watermark forward to t. It never moves backwards.
func (w *Watermark) Advance(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.After(w.at) {
		w.at = t
	}
}

// Value returns the current watermark.
func (w *Watermark) Value() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.at
}
