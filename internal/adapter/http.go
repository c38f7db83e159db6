package adapter

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxRetryAfterSecs keeps absurd delta-seconds from overflowing a Duration.
const maxRetryAfterSecs = int64(24 * time.Hour / time.Second)

// retryAfter reads a Retry-After header, which is either delta-seconds
// ("120") or an HTTP-date. It returns zero when the header is absent,
// malformed or names a moment that has already passed.
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(min(secs, maxRetryAfterSecs)) * time.Second
	}
	at, err := http.ParseTime(v)
	if err != nil {
		return 0
	}
	if d := at.Sub(now); d > 0 {
		return d.Round(time.Second)
	}
	return 0
}
