package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/amishk599/expawatch/internal/model"
)

// Ensure ChatNotifier implements model.Notifier.
var _ model.Notifier = (*ChatNotifier)(nil)

// ChatNotifier posts messages to Google Chat incoming webhooks, one endpoint
// per routing key.
type ChatNotifier struct {
	endpoints  map[model.RoutingKey]string
	limiters   map[model.RoutingKey]*rate.Limiter
	formatter  *Formatter
	httpClient *http.Client
	logger     *slog.Logger
}

// NewChatNotifier returns a notifier bound to endpoints. perMinute caps the
// send rate per channel; zero or less disables the cap.
func NewChatNotifier(endpoints map[model.RoutingKey]string, perMinute int, formatter *Formatter, httpClient *http.Client, logger *slog.Logger) *ChatNotifier {
	limiters := make(map[model.RoutingKey]*rate.Limiter, len(endpoints))
	for key := range endpoints {
		limit := rate.Inf
		if perMinute > 0 {
			limit = rate.Limit(float64(perMinute) / 60.0)
		}
		limiters[key] = rate.NewLimiter(limit, 1)
	}
	return &ChatNotifier{
		endpoints:  endpoints,
		limiters:   limiters,
		formatter:  formatter,
		httpClient: httpClient,
		logger:     logger,
	}
}

type chatMessage struct {
	Text string `json:"text"`
}

// Notify posts one message. Any completed HTTP exchange counts as Sent; the
// status is logged only. Nothing is retried.
func (c *ChatNotifier) Notify(ctx context.Context, key model.RoutingKey, rec model.Record) (model.NotifyResult, error) {
	if key == model.Suppressed {
		return model.NotifySkipped, nil
	}
	endpoint, ok := c.endpoints[key]
	if !ok || endpoint == "" {
		return model.NotifyFailed, fmt.Errorf("%w: no endpoint bound to channel %s", model.ErrNotifyFailed, key)
	}

	text, err := c.formatter.Format(rec)
	if err != nil {
		return model.NotifyFailed, fmt.Errorf("%w: %v", model.ErrNotifyFailed, err)
	}
	body, err := json.Marshal(chatMessage{Text: text})
	if err != nil {
		return model.NotifyFailed, fmt.Errorf("%w: marshal chat payload: %v", model.ErrNotifyFailed, err)
	}

	if err := c.limiters[key].Wait(ctx); err != nil {
		return model.NotifySkipped, fmt.Errorf("waiting for %s rate limit: %w", key, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return model.NotifyFailed, fmt.Errorf("%w: %s: %v", model.ErrNotifyFailed, key, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NotifyFailed, fmt.Errorf("%w: post to %s: %w", model.ErrNotifyFailed, key, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("chat webhook returned non-success status",
			"channel", key, "id", rec.ID, "status", resp.StatusCode, "endpoint", RedactURL(endpoint))
	} else {
		c.logger.Info("chat message sent", "channel", key, "id", rec.ID, "status", resp.StatusCode)
	}
	return model.Sent, nil
}

// RedactURL strips the query string and user info, which carry the webhook key
// and token.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<invalid url>"
	}
	u.User = nil
	if u.RawQuery != "" {
		u.RawQuery = "REDACTED"
	}
	return u.String()
}
