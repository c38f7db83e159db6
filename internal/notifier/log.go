package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/expawatch/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes each message to the given logger instead of posting it.
type LogNotifier struct {
	formatter *Formatter
	logger    *slog.Logger
}

// NewLogNotifier returns a notifier that logs each message via slog.
func NewLogNotifier(formatter *Formatter, logger *slog.Logger) *LogNotifier {
	return &LogNotifier{formatter: formatter, logger: logger}
}

// Notify logs the rendered message. A record that cannot be rendered is
// logged with its routing only.
func (n *LogNotifier) Notify(_ context.Context, key model.RoutingKey, rec model.Record) (model.NotifyResult, error) {
	if key == model.Suppressed {
		return model.NotifySkipped, nil
	}
	args := []any{"channel", key, "kind", rec.Kind, "id", rec.ID}
	if text, err := n.formatter.Format(rec); err == nil {
		args = append(args, "text", text)
	}
	n.logger.Info("notification", args...)
	return model.Sent, nil
}
