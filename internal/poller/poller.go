package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/expawatch/internal/metrics"
	"github.com/amishk599/expawatch/internal/model"
)

// CycleStats summarises one poll cycle.
type CycleStats struct {
	Fetched        int
	Inserted       int
	Duplicates     int
	StoreFailures  int
	Suppressed     int
	Notified       int
	NotifyFailures int
	NotifySkipped  int
	LateArrivals   int
	FetchFailed    bool
}

// KindPoller owns the poll pipeline for one record kind:
// fetch → insert-if-absent → classify → notify.
type KindPoller struct {
	Kind       model.Kind
	Interval   time.Duration
	StartDelay time.Duration

	fetcher    model.RecordFetcher
	store      model.RecordStore
	classifier model.Classifier
	notifier   model.Notifier
	params     model.PageParams
	watermark  *Watermark
	logger     *slog.Logger
}

// Options carries the per-kind settings of a KindPoller.
type Options struct {
	Params     model.PageParams
	Interval   time.Duration
	StartDelay time.Duration
	// UseWatermark tracks the newest CreatedAt confirmed in a clean cycle and
	// flags inserted records older than it as late arrivals. The store still
	// sees every record and late arrivals are still notified.
	UseWatermark bool
}

// NewKindPoller creates a poller wired with all its dependencies.
func NewKindPoller(
	kind model.Kind,
	fetcher model.RecordFetcher,
	store model.RecordStore,
	classifier model.Classifier,
	notifier model.Notifier,
	opts Options,
	logger *slog.Logger,
) *KindPoller {
	p := &KindPoller{
		Kind:       kind,
		Interval:   opts.Interval,
		StartDelay: opts.StartDelay,
		fetcher:    fetcher,
		store:      store,
		classifier: classifier,
		notifier:   notifier,
		params:     opts.Params,
		logger:     logger.With("kind", string(kind)),
	}
	if opts.UseWatermark {
		p.watermark = &Watermark{}
	}
	return p
}

// Poll runs one cycle. Failures are logged and counted, never returned: a
// failed fetch is treated as an empty page and per-record failures do not stop
// the rest of the page.
func (p *KindPoller) Poll(ctx context.Context) CycleStats {
	start := time.Now()
	logger := p.logger.With("cycle", uuid.NewString())
	kind := string(p.Kind)
	defer func() {
		metrics.CycleDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	var stats CycleStats
	records, err := p.fetcher.FetchPage(ctx, p.params)
	if err != nil {
		metrics.FetchTotal.WithLabelValues(kind, "failed").Inc()
		logger.Error("fetch failed", "error", err)
		stats.FetchFailed = true
		return stats
	}
	metrics.FetchTotal.WithLabelValues(kind, "ok").Inc()
	stats.Fetched = len(records)

	var newest time.Time
	for _, rec := range records {
		res, err := p.store.InsertIfAbsent(ctx, rec)
		if err == nil && res != model.Inserted && res != model.Duplicate {
			err = fmt.Errorf("%w: store returned %s", model.ErrStoreFailed, res)
		}
		if err != nil {
			res = model.StoreFailed
		}
		metrics.RecordsTotal.WithLabelValues(kind, res.String()).Inc()
		switch res {
		case model.Duplicate:
			stats.Duplicates++
			logger.Debug("duplicate record", "id", rec.ID)
			if rec.CreatedAt.After(newest) {
				newest = rec.CreatedAt
			}
			continue
		case model.StoreFailed:
			stats.StoreFailures++
			logger.Error("store failed", "id", rec.ID, "error", err)
			continue
		}
		stats.Inserted++
		if p.watermark != nil && p.watermark.Before(rec.CreatedAt) {
			stats.LateArrivals++
			logger.Info("late arrival", "id", rec.ID, "created_at", rec.CreatedAt, "watermark", p.watermark.Value())
		}
		if rec.CreatedAt.After(newest) {
			newest = rec.CreatedAt
		}

		key := p.classifier.Classify(rec)
		if key == model.Suppressed {
			stats.Suppressed++
			logger.Debug("record suppressed", "id", rec.ID)
			continue
		}

		nres, err := p.notifier.Notify(ctx, key, rec)
		if err != nil && nres == model.Sent {
			nres = model.NotifyFailed
		}
		metrics.NotificationsTotal.WithLabelValues(string(key), nres.String()).Inc()
		switch nres {
		case model.Sent:
			stats.Notified++
		case model.NotifySkipped:
			stats.NotifySkipped++
			logger.Warn("notification skipped", "id", rec.ID, "channel", string(key), "error", err)
		default:
			stats.NotifyFailures++
			logger.Error("notify failed", "id", rec.ID, "channel", string(key), "error", err)
		}
	}

	if p.watermark != nil && stats.StoreFailures == 0 {
		p.watermark.Advance(newest)
	}

	logger.Info("poll cycle complete",
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"store_failures", stats.StoreFailures,
		"late_arrivals", stats.LateArrivals,
		"notified", stats.Notified,
		"notify_failures", stats.NotifyFailures,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return stats
}
