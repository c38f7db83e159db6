package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchTotal counts page fetches by kind and status ("ok", "failed").
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expawatch_fetch_total",
			Help: "Upstream page fetches by kind and status.",
		},
		[]string{"kind", "status"},
	)
	// RecordsTotal counts per-record store outcomes.
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expawatch_records_total",
			Help: "Fetched records by kind and store outcome.",
		},
		[]string{"kind", "outcome"},
	)
	// NotificationsTotal counts notify attempts by channel and result.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expawatch_notifications_total",
			Help: "Notification attempts by channel and result.",
		},
		[]string{"channel", "result"},
	)
	// CycleDuration observes poll cycle wall time.
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "expawatch_cycle_duration_seconds",
			Help:    "Duration of one poll cycle.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
