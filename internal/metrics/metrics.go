// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FeedbackRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookbook_feedback_total",
			Help: "Feedback records written, by kind",
		},
		[]string{"kind"},
	)

	WatchlistOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookbook_watchlist_ops_total",
			Help: "Watchlist operations, by operation and result",
		},
		[]string{"op", "result"},
	)

	OutfitsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lookbook_outfits_generated_total",
			Help: "Outfits produced by the suggestion generator",
		},
	)

	OutfitItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lookbook_outfit_items",
			Help:    "Number of items in each generated outfit",
			Buckets: []float64{0, 1, 2, 3, 4},
		},
	)

	IntelMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookbook_intel_messages_total",
			Help: "Proactive intelligence messages emitted, by message id",
		},
		[]string{"message"},
	)

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookbook_storage_errors_total",
			Help: "Storage failures swallowed at a store boundary",
		},
		[]string{"store", "op"},
	)

	AnalyticsEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookbook_analytics_events_total",
			Help: "Analytics events delivered to the consumer, by event name",
		},
		[]string{"event"},
	)

	WeatherRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookbook_weather_requests_total",
			Help: "Weather provider calls, by result (ok, failure, rejected)",
		},
		[]string{"result"},
	)

	WeatherBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lookbook_weather_breaker_state",
			Help: "Weather circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookbook_auth_failures_total",
			Help: "Requests rejected by bearer auth, by reason (missing, mismatch)",
		},
		[]string{"reason"},
	)

	AnalyticsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lookbook_analytics_dropped_total",
			Help: "Analytics events dropped because the dispatch queue was full or closed",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
