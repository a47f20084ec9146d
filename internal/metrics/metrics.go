// Package metrics defines the Prometheus instrumentation for the
// service. Metrics are registered via promauto at init time and
// incremented from the middleware and services.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confide_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "confide_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Submission pipeline metrics
var (
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confide_submissions_total",
		Help: "Total number of confession submissions by outcome",
	}, []string{"status"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confide_rate_limited_total",
		Help: "Total number of submissions rejected by the rate limiter",
	})

	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confide_votes_total",
		Help: "Total number of vote operations",
	}, []string{"operation"})
)

// Broadcast metrics
var (
	BroadcastEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confide_broadcast_events_total",
		Help: "Total number of events published to live subscribers",
	}, []string{"event"})

	SubscribersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "confide_subscribers_connected",
		Help: "Number of live event-stream subscribers",
	})
)

// Moderation metrics
var (
	ModerationQueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confide_moderation_queued_total",
		Help: "Total number of posts held for moderation",
	})

	ModerationApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confide_moderation_approved_total",
		Help: "Total number of pending posts approved by an admin",
	})

	PostsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confide_posts_deleted_total",
		Help: "Total number of posts soft-deleted by an admin",
	})
)

// NormalizePath reduces high-cardinality path labels by collapsing
// dynamic segments. This keeps the metric label space bounded.
func NormalizePath(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segments) == 3 && segments[0] == "api" {
		switch segments[1] {
		case "confessions", "votes":
			return "/api/" + segments[1] + "/:id"
		}
	}
	return path
}
