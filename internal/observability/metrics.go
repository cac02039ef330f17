package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LocationPushes   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "dispatch_agent", Name: "location_pushes_total", Help: "Location samples propagated to the authority"})
	LocationSkipped  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "dispatch_agent", Name: "location_skipped_total", Help: "Fixes held back by the displacement gate"})
	LocationFailures = promauto.NewCounter(prometheus.CounterOpts{Namespace: "dispatch_agent", Name: "location_failures_total", Help: "Failed fix acquisitions or snaps"})

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dispatch_agent", Name: "push_events_total", Help: "Push-channel events folded into the store"},
		[]string{"event"},
	)
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{Namespace: "dispatch_agent", Name: "push_events_dropped_total", Help: "Malformed push events dropped"})
	Reconnects    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "dispatch_agent", Name: "push_reconnects_total", Help: "Push-channel (re)connections"})

	AcceptsWon      = promauto.NewCounter(prometheus.CounterOpts{Namespace: "dispatch_agent", Name: "accepts_won_total", Help: "Accept commands confirmed by the authority"})
	AcceptConflicts = promauto.NewCounter(prometheus.CounterOpts{Namespace: "dispatch_agent", Name: "accept_conflicts_total", Help: "Accept races lost to another agent"})
	RequestsExpired = promauto.NewCounter(prometheus.CounterOpts{Namespace: "dispatch_agent", Name: "requests_expired_total", Help: "Pending requests pruned by the countdown engine"})

	PendingRequests  = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "dispatch_agent", Name: "pending_requests", Help: "Current pending set size"})
	AcceptedRequests = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "dispatch_agent", Name: "accepted_requests", Help: "Current accepted set size"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dispatch_agent", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dispatch_agent",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
