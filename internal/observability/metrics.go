package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesTotal         = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridehail", Name: "quotes_total", Help: "Total price quotes computed"})
	RidesRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridehail", Name: "rides_requested_total", Help: "Total rides created"})

	AcceptWinsTotal      = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridehail", Name: "accept_wins_total", Help: "Ride acceptances that won the assignment"})
	AcceptConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridehail", Name: "accept_conflicts_total", Help: "Ride acceptances lost to a concurrent winner"})

	LocationUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridehail", Name: "location_updates_total", Help: "Driver GPS pings accepted"})
	SOSTotal             = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridehail", Name: "sos_total", Help: "SOS events recorded"})

	EventsAppendedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridehail", Name: "events_appended_total", Help: "Ride events appended, by type"},
		[]string{"type"},
	)
	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridehail", Name: "events_dropped_total", Help: "Events dropped for slow subscribers"})
	RideSubscribers    = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ridehail", Name: "ride_subscribers", Help: "Live ride event subscriptions"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridehail", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridehail",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
