package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchQueriesTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "match_queries_total", Help: "Total match queries served"})
	MatchQueryLatency   = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "carpool", Name: "match_query_latency_seconds", Help: "Match query latency seconds"})
	CandidatesEvaluated = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "candidates_evaluated_total", Help: "Offer/request pairs evaluated"})
	CandidatesSkipped   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "candidates_skipped_total", Help: "Candidates skipped due to routing failures or bad data"})
	RoutingErrors       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "carpool", Name: "routing_errors_total", Help: "Routing provider failures"})
	OffersActive        = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "carpool", Name: "offers_active", Help: "Number of active route offers"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carpool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
