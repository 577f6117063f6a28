// Package metrics exposes Prometheus counters for the matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchsvc",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "matchsvc",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	matchesProposed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "matchsvc",
		Name:      "matches_proposed_total",
		Help:      "Matches created by matching runs.",
	})

	matchesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "matchsvc",
		Name:      "matches_accepted_total",
		Help:      "Matches that completed double opt-in.",
	})

	matchesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "matchsvc",
		Name:      "matches_expired_total",
		Help:      "Pending matches swept to expired.",
	})

	clusteringRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "matchsvc",
		Name:      "clustering_runs_total",
		Help:      "Clustering passes executed (cache hits excluded).",
	})
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route, method, status string, seconds float64) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route).Observe(seconds)
}

// RecordMatchesProposed adds n to the proposal counter.
func RecordMatchesProposed(n int) { matchesProposed.Add(float64(n)) }

// RecordMatchAccepted counts one completed double opt-in.
func RecordMatchAccepted() { matchesAccepted.Inc() }

// RecordMatchesExpired adds n to the expiry counter.
func RecordMatchesExpired(n int64) { matchesExpired.Add(float64(n)) }

// RecordClusteringRun counts one executed clustering pass.
func RecordClusteringRun() { clusteringRuns.Inc() }
