// Package metrics exposes Prometheus collectors for the upstream recipe
// service, the suggestion pipeline and live sessions.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipesearch"

// Suggestion outcomes.
const (
	SuggestionApplied   = "applied"
	SuggestionDiscarded = "discarded"
	SuggestionFailed    = "failed"
)

var (
	upstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the recipe data service by operation and status code.",
		},
		[]string{"operation", "status"},
	)
	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of recipe data service requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	suggestionResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestion_responses_total",
			Help:      "Suggestion fetch completions by outcome (applied, discarded, failed).",
		},
		[]string{"outcome"},
	)
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by kind and result.",
		},
		[]string{"kind", "result"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Browser sessions currently held in memory.",
		},
	)
)

// ObserveUpstream records one data service call. status is 0 when no
// response was received.
func ObserveUpstream(operation string, status int, elapsed time.Duration) {
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	upstreamRequests.WithLabelValues(operation, label).Inc()
	upstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveSuggestion records how a suggestion fetch ended.
func ObserveSuggestion(outcome string) {
	suggestionResponses.WithLabelValues(outcome).Inc()
}

// ObserveCache records a cache hit or miss for kind.
func ObserveCache(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(kind, result).Inc()
}

// SessionOpened and SessionClosed track the in-memory session count.
func SessionOpened() { activeSessions.Inc() }

func SessionClosed() { activeSessions.Dec() }

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
