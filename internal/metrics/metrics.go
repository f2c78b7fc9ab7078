// Package metrics defines the portal's Prometheus metrics. They register with
// the default registry on import and are served on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

// Auth

// AuthAttemptsTotal counts login and signup exchanges.
// Labels:
//   - operation: "login" or "signup"
//   - result: "success", "rejected", "network_error", "invalid", "stale"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login and signup attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// GuardDecisionsTotal counts route guard evaluations
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by capability and decision.",
	},
	[]string{"capability", "decision"},
)

// Remote API

// RemoteRequestDuration measures calls to the remote REST API.
// status is the HTTP status code, or "error" when no response arrived.
var RemoteRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_request_duration_seconds",
		Help:      "Duration of requests to the remote REST API.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "status"},
)

// ContentCacheTotal counts content cache lookups, labelled hit/miss
var ContentCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_cache_total",
		Help:      "Total number of public content cache lookups, by result.",
	},
	[]string{"result"},
)

// PhotoUploadsTotal counts profile photo uploads, labelled success/failure
var PhotoUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photo_uploads_total",
		Help:      "Total number of profile photo uploads, by result.",
	},
	[]string{"result"},
)

// Navigation

// SectionScrollsTotal counts section navigation requests.
// Label:
//   - outcome: "scrolled", "no_match", "not_mounted"
var SectionScrollsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "section_scrolls_total",
		Help:      "Total number of section navigation requests, by outcome.",
	},
	[]string{"outcome"},
)

// Sessions

// SessionStreams tracks open session event streams
var SessionStreams = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_streams",
		Help:      "Current number of open session event streams.",
	},
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
