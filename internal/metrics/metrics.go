// Package metrics holds the Prometheus collectors of the search service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Searches
	SearchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gemex_searches_total",
		Help: "The total number of searches by entity and outcome",
	}, []string{"entity", "outcome"})

	SearchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gemex_search_latency_seconds",
		Help:    "The latency of a search including count and metadata resolution",
		Buckets: prometheus.DefBuckets,
	}, []string{"entity"})

	SearchesCanceled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gemex_searches_canceled_total",
		Help: "The total number of searches superseded before completion",
	}, []string{"entity"})

	// Codec
	DecodeAmbiguities = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gemex_decode_ambiguities_total",
		Help: "The total number of fields received with conflicting operator parameters",
	}, []string{"entity", "field"})

	// Backend
	BackendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gemex_backend_requests_total",
		Help: "The total number of backend requests by operation and status",
	}, []string{"operation", "status"})

	BackendLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gemex_backend_latency_seconds",
		Help:    "The latency of backend requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// Metadata
	LabelLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gemex_label_lookups_total",
		Help: "The total number of label lookups by referenced entity and result",
	}, []string{"entity", "result"})

	// HTTP
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gemex_http_requests_total",
		Help: "The total number of HTTP requests by route and status code",
	}, []string{"route", "code"})

	HTTPLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gemex_http_request_duration_seconds",
		Help:    "The duration of HTTP requests by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// Sessions
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gemex_active_sessions",
		Help: "The current number of search sessions",
	})
)

func init() {
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchLatency)
	prometheus.MustRegister(SearchesCanceled)
	prometheus.MustRegister(DecodeAmbiguities)
	prometheus.MustRegister(BackendRequests)
	prometheus.MustRegister(BackendLatency)
	prometheus.MustRegister(LabelLookups)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPLatency)
	prometheus.MustRegister(ActiveSessions)
}
