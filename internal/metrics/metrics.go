// Package metrics provides Prometheus metrics for the router.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for request latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus metric collectors for the router.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  *prometheus.HistogramVec
	UpstreamResponses *prometheus.CounterVec

	CrawlerRequests  *prometheus.CounterVec
	RoutingDecisions *prometheus.CounterVec
	PrerenderFetches *prometheus.CounterVec
	MetadataLookups  *prometheus.CounterVec
	Injections       *prometheus.CounterVec
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seo_router_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seo_router_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seo_router_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seo_router_upstream_request_duration_seconds",
			Help:    "Upstream call latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"upstream", "method"}),

		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seo_router_upstream_responses_total",
			Help: "Total upstream responses by upstream, method and status code.",
		}, []string{"upstream", "method", "status_code"}),

		CrawlerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seo_router_crawler_requests_total",
			Help: "Requests classified as crawlers, by crawler family.",
		}, []string{"family"}),

		RoutingDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seo_router_routing_decisions_total",
			Help: "Routing decisions by action and reason.",
		}, []string{"action", "reason"}),

		PrerenderFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seo_router_prerender_fetches_total",
			Help: "Metadata service fetches by outcome (ok, fallback).",
		}, []string{"outcome"}),

		MetadataLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seo_router_metadata_lookups_total",
			Help: "Metadata record lookups by outcome (hit, miss, error).",
		}, []string{"outcome"}),

		Injections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seo_router_shell_injections_total",
			Help: "Application shell metadata injections by outcome (injected, kept, skipped, error).",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.CrawlerRequests,
		m.RoutingDecisions,
		m.PrerenderFetches,
		m.MetadataLookups,
		m.Injections,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// knownPrefixes lists the allowed path label values (bounded cardinality).
var knownPrefixes = []string{"/api", "/assets", "/static", "/healthz", "/router", "/metrics"}

// NormalizePath returns a bounded path label for Prometheus metrics.
// Storefront pages all collapse into "page".
func NormalizePath(path string) string {
	for _, prefix := range knownPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return prefix
		}
	}
	return "page"
}
