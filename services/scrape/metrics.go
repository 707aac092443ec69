package scrape

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPluginCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scavengarr_plugin_calls_total",
		Help: "Plugin search invocations by plugin and outcome.",
	}, []string{"plugin", "outcome"})

	metricPluginDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scavengarr_plugin_duration_seconds",
		Help:    "Wall time of plugin search calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"plugin"})

	metricBreakerSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scavengarr_breaker_skips_total",
		Help: "Plugin calls skipped because the circuit was open.",
	}, []string{"plugin"})

	metricSearchCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scavengarr_search_cache_total",
		Help: "Search cache lookups by outcome.",
	}, []string{"outcome"})
)
