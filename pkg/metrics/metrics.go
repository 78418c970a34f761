// Package metrics exposes the Prometheus registry of the news cache.
// All metrics are defined in their respective packages (redisconn, cache)
// and registered there via promauto.
//
// This package provides the HTTP handler and a reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the news cache.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Connection Metrics (pkg/redisconn):
//   - news_cache_connect_attempts_total{result} (Counter): Connection attempts by result (success, failure)
//   - news_cache_connection_state (Gauge): 0=disconnected, 1=connecting, 2=connected
//
// Read Metrics (pkg/cache):
//   - news_cache_probe_hits_total{layout} (Counter): Reads answered by a layout
//   - news_cache_probe_misses_total{layout} (Counter): Probes that found nothing
//   - news_cache_empty_reads_total (Counter): Reads with every layout empty
//   - news_cache_decode_failures_total{layout} (Counter): Malformed entries skipped
//   - news_cache_read_duration_seconds (Histogram): FetchLatest latency
//
// Write Metrics (pkg/cache):
//   - news_cache_articles_stored (Gauge): Size of the last stored batch
//   - news_cache_errors_total{operation} (Counter): Errors by operation (acquire, read, encode, set_envelope, rebuild_index)
//
// Example Prometheus Queries:
//
//   # Share of reads served by the envelope
//   sum(rate(news_cache_probe_hits_total{layout="envelope"}[5m])) /
//   sum(rate(news_cache_probe_hits_total[5m]))
//
//   # Reads finding an empty cache
//   rate(news_cache_empty_reads_total[5m])
//
//   # Failed index rebuilds
//   increase(news_cache_errors_total{operation="rebuild_index"}[1h]) > 0
//
//   # P95 read latency
//   histogram_quantile(0.95, rate(news_cache_read_duration_seconds_bucket[5m]))
