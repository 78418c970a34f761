package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbeHits tracks reads answered by a layout
	ProbeHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_cache_probe_hits_total",
			Help: "Total number of reads answered by each cache layout",
		},
		[]string{"layout"}, // "envelope", "sorted_index", "list", "fanout"
	)

	// ProbeMisses tracks probes that found nothing usable
	ProbeMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_cache_probe_misses_total",
			Help: "Total number of probes that returned no articles",
		},
		[]string{"layout"},
	)

	// EmptyReads tracks reads where every layout was empty
	EmptyReads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "news_cache_empty_reads_total",
			Help: "Total number of reads that found no articles in any layout",
		},
	)

	// DecodeFailures tracks skipped entries and records
	DecodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_cache_decode_failures_total",
			Help: "Total number of cache entries or records skipped as malformed",
		},
		[]string{"layout"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "acquire", "read", "encode", "set_envelope", "rebuild_index"
	)

	// ReadDuration tracks FetchLatest latency
	ReadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "news_cache_read_duration_seconds",
			Help:    "Duration of FetchLatest calls in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// ArticlesStored tracks the size of the last stored batch
	ArticlesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "news_cache_articles_stored",
			Help: "Number of articles in the most recently stored batch",
		},
	)
)
