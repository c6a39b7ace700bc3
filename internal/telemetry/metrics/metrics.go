// Package metrics defines the Prometheus collectors exposed by the
// pipeline binaries and the scrape HTTP handler. Grounded on the
// teacher's pkg/metrics (pkg/metrics/metrics.go), generalised from the
// teacher's HTTP-service metrics (request counts, shard gauges) to the
// batch pipeline's throughput and query-latency metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector the pipeline registers.
type Metrics struct {
	DocsParsedTotal      prometheus.Counter
	PartitionsFlushed    prometheus.Counter
	ParseTokensTotal     prometheus.Counter
	TermsMergedTotal     prometheus.Counter
	MergeBytesWritten    prometheus.Counter
	QueryLatency         *prometheus.HistogramVec
	QueryResultsCount    prometheus.Histogram
	QueriesTotal         *prometheus.CounterVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
}

// New creates and registers every collector. Call once per process.
func New() *Metrics {
	m := &Metrics{
		DocsParsedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msidx_docs_parsed_total",
			Help: "Total passages accepted by the parser.",
		}),
		PartitionsFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msidx_partitions_flushed_total",
			Help: "Total intermediate partition files written.",
		}),
		ParseTokensTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msidx_parse_tokens_total",
			Help: "Total tokens produced while parsing.",
		}),
		TermsMergedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msidx_terms_merged_total",
			Help: "Total distinct terms emitted by the merge indexer.",
		}),
		MergeBytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msidx_merge_bytes_written_total",
			Help: "Total bytes written to final_index.bin.",
		}),
		QueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "msidx_query_latency_seconds",
			Help:    "Query execution latency in seconds, by mode.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"mode"}),
		QueryResultsCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "msidx_query_results_count",
			Help:    "Number of results returned per query.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msidx_queries_total",
			Help: "Total queries executed, by mode.",
		}, []string{"mode"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msidx_cache_hits_total",
			Help: "Total query result cache hits.",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msidx_cache_misses_total",
			Help: "Total query result cache misses.",
		}),
	}

	prometheus.MustRegister(
		m.DocsParsedTotal,
		m.PartitionsFlushed,
		m.ParseTokensTotal,
		m.TermsMergedTotal,
		m.MergeBytesWritten,
		m.QueryLatency,
		m.QueryResultsCount,
		m.QueriesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
