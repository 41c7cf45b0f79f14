// Package metrics defines the Prometheus metrics of the recall engine and a
// helper to expose them over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IOBuckets suit embedding and vector store call latencies (5ms–60s).
var IOBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

var (
	// IngestDocsTotal counts ingested transcripts by source.
	IngestDocsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_ingest_docs_total",
			Help: "Transcripts ingested",
		},
		[]string{"source"},
	)

	// IngestChunksTotal counts chunks produced by the segmenter.
	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recall_ingest_chunks_total",
			Help: "Chunks created",
		},
	)

	// IngestErrorsTotal counts pipeline failures by stage.
	IngestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_ingest_errors_total",
			Help: "Ingestion errors",
		},
		[]string{"stage"},
	)

	// EmbedDegradedTotal counts batches that fell back to placeholder vectors.
	EmbedDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recall_embed_degraded_total",
			Help: "Embedding batches served by placeholder vectors",
		},
	)

	// EmbedDuration records embedding batch latency in seconds.
	EmbedDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recall_embed_duration_seconds",
			Help:    "Embedding batch latency",
			Buckets: IOBuckets,
		},
	)

	// UpsertBatchesTotal counts vector store upsert batches.
	UpsertBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recall_upsert_batches_total",
			Help: "Vector store upsert batches",
		},
	)

	// SearchesTotal counts fused searches by query category.
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_searches_total",
			Help: "Fused searches",
		},
		[]string{"category"},
	)

	// SearchVariantErrorsTotal counts variant searches that failed and were skipped.
	SearchVariantErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recall_search_variant_errors_total",
			Help: "Failed variant searches",
		},
	)

	// SearchDuration records end-to-end fused search latency in seconds.
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recall_search_duration_seconds",
			Help:    "Fused search latency",
			Buckets: IOBuckets,
		},
	)

	// SearchResults records fused result counts.
	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recall_search_results",
			Help:    "Results per fused search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)

func init() {
	prometheus.MustRegister(
		IngestDocsTotal,
		IngestChunksTotal,
		IngestErrorsTotal,
		EmbedDegradedTotal,
		EmbedDuration,
		UpsertBatchesTotal,
		SearchesTotal,
		SearchVariantErrorsTotal,
		SearchDuration,
		SearchResults,
	)
}

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
