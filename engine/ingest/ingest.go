// Package ingest turns raw channel transcripts into searchable vectors. A
// document flows through a staged pipeline: validate, segment into
// overlapping chunks, embed in batches, then upsert to the vector store.
// Embedding failures degrade to placeholder vectors so a flaky backend never
// drops a transcript; storage failures propagate to the caller.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/RecallWorks/recall-engine/engine/domain"
	"github.com/RecallWorks/recall-engine/engine/segment"
	"github.com/RecallWorks/recall-engine/engine/semantic"
	"github.com/RecallWorks/recall-engine/pkg/fn"
	"github.com/RecallWorks/recall-engine/pkg/metrics"
	"github.com/RecallWorks/recall-engine/pkg/resilience"
)

const (
	// EmbedBatchSize is how many chunks go to the embedding backend per call.
	EmbedBatchSize = 100
	// UpsertBatchSize is how many points go to the vector store per upsert.
	UpsertBatchSize = 50
)

// VectorWriter is the slice of the vector store the pipeline needs.
type VectorWriter interface {
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
}

// Options tunes the ingestion pipeline.
type Options struct {
	ChunkSize int
	Overlap   int
	Dims      int
	Retry     fn.RetryOpts
	// UpsertRate throttles upsert batches against the vector store.
	UpsertRate  rate.Limit
	UpsertBurst int
}

// DefaultOptions returns the production pipeline configuration.
func DefaultOptions() Options {
	return Options{
		ChunkSize:   segment.DefaultChunkSize,
		Overlap:     segment.DefaultOverlap,
		Dims:        semantic.DefaultDims,
		Retry:       fn.DefaultRetry,
		UpsertRate:  rate.Limit(5),
		UpsertBurst: 1,
	}
}

// Service runs the ingestion pipeline.
type Service struct {
	embedder Embedder
	store    VectorWriter
	breaker  *resilience.Breaker
	limiter  *rate.Limiter
	opts     Options
	logger   *slog.Logger

	pipeline fn.Stage[domain.TranscriptDoc, string]
}

// New builds an ingestion service. A nil logger falls back to slog.Default.
func New(embedder Embedder, store VectorWriter, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = segment.DefaultChunkSize
	}
	if opts.Dims <= 0 {
		opts.Dims = semantic.DefaultDims
	}
	if opts.UpsertRate <= 0 {
		opts.UpsertRate = DefaultOptions().UpsertRate
	}
	if opts.UpsertBurst <= 0 {
		opts.UpsertBurst = 1
	}

	s := &Service{
		embedder: embedder,
		store:    store,
		breaker:  resilience.NewBreaker(resilience.DefaultBreakerOpts),
		limiter:  rate.NewLimiter(opts.UpsertRate, opts.UpsertBurst),
		opts:     opts,
		logger:   logger,
	}

	s.pipeline = fn.Then(
		fn.Then(
			fn.TracedStage("ingest.segment", s.segmentStage()),
			fn.TracedStage("ingest.embed", s.embedStage()),
		),
		fn.TracedStage("ingest.store", s.storeStage()),
	)
	return s
}

// StoreDocument ingests one transcript and returns its document id, which is
// "<channel id>_<RFC3339 timestamp>". The id is deterministic, so re-ingesting
// the same transcript overwrites its chunks in place.
func (s *Service) StoreDocument(ctx context.Context, doc domain.TranscriptDoc) (string, error) {
	start := time.Now()
	id, err := s.pipeline(ctx, doc).Unwrap()
	if err != nil {
		return "", err
	}
	metrics.IngestDocsTotal.WithLabelValues(doc.Source).Inc()
	s.logger.Info("ingest: stored transcript",
		"doc_id", id,
		"channel_id", doc.ChannelID,
		"duration", time.Since(start))
	return id, nil
}

// segmentStage validates the document and splits it into overlapping chunks.
func (s *Service) segmentStage() fn.Stage[domain.TranscriptDoc, ChunkedDoc] {
	return func(_ context.Context, doc domain.TranscriptDoc) fn.Result[ChunkedDoc] {
		if err := domain.ValidateTranscript(doc); err != nil {
			metrics.IngestErrorsTotal.WithLabelValues("segment").Inc()
			return fn.Err[ChunkedDoc](err)
		}
		if err := domain.ValidateChunkParams(s.opts.ChunkSize, s.opts.Overlap); err != nil {
			metrics.IngestErrorsTotal.WithLabelValues("segment").Inc()
			return fn.Err[ChunkedDoc](err)
		}

		ts := doc.Timestamp.UTC().Format(time.RFC3339)
		name := doc.Name
		if name == "" {
			name = defaultName(doc.Timestamp)
		}

		chunks := segment.Split(doc.Text, s.opts.ChunkSize, s.opts.Overlap)
		if len(chunks) == 0 {
			metrics.IngestErrorsTotal.WithLabelValues("segment").Inc()
			return fn.Err[ChunkedDoc](domain.ErrEmptyTranscript)
		}
		metrics.IngestChunksTotal.Add(float64(len(chunks)))

		return fn.Ok(ChunkedDoc{
			Doc:       doc,
			ID:        fmt.Sprintf("%s_%s", doc.ChannelID, ts),
			Name:      name,
			Timestamp: ts,
			Chunks:    chunks,
		})
	}
}

// embedStage embeds chunks in batches. Each batch retries with backoff inside
// the circuit breaker; when a batch still fails (or the breaker is open) the
// whole batch gets placeholder vectors and ingestion continues.
func (s *Service) embedStage() fn.Stage[ChunkedDoc, EmbeddedDoc] {
	return func(ctx context.Context, doc ChunkedDoc) fn.Result[EmbeddedDoc] {
		out := EmbeddedDoc{ChunkedDoc: doc}
		out.Embeddings = make([][]float32, 0, len(doc.Chunks))

		for _, batch := range fn.Chunk(doc.Chunks, EmbedBatchSize) {
			start := time.Now()
			var vecs [][]float32
			err := s.breaker.Call(ctx, func(ctx context.Context) error {
				result := fn.Retry(ctx, s.opts.Retry, func(ctx context.Context) fn.Result[[][]float32] {
					return fn.FromPair(s.embedder.EmbedBatch(ctx, batch))
				})
				var err error
				vecs, err = result.Unwrap()
				return err
			})
			metrics.EmbedDuration.Observe(time.Since(start).Seconds())

			if err != nil {
				if ctx.Err() != nil {
					return fn.Err[EmbeddedDoc](ctx.Err())
				}
				s.logger.Warn("ingest: embedding unavailable, storing placeholder vectors",
					"doc_id", doc.ID,
					"batch_size", len(batch),
					"error", err)
				metrics.EmbedDegradedTotal.Inc()
				out.Degraded = true
				vecs = make([][]float32, len(batch))
				for i := range vecs {
					vecs[i] = semantic.PlaceholderVector(s.opts.Dims)
				}
			} else if len(vecs) != len(batch) {
				metrics.IngestErrorsTotal.WithLabelValues("embed").Inc()
				return fn.Errf[EmbeddedDoc]("ingest: backend returned %d vectors for %d chunks", len(vecs), len(batch))
			}
			out.Embeddings = append(out.Embeddings, vecs...)
		}
		return fn.Ok(out)
	}
}

// storeStage writes chunk vectors to the store in rate-limited batches. Point
// ids derive from the document id and chunk index, so repeated ingestion of
// the same document is idempotent. A failed batch aborts the stage; earlier
// batches stay written and the next ingest of the document repairs them.
func (s *Service) storeStage() fn.Stage[EmbeddedDoc, string] {
	return func(ctx context.Context, doc EmbeddedDoc) fn.Result[string] {
		total := len(doc.Chunks)
		records := make([]semantic.VectorRecord, total)
		sections := doc.Doc.Sections.AsMap()

		for i, chunk := range doc.Chunks {
			payload := map[string]any{
				semantic.KeyText:           chunk,
				semantic.KeyChannelID:      doc.Doc.ChannelID,
				semantic.KeyTimestamp:      doc.Timestamp,
				semantic.KeySource:         doc.Doc.Source,
				semantic.KeyType:           semantic.DocTypeTranscript,
				semantic.KeyTranscriptName: doc.Name,
				semantic.KeyChunkIndex:     i,
				semantic.KeyTotalChunks:    total,
			}
			for section, items := range sections {
				payload[section] = items
			}
			records[i] = semantic.VectorRecord{
				ID:        pointID(doc.ID, i),
				Embedding: doc.Embeddings[i],
				Payload:   payload,
			}
		}

		for _, batch := range fn.Chunk(records, UpsertBatchSize) {
			if err := s.limiter.Wait(ctx); err != nil {
				return fn.Err[string](err)
			}
			result := fn.Retry(ctx, s.opts.Retry, func(ctx context.Context) fn.Result[int] {
				if err := s.store.Upsert(ctx, batch); err != nil {
					return fn.Err[int](fmt.Errorf("ingest: upsert batch: %w", err))
				}
				return fn.Ok(len(batch))
			})
			if _, err := result.Unwrap(); err != nil {
				metrics.IngestErrorsTotal.WithLabelValues("store").Inc()
				return fn.Err[string](err)
			}
			metrics.UpsertBatchesTotal.Inc()
		}
		return fn.Ok(doc.ID)
	}
}

// pointID derives a stable UUID for a chunk from its document id and index.
func pointID(docID string, chunk int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s-%d", docID, chunk)).String()
}
