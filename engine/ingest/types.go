package ingest

import (
	"context"
	"time"

	"github.com/RecallWorks/recall-engine/engine/domain"
)

// Embedder generates embedding vectors. Implementations batch internally if
// the backend requires it; the pipeline never passes more than
// EmbedBatchSize texts per call.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkedDoc is a transcript split into embeddable chunks.
type ChunkedDoc struct {
	Doc       domain.TranscriptDoc
	ID        string   // "<channel>_<timestamp>", also the transcript key
	Name      string   // transcript name, defaulted when empty
	Timestamp string   // RFC3339, stored in every chunk payload
	Chunks    []string // in sequence order
}

// EmbeddedDoc is a chunked transcript with one vector per chunk.
type EmbeddedDoc struct {
	ChunkedDoc
	Embeddings [][]float32
	// Degraded is true when any batch fell back to placeholder vectors.
	Degraded bool
}

// defaultName builds the transcript name used when the caller supplies none.
func defaultName(ts time.Time) string {
	return "Transcript_" + ts.UTC().Format(time.RFC3339)
}
