// Package rag implements retrieval over stored channel transcripts. A raw
// user query is optimized into variants, each variant is searched against the
// vector store, and the per-variant hits are fused into a single ranked list:
// deduplicated on (timestamp, chunk index), boosted for the original query,
// re-scored by keyword density, then floored and truncated.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/RecallWorks/recall-engine/engine/domain"
	"github.com/RecallWorks/recall-engine/engine/query"
	"github.com/RecallWorks/recall-engine/engine/semantic"
	"github.com/RecallWorks/recall-engine/pkg/fn"
	"github.com/RecallWorks/recall-engine/pkg/metrics"
)

// Query provenance tags on fused results.
const (
	SourceOriginal = "original"
	SourceExpanded = "expanded"
)

// Embedder embeds a single query string.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the slice of the vector store that retrieval needs.
type Searcher interface {
	Query(ctx context.Context, embedding []float32, channelID string, topK int, minScore float32, extra semantic.Filters) ([]semantic.Hit, error)
}

// Options tunes retrieval fusion.
type Options struct {
	Dims int
	// Retry is the backoff policy for query embedding.
	Retry fn.RetryOpts
	// OriginalBoost multiplies scores of hits found by the original query.
	OriginalBoost float32
	// KeywordWeight scales the keyword-density bonus: a hit whose text
	// contains every extracted keyword gains score*KeywordWeight.
	KeywordWeight float32
	// FloorScore drops fused results below this score regardless of the
	// per-category minimum already applied at search time.
	FloorScore float32
	// BrowseTopK bounds metadata-only reads (transcript reassembly,
	// listings, section browsing).
	BrowseTopK int
}

// DefaultOptions returns production retrieval settings.
func DefaultOptions() Options {
	return Options{
		Dims:          semantic.DefaultDims,
		Retry:         fn.DefaultRetry,
		OriginalBoost: 1.1,
		KeywordWeight: 0.1,
		FloorScore:    0.2,
		BrowseTopK:    1000,
	}
}

// SearchResult is one fused retrieval hit.
type SearchResult struct {
	Text           string  `json:"text"`
	Score          float32 `json:"score"`
	ChunkIndex     int     `json:"chunk_index"`
	TotalChunks    int     `json:"total_chunks"`
	Timestamp      string  `json:"timestamp"`
	TranscriptName string  `json:"transcript_name"`
	QuerySource    string  `json:"query_source"`
	QueryVariant   string  `json:"query_variant"`
}

// Service retrieves and fuses transcript chunks.
type Service struct {
	embedder Embedder
	searcher Searcher
	opts     Options
	logger   *slog.Logger
}

// New builds a retrieval service. A nil logger falls back to slog.Default.
func New(embedder Embedder, searcher Searcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.Dims <= 0 {
		opts.Dims = def.Dims
	}
	if opts.OriginalBoost <= 0 {
		opts.OriginalBoost = def.OriginalBoost
	}
	if opts.KeywordWeight < 0 {
		opts.KeywordWeight = def.KeywordWeight
	}
	if opts.FloorScore <= 0 {
		opts.FloorScore = def.FloorScore
	}
	if opts.BrowseTopK <= 0 {
		opts.BrowseTopK = def.BrowseTopK
	}
	return &Service{embedder: embedder, searcher: searcher, opts: opts, logger: logger}
}

// SimilaritySearch runs a single vector search for text within a channel.
// Embedding is retried with backoff; if it still fails the search degrades to
// the placeholder vector, which reduces recall to metadata filtering instead
// of failing the query.
func (s *Service) SimilaritySearch(ctx context.Context, text, channelID string, topK int, minScore float32, extra semantic.Filters) ([]semantic.Hit, error) {
	embedding, err := fn.Retry(ctx, s.opts.Retry, func(ctx context.Context) fn.Result[[]float32] {
		return fn.FromPair(s.embedder.Embed(ctx, text))
	}).Unwrap()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("rag: query embedding unavailable, degrading to placeholder",
			"error", err)
		embedding = semantic.PlaceholderVector(s.opts.Dims)
	}
	return s.searcher.Query(ctx, embedding, channelID, topK, minScore, extra)
}

// Search runs the fused multi-variant retrieval for a raw user query. Variant
// search errors are logged and skipped; even when every variant fails the
// query returns an empty result list, not an error. Search only errors on
// invalid input or context cancellation.
func (s *Service) Search(ctx context.Context, rawQuery, channelID string, maxResults int) ([]SearchResult, error) {
	if err := domain.ValidateSearch(channelID, rawQuery); err != nil {
		return nil, err
	}
	start := time.Now()

	opt := query.Optimize(rawQuery)
	metrics.SearchesTotal.WithLabelValues(string(opt.Category)).Inc()
	s.logger.Debug("rag: optimized query",
		"category", opt.Category,
		"variants", len(opt.Variants),
		"keywords", len(opt.Keywords),
		"top_k", opt.Params.TopK,
		"min_score", opt.Params.MinScore)

	type tagged struct {
		hit     semantic.Hit
		source  string
		variant string
	}
	// Variants search concurrently; ParMapResult preserves variant order, so
	// fusion below still sees the original query's hits first.
	outcomes := fn.ParMapResult(opt.Variants, len(opt.Variants), func(variant string) fn.Result[[]semantic.Hit] {
		return fn.FromPair(s.SimilaritySearch(ctx, variant, channelID, opt.Params.TopK, opt.Params.MinScore, nil))
	})

	seen := make(map[string]struct{})
	var fused []tagged

	// Variant failures never fail the query: a channel with an unreachable
	// store reads as empty, so callers render "no results" uniformly.
	for i, variant := range opt.Variants {
		hits, err := outcomes[i].Unwrap()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.SearchVariantErrorsTotal.Inc()
			s.logger.Warn("rag: variant search failed", "variant", variant, "error", err)
			continue
		}
		source := SourceExpanded
		if i == 0 {
			source = SourceOriginal
		}
		for _, hit := range hits {
			key := fmt.Sprintf("%s_%d", hit.Timestamp, hit.ChunkIndex)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if i == 0 {
				hit.Score *= s.opts.OriginalBoost
			}
			fused = append(fused, tagged{hit: hit, source: source, variant: variant})
		}
	}

	results := make([]SearchResult, 0, len(fused))
	for _, tg := range fused {
		score := tg.hit.Score * (1 + keywordDensity(tg.hit.Text, opt.Keywords)*s.opts.KeywordWeight)
		results = append(results, SearchResult{
			Text:           tg.hit.Text,
			Score:          score,
			ChunkIndex:     tg.hit.ChunkIndex,
			TotalChunks:    tg.hit.TotalChunks,
			Timestamp:      tg.hit.Timestamp,
			TranscriptName: tg.hit.TranscriptName,
			QuerySource:    tg.source,
			QueryVariant:   tg.variant,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if opt.Params.PreferRecent {
			return results[i].Timestamp > results[j].Timestamp
		}
		return false
	})

	kept := results[:0]
	for _, r := range results {
		if r.Score >= s.opts.FloorScore {
			kept = append(kept, r)
		}
	}
	results = kept
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}

	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	metrics.SearchResults.Observe(float64(len(results)))
	s.logger.Info("rag: search complete",
		"channel_id", channelID,
		"results", len(results),
		"duration", time.Since(start))
	return results, nil
}

// keywordDensity is the fraction of keywords present in text, matched
// case-insensitively as substrings.
func keywordDensity(text string, keywords []string) float32 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matched++
		}
	}
	return float32(matched) / float32(len(keywords))
}
