package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/RecallWorks/recall-engine/engine/domain"
	"github.com/RecallWorks/recall-engine/engine/semantic"
)

// browse reads chunks by metadata only: the placeholder vector makes Qdrant
// rank on nothing in particular, and a zero minimum score keeps every chunk
// that matches the payload filter.
func (s *Service) browse(ctx context.Context, channelID string, extra semantic.Filters) ([]semantic.Hit, error) {
	return s.searcher.Query(ctx, semantic.PlaceholderVector(s.opts.Dims), channelID, s.opts.BrowseTopK, 0, extra)
}

// ChannelTranscript reassembles the full text of one stored transcript. Pass
// an empty name to reassemble the most recent transcript in the channel.
func (s *Service) ChannelTranscript(ctx context.Context, channelID, name string) (string, error) {
	if strings.TrimSpace(channelID) == "" {
		return "", domain.NewValidationError("channel_id", channelID, domain.ErrMissingChannel)
	}

	var extra semantic.Filters
	if name != "" {
		extra = semantic.Filters{semantic.KeyTranscriptName: name}
	}
	hits, err := s.browse(ctx, channelID, extra)
	if err != nil {
		return "", fmt.Errorf("rag: load transcript: %w", err)
	}
	if len(hits) == 0 {
		return "", nil
	}

	if name == "" {
		// Keep only the newest transcript.
		latest := hits[0].Timestamp
		for _, h := range hits {
			if h.Timestamp > latest {
				latest = h.Timestamp
			}
		}
		filtered := hits[:0]
		for _, h := range hits {
			if h.Timestamp == latest {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Timestamp != hits[j].Timestamp {
			return hits[i].Timestamp < hits[j].Timestamp
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})

	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Text)
	}
	return strings.Join(parts, "\n"), nil
}

// SectionItems returns the items of one section category from the most
// recent transcript in the channel. Section annotations are duplicated on
// every chunk, so reading the first chunk of each transcript is enough.
func (s *Service) SectionItems(ctx context.Context, channelID string, section domain.SectionType) ([]string, error) {
	if err := domain.ValidateSectionType(section); err != nil {
		return nil, err
	}
	sections, err := s.AllSections(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return sections[string(section)], nil
}

// AllSections returns every section category of the most recent transcript
// in the channel.
func (s *Service) AllSections(ctx context.Context, channelID string) (map[string][]string, error) {
	if strings.TrimSpace(channelID) == "" {
		return nil, domain.NewValidationError("channel_id", channelID, domain.ErrMissingChannel)
	}
	hits, err := s.browse(ctx, channelID, semantic.Filters{semantic.KeyChunkIndex: 0})
	if err != nil {
		return nil, fmt.Errorf("rag: load sections: %w", err)
	}
	if len(hits) == 0 {
		return map[string][]string{}, nil
	}

	latest := hits[0]
	for _, h := range hits[1:] {
		if h.Timestamp > latest.Timestamp {
			latest = h
		}
	}
	if latest.Sections == nil {
		return map[string][]string{}, nil
	}
	return latest.Sections, nil
}

// ListTranscripts lists the transcripts stored in a channel, newest first.
// Each transcript contributes exactly one first chunk, which carries all the
// metadata a listing needs.
func (s *Service) ListTranscripts(ctx context.Context, channelID string) ([]domain.TranscriptInfo, error) {
	if strings.TrimSpace(channelID) == "" {
		return nil, domain.NewValidationError("channel_id", channelID, domain.ErrMissingChannel)
	}
	hits, err := s.browse(ctx, channelID, semantic.Filters{semantic.KeyChunkIndex: 0})
	if err != nil {
		return nil, fmt.Errorf("rag: list transcripts: %w", err)
	}

	infos := make([]domain.TranscriptInfo, 0, len(hits))
	for _, h := range hits {
		ts, err := time.Parse(time.RFC3339, h.Timestamp)
		if err != nil {
			s.logger.Warn("rag: skipping chunk with bad timestamp",
				"id", h.ID, "timestamp", h.Timestamp)
			continue
		}
		infos = append(infos, domain.TranscriptInfo{
			ChannelID:   h.ChannelID,
			Name:        h.TranscriptName,
			Source:      h.Source,
			Timestamp:   ts,
			TotalChunks: h.TotalChunks,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.After(infos[j].Timestamp)
	})
	return infos, nil
}
