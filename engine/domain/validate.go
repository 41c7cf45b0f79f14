package domain

import (
	"fmt"
	"strings"
)

// ValidateTranscript validates a TranscriptDoc before it enters the
// ingestion pipeline.
func ValidateTranscript(doc TranscriptDoc) error {
	if strings.TrimSpace(doc.ChannelID) == "" {
		return NewValidationError("channel_id", doc.ChannelID, ErrMissingChannel)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return NewValidationError("text", "", ErrEmptyTranscript)
	}
	if doc.Timestamp.IsZero() {
		return NewValidationError("timestamp", "", ErrMissingTimestamp)
	}
	return nil
}

// ValidateSearch validates retrieval inputs.
func ValidateSearch(channelID, query string) error {
	if strings.TrimSpace(channelID) == "" {
		return NewValidationError("channel_id", channelID, ErrMissingChannel)
	}
	if strings.TrimSpace(query) == "" {
		return NewValidationError("query", query, ErrEmptyQuery)
	}
	return nil
}

// ValidateChunkParams checks segmenter parameters.
func ValidateChunkParams(chunkSize, overlap int) error {
	if overlap < 0 || chunkSize <= overlap {
		return NewValidationError("chunk_size",
			fmt.Sprintf("size=%d overlap=%d", chunkSize, overlap), ErrInvalidChunkParams)
	}
	return nil
}

// ValidateSectionType checks a section category name.
func ValidateSectionType(t SectionType) error {
	if !ValidSectionTypes[t] {
		return NewValidationError("section_type", string(t), ErrInvalidSection)
	}
	return nil
}
