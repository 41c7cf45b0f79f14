// Package domain defines core domain types, constants, and validation for the
// recall engine pipeline. It acts as the validation gate at pipeline entry points.
package domain

import "time"

// TranscriptDoc is a raw transcript submitted for ingestion into a channel.
type TranscriptDoc struct {
	ChannelID string             `json:"channel_id"`
	Name      string             `json:"name,omitempty"`
	Source    string             `json:"source"`
	Text      string             `json:"text"`
	Timestamp time.Time          `json:"timestamp"`
	Sections  SectionAnnotations `json:"sections,omitempty"`
}

// SectionAnnotations holds the category-tagged string lists produced by an
// upstream summarizer. They are attached verbatim to every stored chunk.
type SectionAnnotations struct {
	ConversationTopics []string `json:"conversation_topics,omitempty"`
	ContentIdeas       []string `json:"content_ideas,omitempty"`
	ActionItems        []string `json:"action_items,omitempty"`
	NotesForAI         []string `json:"notes_for_ai,omitempty"`
	DecisionsMade      []string `json:"decisions_made,omitempty"`
	CriticalUpdates    []string `json:"critical_updates,omitempty"`
}

// SectionType names one summarizer section category.
type SectionType string

const (
	SectionConversationTopics SectionType = "conversation_topics"
	SectionContentIdeas       SectionType = "content_ideas"
	SectionActionItems        SectionType = "action_items"
	SectionNotesForAI         SectionType = "notes_for_ai"
	SectionDecisionsMade      SectionType = "decisions_made"
	SectionCriticalUpdates    SectionType = "critical_updates"
)

// ValidSectionTypes is the set of recognised section categories.
var ValidSectionTypes = map[SectionType]bool{
	SectionConversationTopics: true, SectionContentIdeas: true,
	SectionActionItems: true, SectionNotesForAI: true,
	SectionDecisionsMade: true, SectionCriticalUpdates: true,
}

// ByType returns the annotation list for a section category.
func (s SectionAnnotations) ByType(t SectionType) []string {
	switch t {
	case SectionConversationTopics:
		return s.ConversationTopics
	case SectionContentIdeas:
		return s.ContentIdeas
	case SectionActionItems:
		return s.ActionItems
	case SectionNotesForAI:
		return s.NotesForAI
	case SectionDecisionsMade:
		return s.DecisionsMade
	case SectionCriticalUpdates:
		return s.CriticalUpdates
	default:
		return nil
	}
}

// AsMap returns all six section lists keyed by section type. Empty lists are
// included so stored payloads always carry every category.
func (s SectionAnnotations) AsMap() map[string][]string {
	return map[string][]string{
		string(SectionConversationTopics): s.ConversationTopics,
		string(SectionContentIdeas):       s.ContentIdeas,
		string(SectionActionItems):        s.ActionItems,
		string(SectionNotesForAI):         s.NotesForAI,
		string(SectionDecisionsMade):      s.DecisionsMade,
		string(SectionCriticalUpdates):    s.CriticalUpdates,
	}
}

// TranscriptInfo summarises one stored transcript for listings.
type TranscriptInfo struct {
	ChannelID   string    `json:"channel_id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
	TotalChunks int       `json:"total_chunks"`
}
