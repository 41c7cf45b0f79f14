package domain

import (
	"errors"
	"testing"
	"time"
)

func TestValidateTranscript(t *testing.T) {
	valid := TranscriptDoc{ChannelID: "c", Text: "hello", Timestamp: time.Now()}
	if err := ValidateTranscript(valid); err != nil {
		t.Fatalf("valid doc rejected: %v", err)
	}

	cases := []struct {
		name string
		doc  TranscriptDoc
		want error
	}{
		{"blank channel", TranscriptDoc{ChannelID: "  ", Text: "x", Timestamp: time.Now()}, ErrMissingChannel},
		{"blank text", TranscriptDoc{ChannelID: "c", Text: "\n\t ", Timestamp: time.Now()}, ErrEmptyTranscript},
		{"zero timestamp", TranscriptDoc{ChannelID: "c", Text: "x"}, ErrMissingTimestamp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTranscript(tc.doc)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("err %T is not a ValidationError", err)
			}
		})
	}
}

func TestValidateSearch(t *testing.T) {
	if err := ValidateSearch("chan", "query"); err != nil {
		t.Fatalf("valid search rejected: %v", err)
	}
	if err := ValidateSearch("", "query"); !errors.Is(err, ErrMissingChannel) {
		t.Errorf("err = %v", err)
	}
	if err := ValidateSearch("chan", "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("err = %v", err)
	}
}

func TestValidateChunkParams(t *testing.T) {
	if err := ValidateChunkParams(1500, 200); err != nil {
		t.Fatalf("default params rejected: %v", err)
	}
	if err := ValidateChunkParams(100, 100); !errors.Is(err, ErrInvalidChunkParams) {
		t.Errorf("overlap == size: err = %v", err)
	}
	if err := ValidateChunkParams(100, -1); !errors.Is(err, ErrInvalidChunkParams) {
		t.Errorf("negative overlap: err = %v", err)
	}
}

func TestSectionAnnotations(t *testing.T) {
	s := SectionAnnotations{
		ActionItems:   []string{"a"},
		DecisionsMade: []string{"b", "c"},
	}
	if got := s.ByType(SectionDecisionsMade); len(got) != 2 {
		t.Errorf("ByType = %v", got)
	}
	if got := s.ByType("bogus"); got != nil {
		t.Errorf("unknown type = %v", got)
	}
	m := s.AsMap()
	if len(m) != 6 {
		t.Errorf("AsMap has %d keys, want all six sections", len(m))
	}
	if len(m["action_items"]) != 1 {
		t.Errorf("action_items = %v", m["action_items"])
	}

	if err := ValidateSectionType(SectionNotesForAI); err != nil {
		t.Errorf("valid section rejected: %v", err)
	}
	if err := ValidateSectionType("bogus"); !errors.Is(err, ErrInvalidSection) {
		t.Errorf("err = %v", err)
	}
}
