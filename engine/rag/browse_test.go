package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/RecallWorks/recall-engine/engine/domain"
	"github.com/RecallWorks/recall-engine/engine/semantic"
)

func browseHit(ts, name string, idx int, text string) semantic.Hit {
	return semantic.Hit{
		ID: "p", Score: 0.1, Text: text,
		ChannelID: "chan", Timestamp: ts, Source: "discord",
		TranscriptName: name, ChunkIndex: idx, TotalChunks: 3,
	}
}

func TestChannelTranscriptReassembly(t *testing.T) {
	search := &mockSearcher{
		responses: [][]semantic.Hit{{
			browseHit("2026-01-01T00:00:00Z", "T", 2, "third"),
			browseHit("2026-01-01T00:00:00Z", "T", 0, "first"),
			browseHit("2026-01-01T00:00:00Z", "T", 1, "second"),
		}},
	}
	svc := testService(&mockEmbedder{}, search)

	text, err := svc.ChannelTranscript(context.Background(), "chan", "T")
	if err != nil {
		t.Fatal(err)
	}
	if text != "first\nsecond\nthird" {
		t.Errorf("transcript = %q", text)
	}

	c := search.calls[0]
	if c.extra[semantic.KeyTranscriptName] != "T" {
		t.Errorf("missing transcript filter: %v", c.extra)
	}
	if c.minScore != 0 {
		t.Errorf("browse minScore = %v, want 0", c.minScore)
	}
	if c.topK != DefaultOptions().BrowseTopK {
		t.Errorf("browse topK = %d", c.topK)
	}
	for _, v := range c.embedding {
		if v != 0.1 {
			t.Fatal("browse should search with the placeholder vector")
		}
	}
}

func TestChannelTranscriptLatestWhenUnnamed(t *testing.T) {
	search := &mockSearcher{
		responses: [][]semantic.Hit{{
			browseHit("2026-01-01T00:00:00Z", "Old", 0, "stale"),
			browseHit("2026-02-01T00:00:00Z", "New", 1, "tail"),
			browseHit("2026-02-01T00:00:00Z", "New", 0, "head"),
		}},
	}
	svc := testService(&mockEmbedder{}, search)

	text, err := svc.ChannelTranscript(context.Background(), "chan", "")
	if err != nil {
		t.Fatal(err)
	}
	if text != "head\ntail" {
		t.Errorf("transcript = %q, want latest transcript only", text)
	}
}

func TestChannelTranscriptEmptyChannel(t *testing.T) {
	svc := testService(&mockEmbedder{}, &mockSearcher{})
	text, err := svc.ChannelTranscript(context.Background(), "chan", "")
	if err != nil {
		t.Fatal(err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}

	if _, err := svc.ChannelTranscript(context.Background(), "", ""); !errors.Is(err, domain.ErrMissingChannel) {
		t.Errorf("err = %v", err)
	}
}

func TestAllSectionsPicksLatest(t *testing.T) {
	old := browseHit("2026-01-01T00:00:00Z", "Old", 0, "x")
	old.Sections = map[string][]string{"action_items": {"stale item"}}
	latest := browseHit("2026-03-01T00:00:00Z", "New", 0, "y")
	latest.Sections = map[string][]string{
		"action_items":   {"ship the beta"},
		"decisions_made": {"keep qdrant"},
	}
	search := &mockSearcher{responses: [][]semantic.Hit{{old, latest}}}
	svc := testService(&mockEmbedder{}, search)

	sections, err := svc.AllSections(context.Background(), "chan")
	if err != nil {
		t.Fatal(err)
	}
	if len(sections["action_items"]) != 1 || sections["action_items"][0] != "ship the beta" {
		t.Errorf("action_items = %v", sections["action_items"])
	}

	if got := search.calls[0].extra[semantic.KeyChunkIndex]; got != 0 {
		t.Errorf("chunk filter = %v, want first chunks only", got)
	}
}

func TestSectionItems(t *testing.T) {
	h := browseHit("2026-03-01T00:00:00Z", "T", 0, "x")
	h.Sections = map[string][]string{"decisions_made": {"keep qdrant"}}
	search := &mockSearcher{responses: [][]semantic.Hit{{h}}}
	svc := testService(&mockEmbedder{}, search)

	items, err := svc.SectionItems(context.Background(), "chan", domain.SectionDecisionsMade)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0] != "keep qdrant" {
		t.Errorf("items = %v", items)
	}

	if _, err := svc.SectionItems(context.Background(), "chan", "bogus"); !errors.Is(err, domain.ErrInvalidSection) {
		t.Errorf("err = %v", err)
	}
}

func TestListTranscripts(t *testing.T) {
	bad := browseHit("not-a-time", "Broken", 0, "x")
	search := &mockSearcher{
		responses: [][]semantic.Hit{{
			browseHit("2026-01-01T00:00:00Z", "Old", 0, "x"),
			bad,
			browseHit("2026-02-01T00:00:00Z", "New", 0, "y"),
		}},
	}
	svc := testService(&mockEmbedder{}, search)

	infos, err := svc.ListTranscripts(context.Background(), "chan")
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("infos = %d, want bad timestamp skipped", len(infos))
	}
	if infos[0].Name != "New" || infos[1].Name != "Old" {
		t.Errorf("order = %s, %s, want newest first", infos[0].Name, infos[1].Name)
	}
	if infos[0].TotalChunks != 3 || infos[0].Source != "discord" {
		t.Errorf("info = %+v", infos[0])
	}
}

func TestListTranscriptsStoreError(t *testing.T) {
	search := &mockSearcher{errs: []error{errors.New("down")}}
	svc := testService(&mockEmbedder{}, search)
	if _, err := svc.ListTranscripts(context.Background(), "chan"); err == nil {
		t.Fatal("expected error")
	}
}
