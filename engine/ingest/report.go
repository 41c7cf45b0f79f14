package ingest

import (
	"bufio"
	"strings"

	"github.com/RecallWorks/recall-engine/engine/domain"
)

// reportHeaders maps the headings of a formatted channel report to section
// categories. Matching is case-insensitive on the line prefix so decorated
// headings ("**Action Items:**") still resolve.
var reportHeaders = []struct {
	prefix  string
	section domain.SectionType
}{
	{"main conversation topics", domain.SectionConversationTopics},
	{"content ideas", domain.SectionContentIdeas},
	{"action items", domain.SectionActionItems},
	{"notes for the ai", domain.SectionNotesForAI},
	{"decisions made", domain.SectionDecisionsMade},
	{"critical updates", domain.SectionCriticalUpdates},
}

// ParseReportSections extracts categorized bullet items from a formatted
// channel report. Lines under a recognized heading that start with a bullet
// marker ("-", "*", "•") become items of that section; everything else is
// ignored.
func ParseReportSections(report string) domain.SectionAnnotations {
	var out domain.SectionAnnotations
	var current *[]string

	targets := map[domain.SectionType]*[]string{
		domain.SectionConversationTopics: &out.ConversationTopics,
		domain.SectionContentIdeas:       &out.ContentIdeas,
		domain.SectionActionItems:        &out.ActionItems,
		domain.SectionNotesForAI:         &out.NotesForAI,
		domain.SectionDecisionsMade:      &out.DecisionsMade,
		domain.SectionCriticalUpdates:    &out.CriticalUpdates,
	}

	scanner := bufio.NewScanner(strings.NewReader(report))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if section, ok := matchHeader(line); ok {
			current = targets[section]
			continue
		}

		if current == nil {
			continue
		}
		if item, ok := bulletItem(line); ok {
			*current = append(*current, item)
		}
	}
	return out
}

func matchHeader(line string) (domain.SectionType, bool) {
	normalized := strings.ToLower(strings.Trim(line, "*# "))
	for _, h := range reportHeaders {
		if strings.HasPrefix(normalized, h.prefix) {
			return h.section, true
		}
	}
	return "", false
}

func bulletItem(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			item := strings.TrimSpace(strings.TrimPrefix(line, marker))
			return item, item != ""
		}
	}
	return "", false
}
