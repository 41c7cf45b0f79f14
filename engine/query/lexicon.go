package query

// Category classifies a query for retrieval tuning. The set is closed; adding
// a category is a table edit here, not a new type.
type Category string

const (
	CategoryFactual    Category = "factual"    // direct factual questions
	CategoryConceptual Category = "conceptual" // broader conceptual queries
	CategoryTemporal   Category = "temporal"   // time-based queries
	CategoryDecision   Category = "decision"   // decision-related queries
	CategoryAction     Category = "action"     // action items or tasks
	CategoryTechnical  Category = "technical"  // technical discussions
)

// categoryTriggers maps each category to the phrases that vote for it.
// Order matters: ties resolve to the earlier entry.
var categoryTriggers = []struct {
	cat      Category
	triggers []string
}{
	{CategoryFactual, []string{"what", "who", "where", "when", "which", "how many"}},
	{CategoryConceptual, []string{"why", "how", "explain", "concept", "understand"}},
	{CategoryTemporal, []string{"yesterday", "today", "tomorrow", "last week", "recently", "ago"}},
	{CategoryDecision, []string{"decide", "choice", "option", "should", "better", "recommend"}},
	{CategoryAction, []string{"action", "task", "todo", "need to", "must", "should do"}},
	{CategoryTechnical, []string{"code", "implementation", "technical", "algorithm", "architecture"}},
}

// stopwords excluded from keyword extraction.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "have": true, "has": true, "had": true, "do": true,
	"does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true,
}

// expansions substitutes domain abbreviations with their primary synonym when
// building the synonym variant. Order fixes substitution precedence.
var expansions = []struct {
	term     string
	synonyms []string
}{
	{"app", []string{"application", "software", "program"}},
	{"mobile", []string{"ios", "android", "smartphone"}},
	{"db", []string{"database", "storage", "data"}},
	{"api", []string{"endpoint", "interface", "service"}},
	{"ui", []string{"interface", "frontend", "design"}},
	{"bug", []string{"error", "issue", "problem"}},
	{"feature", []string{"functionality", "capability", "enhancement"}},
}

// leadingFillers are conversational prefixes stripped during normalization.
var leadingFillers = []string{"can you ", "please ", "help me ", "tell me "}

// trailingPoliteness suffixes are stripped during normalization. Longest first.
var trailingPoliteness = []string{"thank you", "thanks", "thank", "please"}
