// Package query normalizes a raw search query, classifies its intent,
// extracts keywords, and produces a bounded set of query variants with tuned
// retrieval parameters. Optimize is pure: no I/O, no hidden state.
package query

import (
	"regexp"
	"strings"

	"github.com/RecallWorks/recall-engine/pkg/fn"
)

const (
	// MaxVariants bounds the variant list; the normalized original is
	// always the first entry.
	MaxVariants = 4
	// MaxKeywords bounds extracted keywords.
	MaxKeywords = 10
	// broadKeywords is how many keywords the broad variant keeps.
	broadKeywords = 3
)

// SearchParams tunes one retrieval pass.
type SearchParams struct {
	TopK         int     `json:"top_k"`
	MinScore     float32 `json:"min_score"`
	PreferRecent bool    `json:"prefer_recent,omitempty"`
}

// Optimized is the result of query optimization.
type Optimized struct {
	Original string       `json:"original"`
	Variants []string     `json:"variants"`
	Keywords []string     `json:"keywords"`
	Category Category     `json:"category"`
	Params   SearchParams `json:"params"`
}

var wordRe = regexp.MustCompile(`\w+`)

// Optimize runs the full optimization: normalize, classify, extract
// keywords, expand, parametrize. Same input always yields the same output.
func Optimize(raw string) Optimized {
	normalized := normalize(raw)
	cat := classify(normalized)
	keywords := extractKeywords(normalized)

	return Optimized{
		Original: raw,
		Variants: expand(normalized, keywords),
		Keywords: keywords,
		Category: cat,
		Params:   paramsFor(cat, len(keywords)),
	}
}

// normalize collapses whitespace, lowercases, and strips conversational
// filler from both ends.
func normalize(raw string) string {
	q := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	for _, p := range leadingFillers {
		if strings.HasPrefix(q, p) {
			q = q[len(p):]
			break
		}
	}
	for _, s := range trailingPoliteness {
		if strings.HasSuffix(q, s) {
			q = q[:len(q)-len(s)]
			break
		}
	}
	return strings.TrimSpace(q)
}

// classify scores each category by counting trigger phrases present in the
// normalized query. Highest score wins; ties resolve in declaration order;
// zero everywhere defaults to conceptual.
func classify(q string) Category {
	best := CategoryConceptual
	bestScore := 0
	for _, entry := range categoryTriggers {
		score := 0
		for _, trig := range entry.triggers {
			if strings.Contains(q, trig) {
				score++
			}
		}
		if score > bestScore {
			best = entry.cat
			bestScore = score
		}
	}
	return best
}

// extractKeywords tokenizes on word boundaries, drops stopwords and tokens
// of length <= 2, dedupes preserving order, and caps at MaxKeywords.
func extractKeywords(q string) []string {
	words := wordRe.FindAllString(q, -1)
	keywords := fn.Unique(fn.Filter(words, func(w string) bool {
		return len(w) > 2 && !stopwords[w]
	}))
	if len(keywords) > MaxKeywords {
		keywords = keywords[:MaxKeywords]
	}
	return keywords
}

// expand builds the variant list: normalized original, keyword-only,
// synonym-substituted, and (for complex queries) a broad first-keywords
// variant, truncated to MaxVariants.
func expand(q string, keywords []string) []string {
	variants := []string{q}

	if len(keywords) > 0 {
		kq := strings.Join(keywords, " ")
		if kq != q {
			variants = append(variants, kq)
		}
	}

	if hasExpandableKeyword(keywords) {
		substituted := q
		for _, e := range expansions {
			if strings.Contains(q, e.term) {
				substituted = strings.ReplaceAll(substituted, e.term, e.synonyms[0])
			}
		}
		if substituted != q {
			variants = append(variants, substituted)
		}
	}

	if len(keywords) > broadKeywords {
		broad := strings.Join(keywords[:broadKeywords], " ")
		seen := false
		for _, v := range variants {
			if v == broad {
				seen = true
				break
			}
		}
		if !seen {
			variants = append(variants, broad)
		}
	}

	if len(variants) > MaxVariants {
		variants = variants[:MaxVariants]
	}
	return variants
}

func hasExpandableKeyword(keywords []string) bool {
	for _, kw := range keywords {
		for _, e := range expansions {
			if kw == e.term {
				return true
			}
		}
	}
	return false
}

// paramsFor starts from the base profile, applies the category override, then
// adjusts for query complexity by keyword count.
func paramsFor(cat Category, keywordCount int) SearchParams {
	p := SearchParams{TopK: 5, MinScore: 0.3}

	switch cat {
	case CategoryFactual:
		// Precision over recall.
		p.TopK, p.MinScore = 3, 0.4
	case CategoryConceptual:
		p.TopK, p.MinScore = 8, 0.25
	case CategoryTemporal:
		p.TopK, p.MinScore = 6, 0.3
		p.PreferRecent = true
	case CategoryDecision, CategoryAction:
		// Broad coverage.
		p.TopK, p.MinScore = 10, 0.2
	case CategoryTechnical:
		p.TopK, p.MinScore = 5, 0.35
	}

	if keywordCount <= 2 {
		p.TopK = min(p.TopK+2, 10)
		p.MinScore = max32(p.MinScore-0.05, 0.2)
	} else if keywordCount >= 6 {
		p.MinScore = min32(p.MinScore+0.05, 0.5)
	}
	return p
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
