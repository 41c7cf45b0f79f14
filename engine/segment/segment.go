// Package segment splits raw transcript text into overlapping, boundary-aware
// chunks suitable for embedding. Boundaries are biased toward sentence ends so
// a chunk rarely cuts mid-sentence, at the cost of strict size uniformity.
package segment

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the target chunk length in bytes.
	DefaultChunkSize = 1500
	// DefaultOverlap is how many bytes consecutive chunks share.
	DefaultOverlap = 200
	// boundaryWindow is how far back from a naive cut we look for a
	// sentence-ending delimiter.
	boundaryWindow = 100
)

// delimiters in preference order. The first one found in the window wins.
var delimiters = []string{". ", "! ", "? ", "\n\n", "\n"}

// Split walks text left to right in windows of chunkSize, snapping each
// interior boundary back to the nearest sentence end within boundaryWindow.
// After a chunk is emitted the next window starts overlap bytes before its
// end. Chunks are trimmed; chunks that trim to empty are skipped. Empty
// input yields nil.
func Split(text string, chunkSize, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = snap(text, start, end)
		}

		if c := strings.TrimSpace(text[start:end]); c != "" {
			chunks = append(chunks, c)
		}

		if end >= len(text) {
			break
		}
		next := end - overlap
		if next <= start {
			// Snapping shrank the window below the overlap; move on
			// without overlap rather than regressing.
			next = end
		}
		start = next
	}
	return chunks
}

// snap searches backward up to boundaryWindow bytes from the naive cut for a
// sentence-ending delimiter and returns the position just past it. If none is
// found the naive cut stands, adjusted onto a rune boundary.
func snap(text string, start, end int) int {
	lo := end - boundaryWindow
	if lo < start {
		lo = start
	}
	window := text[lo:end]
	for _, d := range delimiters {
		if i := strings.LastIndex(window, d); i >= 0 {
			cut := lo + i + len(d)
			if cut > start {
				return cut
			}
		}
	}
	for end > start && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}
