package gen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// Hierarchical Numbering
// =============================================================================

// Chapter and subchapter numbers are assigned by the orchestrator at
// creation time, never taken from the provider. Any numeric prefix the
// provider emits in a returned title is stripped first so numbers are not
// duplicated. Non-numeric prefixes (letters, Roman numerals) pass through
// unstripped; that is a known gap, not a feature.

// numberPrefix matches an orchestrator-style numeric prefix: "3.", "3)",
// "2.1", "2.1." and similar, followed by whitespace.
var numberPrefix = regexp.MustCompile(`^\s*\d+(?:\.\d+)*[.)]?\s+`)

// StripNumber removes a leading numeric prefix from a provider title.
func StripNumber(title string) string {
	return strings.TrimSpace(numberPrefix.ReplaceAllString(title, ""))
}

// ChapterTitle formats a chapter title with its sequential number.
func ChapterTitle(number int, title string) string {
	return fmt.Sprintf("%d. %s", number, StripNumber(title))
}

// SubchapterTitle formats a subchapter title combining its parent chapter's
// number with its own sequential index.
func SubchapterTitle(chapter, index int, title string) string {
	return fmt.Sprintf("%d.%d %s", chapter, index, StripNumber(title))
}

// ParseChapterNumber extracts the leading chapter number from an already
// numbered title ("3. Concurrency" → 3). Returns ok=false when the title
// carries no numeric prefix.
func ParseChapterNumber(title string) (int, bool) {
	m := numberPrefix.FindString(title)
	if m == "" {
		return 0, false
	}
	digits := strings.TrimSpace(m)
	digits = strings.TrimRight(digits, ".)")
	// Only the first component matters for "2.1"-style prefixes.
	if i := strings.IndexByte(digits, '.'); i >= 0 {
		digits = digits[:i]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
