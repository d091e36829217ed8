package util

import (
	"strings"
	"unicode"
)

// NormalizeText lowercases text and collapses whitespace runs so keyword
// matching is insensitive to casing and formatting.
func NormalizeText(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// ContainsKeyword reports whether text contains the keyword, after both are
// normalized. Empty keywords never match.
func ContainsKeyword(text, keyword string) bool {
	keyword = NormalizeText(keyword)
	if keyword == "" {
		return false
	}
	return strings.Contains(NormalizeText(text), keyword)
}

// EstimateRenderedLength approximates how many characters of a candidate text
// end up rendered on a visual layout. Whitespace runs count as a single
// character; everything else counts as-is.
func EstimateRenderedLength(s string) int {
	count := 0
	lastSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !lastSpace {
				count++
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		count++
	}
	return count
}

// Truncate shortens s to at most max runes, appending an ellipsis when it cuts.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
