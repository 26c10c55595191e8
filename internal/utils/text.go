// Package utils provides small shared helpers for text handling used by the
// cache key derivation and notification composition.
package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeText trims surrounding whitespace and collapses internal runs of
// whitespace to single spaces. Cache keys are derived from normalized text so
// that formatting-only differences still hit the same entry.
func NormalizeText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// TruncateRunes clips s to at most max runes, appending an ellipsis when
// anything was removed. A max <= 0 disables truncation.
func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "…"
}

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	return n
}
