// Package sanitize cleans free-text user input.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var tag = regexp.MustCompile(`<.*?>`)

// Text strips anything that looks like an HTML tag and trims surrounding whitespace. Entities are
// left untouched so output must still be escaped when rendered.
func Text(s string) string {
	return strings.TrimSpace(tag.ReplaceAllString(s, ""))
}

// CapitalizeFirst upper-cases the first character of s and leaves the rest as is.
func CapitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ExcerptLength is how many runes of user input are echoed back in messages.
const ExcerptLength = 64

// Excerpt shortens s to at most limit runes, marking a cut with an ellipsis.
func Excerpt(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
