package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length caps applied by callers of Sanitize
const (
	MaxURLLength    = 2048
	MaxRawTextInput = 50000
	URLPromptChars  = 1000
	TextPromptChars = 1500
)

// stripped are removed outright so sanitized text can never open a tag,
// close an attribute or start an entity in rendered HTML.
const stripped = `<>"'&`

// Sanitize cleans user supplied or scraped text. It removes markup
// characters and control characters, turns every whitespace run into a
// single space, then truncates to maxLen runes (no cap when maxLen <= 0).
// Sanitize(Sanitize(s, n), n) == Sanitize(s, n).
func Sanitize(s string, maxLen int) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")
	s = strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(stripped, r):
			return -1
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	return strings.TrimSpace(Truncate(s, maxLen))
}

// Truncate cuts s to at most n runes. n <= 0 leaves s untouched.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Preview cuts s to n runes and marks the cut with "..."
func Preview(s string, n int) string {
	cut := Truncate(s, n)
	if len(cut) < len(s) {
		return cut + "..."
	}
	return s
}
