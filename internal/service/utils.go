package service

import (
	"strings"
	"unicode/utf8"
)

// cleanText trims s and drops invalid UTF-8 sequences, which PostgreSQL
// rejects in TEXT columns and mail providers reject in bodies.
func cleanText(s string) string {
	return strings.TrimSpace(sanitizeUTF8(s))
}

// sanitizeUTF8 removes invalid UTF-8 sequences from s.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}
	return result.String()
}
