package transform

import (
	"html"
	"regexp"
	"strings"
)

var (
	// Control bytes except tab, newline and carriage return.
	controlChars  = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	collapseSpace = regexp.MustCompile(`\s+`)
)

// CleanText normalizes a single-line field: HTML entities are decoded,
// control bytes dropped and whitespace collapsed. Used for titles,
// excerpts, term names and similar scalar text.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = controlChars.ReplaceAllString(s, "")
	s = collapseSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanBody normalizes a body field while preserving its markup and line
// structure. Entities stay encoded because the body is HTML.
func CleanBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return controlChars.ReplaceAllString(s, "")
}

// TruncateRunes caps a string at n runes, counting runes rather than
// bytes so multibyte text is never cut mid-character.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
