package rewrite

import (
	"regexp"
	"strings"
)

var (
	captionShortcode = regexp.MustCompile(`(?s)\[caption\b[^\]]*\](.*?)\[/caption\]`)
	galleryShortcode = regexp.MustCompile(`\[gallery\b[^\]]*\]`)
	embedShortcode   = regexp.MustCompile(`(?s)\[embed\b[^\]]*\](.*?)\[/embed\]`)
)

// FlattenShortcodes removes the bracketed directives the destination has
// no renderer for: caption wrappers keep their inner markup, galleries
// are dropped, embeds reduce to their bare URL. Directives that are not
// recognized stay untouched rather than being guessed at.
func FlattenShortcodes(body string) string {
	body = captionShortcode.ReplaceAllString(body, "$1")
	body = galleryShortcode.ReplaceAllString(body, "")
	body = embedShortcode.ReplaceAllStringFunc(body, func(m string) string {
		inner := embedShortcode.FindStringSubmatch(m)[1]
		return strings.TrimSpace(inner)
	})
	return body
}
