package utils

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes characters and drops their combining marks, so that
// e.g. "é" becomes "e" before the ASCII filter runs.
var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// GenerateSlug builds a destination-safe code from a display name: lowercase
// ASCII letters, digits, hyphens and underscores only. Characters that do not
// transliterate (CJK and friends) are dropped; when nothing survives, the
// fallback is prefix_id, or just prefix when id is zero.
func GenerateSlug(name, prefix string, id int64) string {
	folded, _, err := transform.String(deaccent, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	lastHyphen := true // suppress leading hyphens
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '.' || r == '/':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		// anything else is dropped
	}

	slug := strings.Trim(b.String(), "-")
	if slug != "" {
		return slug
	}
	if id > 0 {
		return fmt.Sprintf("%s_%d", prefix, id)
	}
	return prefix
}
