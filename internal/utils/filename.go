package utils

import (
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
	// Control characters that have no business in a file name
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// SanitizeFileName makes a media file name safe to write to local storage.
// Invalid and control characters are removed, whitespace is collapsed, and
// over-long names are truncated with the extension kept intact. Returns ""
// when nothing usable survives; callers substitute a generated placeholder.
func SanitizeFileName(name string) string {
	name = controlChars.ReplaceAllString(name, "")
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = whitespaceChars.ReplaceAllString(name, " ")
	name = multipleSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	// Relative path tricks never survive sanitization
	name = strings.TrimLeft(name, ".")

	if len(name) > 200 {
		ext := ""
		if idx := strings.LastIndex(name, "."); idx > 0 && len(name)-idx <= 10 {
			ext = name[idx:]
		}
		name = strings.TrimSpace(name[:200-len(ext)]) + ext
	}

	return name
}
