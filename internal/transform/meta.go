package transform

import (
	"regexp"
	"strconv"
)

// Attachment metadata arrives as a PHP-serialized blob. Only three facts
// are needed from it (original dimensions and the generated size
// variants), so the values are pattern-matched out of the blob instead of
// dragging in a full deserializer. The top-level width/height keys come
// before any per-size entries in the serialized form.
var (
	metaWidth   = regexp.MustCompile(`s:5:"width";i:(\d+)`)
	metaHeight  = regexp.MustCompile(`s:6:"height";i:(\d+)`)
	metaVariant = regexp.MustCompile(`s:\d+:"([a-zA-Z0-9_-]+)";a:\d+:\{s:4:"file";s:\d+:"([^"]+)"`)
)

// ParseAttachmentMeta extracts original dimensions and resized-variant
// file names from a serialized attachment metadata value. Blobs that do
// not match yield zero dimensions and no variants.
func ParseAttachmentMeta(serialized string) (width, height int, variants map[string]string) {
	if serialized == "" {
		return 0, 0, nil
	}
	if m := metaWidth.FindStringSubmatch(serialized); m != nil {
		width, _ = strconv.Atoi(m[1])
	}
	if m := metaHeight.FindStringSubmatch(serialized); m != nil {
		height, _ = strconv.Atoi(m[1])
	}
	for _, m := range metaVariant.FindAllStringSubmatch(serialized, -1) {
		if variants == nil {
			variants = make(map[string]string)
		}
		variants[m[1]] = m[2]
	}
	return width, height, variants
}
