// Package destination holds the shared vocabulary between the import
// pipeline and the concrete store implementations: the per-run identity
// maps produced while writing categories and media, consumed while
// writing entries and rewriting bodies, plus the row-shaping rules every
// store applies the same way.
package destination

import (
	"regexp"
	"strings"

	"wpmigrate/internal/entities"
)

// Media kinds drive how the destination serves an asset.
const (
	KindImage = "image"
	KindSVG   = "svg"
	KindFile  = "file"
)

// MaxLabelLength caps tag display names at the destination.
const MaxLabelLength = 100

var markupTags = regexp.MustCompile(`<[^>]*>`)

// MediaRef locates one imported asset at the destination.
type MediaRef struct {
	ID      int64
	RelPath string // storage-relative path of the stored file
}

// Maps carries the source-id to destination-id mappings built during one
// run. They live only for the run; nothing persists them.
type Maps struct {
	Categories map[int64]int64
	Media      map[int64]MediaRef
}

func NewMaps() *Maps {
	return &Maps{
		Categories: make(map[int64]int64),
		Media:      make(map[int64]MediaRef),
	}
}

// MediaKind classifies an asset by MIME type. Vectors are kept apart
// from raster images because they carry no meaningful pixel dimensions.
func MediaKind(mimeType string) string {
	switch {
	case mimeType == "image/svg+xml":
		return KindSVG
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	default:
		return KindFile
	}
}

// SearchText renders the plain-text search document for an entry: the
// title plus the body with markup stripped and whitespace collapsed.
func SearchText(e *entities.Entry) string {
	plain := markupTags.ReplaceAllString(e.Body, " ")
	plain = strings.Join(strings.Fields(plain), " ")
	if plain == "" {
		return e.Title
	}
	return e.Title + "\n" + plain
}
