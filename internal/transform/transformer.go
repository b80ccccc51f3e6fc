// Package transform maps raw export records onto the typed entities the
// rest of the pipeline works with: field renames, status normalization,
// date parsing, custom-field filtering and taxonomy reference resolution.
package transform

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"wpmigrate/internal/entities"
	"wpmigrate/internal/utils"
	"wpmigrate/internal/wxr"
)

const (
	// Export timestamps use this layout in site-local and GMT variants.
	exportTimeLayout = "2006-01-02 15:04:05"
	// Drafts that were never published carry this placeholder date.
	zeroDateSentinel = "0000-00-00 00:00:00"
	// Destination label columns hold at most this many characters.
	maxTagNameRunes = 100
)

// ErrNoSourceID marks records that cannot be imported because they carry
// no usable source identifier.
var ErrNoSourceID = errors.New("record has no source id")

// Taxonomy domains used by item-level term references.
const (
	domainCategory = "category"
	domainTag      = "post_tag"
)

// Custom fields whose keys start with an underscore are platform-private
// bookkeeping (edit locks, trash state, oembed caches, attachment
// internals) and are dropped, except for the handful below that map onto
// first-class entity fields.
const (
	metaKeyThumbnail      = "_thumbnail_id"
	metaKeySEOTitle       = "_yoast_wpseo_title"
	metaKeySEODescription = "_yoast_wpseo_metadesc"
	metaKeySEOKeywords    = "_yoast_wpseo_focuskw"
	metaKeyAIOTitle       = "_aioseo_title"
	metaKeyAIODescription = "_aioseo_description"
	metaKeyAttachedFile   = "_wp_attached_file"
	metaKeyAttachmentMeta = "_wp_attachment_metadata"
	metaKeyImageAlt       = "_wp_attachment_image_alt"
)

// Transformer converts raw items and term definitions into typed
// entities. It is stateless and safe for concurrent use.
type Transformer struct{}

func New() *Transformer {
	return &Transformer{}
}

// IsSkippedType reports post types that exist only as editor bookkeeping
// and are never imported.
func IsSkippedType(postType string) bool {
	return postType == "revision" || postType == "nav_menu_item"
}

// IsAttachment reports whether the item describes a binary asset rather
// than structural content.
func IsAttachment(it *wxr.Item) bool {
	return it.PostType == "attachment"
}

// ToEntry converts a post, page or custom-type item into an Entry,
// resolving its taxonomy references against the term index. Attachments
// are not entries; for them it returns (nil, nil).
func (t *Transformer) ToEntry(it *wxr.Item, terms *wxr.TermIndex) (*entities.Entry, error) {
	if IsAttachment(it) {
		return nil, nil
	}
	if it.PostID <= 0 {
		return nil, fmt.Errorf("item %q: %w", it.Title, ErrNoSourceID)
	}

	e := &entities.Entry{
		SourceID:  it.PostID,
		Title:     CleanText(it.Title),
		Body:      CleanBody(it.Content),
		Excerpt:   CleanText(it.Excerpt),
		Status:    mapStatus(it.PostID, it.Status),
		Type:      mapContentType(it.PostType),
		ParentID:  it.PostParent,
		MenuOrder: it.MenuOrder,
		Link:      strings.TrimSpace(it.Link),
	}

	// The destination has no per-entry password gate, so protected posts
	// land as private rather than public.
	if it.Password != "" && e.Status == entities.EntryStatusPublished {
		e.Status = entities.EntryStatusPrivate
	}

	e.Slug = strings.TrimSpace(it.PostName)
	if e.Slug == "" {
		e.Slug = utils.GenerateSlug(e.Title, "entry", e.SourceID)
	}

	e.PublishedAt = parseExportTime(it.PostID, firstNonZeroDate(it.PostDateGMT, it.PostDate))
	e.ModifiedAt = parseExportTime(it.PostID, it.ModifiedGMT)

	t.resolveTerms(e, it, terms)
	t.applyMeta(e, it)

	for _, c := range it.Comments {
		if c.Approved == "spam" || c.Approved == "trash" {
			continue
		}
		e.Comments = append(e.Comments, entities.Comment{
			SourceID: c.ID,
			Author:   CleanText(c.Author),
			Email:    strings.TrimSpace(c.Email),
			URL:      strings.TrimSpace(c.URL),
			Body:     CleanBody(c.Body),
			Approved: c.Approved == "1",
			PostedAt: parseExportTime(it.PostID, c.DateGMT),
		})
	}

	return e, nil
}

// ToMedia converts an attachment item into a Media record. Dimensions and
// size variants come from the serialized attachment metadata when present.
// For non-attachment items it returns (nil, nil).
func (t *Transformer) ToMedia(it *wxr.Item) (*entities.Media, error) {
	if !IsAttachment(it) {
		return nil, nil
	}
	if it.PostID <= 0 {
		return nil, fmt.Errorf("attachment %q: %w", it.Title, ErrNoSourceID)
	}

	m := &entities.Media{
		SourceID:    it.PostID,
		AttachedTo:  it.PostParent,
		Title:       CleanText(it.Title),
		Description: CleanBody(it.Content),
		Caption:     CleanText(it.Excerpt),
		AltText:     CleanText(it.MetaValue(metaKeyImageAlt)),
		OriginURL:   strings.TrimSpace(it.AttachmentURL),
		UploadedAt:  parseExportTime(it.PostID, firstNonZeroDate(it.PostDateGMT, it.PostDate)),
	}

	m.FileName = attachmentFileName(it.MetaValue(metaKeyAttachedFile), m.OriginURL)
	m.MIMEType = MIMEForFile(m.FileName)
	m.Width, m.Height, m.Variants = ParseAttachmentMeta(it.MetaValue(metaKeyAttachmentMeta))

	return m, nil
}

// ToCategory converts a hierarchical term definition. Terms without a
// usable slug get one generated from the display name.
func (t *Transformer) ToCategory(term wxr.CategoryTerm) entities.Category {
	c := entities.Category{
		SourceID:    term.TermID,
		Slug:        strings.TrimSpace(term.Slug),
		Name:        CleanText(term.Name),
		Description: CleanText(term.Description),
		ParentSlug:  strings.TrimSpace(term.ParentSlug),
		Kind:        entities.TaxonomyHierarchical,
	}
	if c.Slug == "" {
		c.Slug = utils.GenerateSlug(c.Name, "cat", c.SourceID)
	}
	if c.Name == "" {
		c.Name = c.Slug
	}
	return c
}

// ToTag converts a flat term definition. Display names are capped at the
// destination's label length.
func (t *Transformer) ToTag(term wxr.TagTerm) entities.Tag {
	tag := entities.Tag{
		SourceID:    term.TermID,
		Slug:        strings.TrimSpace(term.Slug),
		Name:        TruncateRunes(CleanText(term.Name), maxTagNameRunes),
		Description: CleanText(term.Description),
	}
	if tag.Slug == "" {
		tag.Slug = utils.GenerateSlug(tag.Name, "tag", tag.SourceID)
	}
	if tag.Name == "" {
		tag.Name = tag.Slug
	}
	return tag
}

func (t *Transformer) resolveTerms(e *entities.Entry, it *wxr.Item, terms *wxr.TermIndex) {
	for _, c := range it.Categories {
		ref := entities.TermRef{
			Slug: strings.TrimSpace(c.Slug),
			Name: CleanText(c.Name),
		}
		if ref.Slug == "" {
			ref.Slug = utils.GenerateSlug(ref.Name, "", 0)
		}
		if ref.Slug == "" {
			continue
		}
		switch c.Domain {
		case domainCategory:
			if def, ok := terms.Category(ref.Slug); ok {
				ref.SourceID = def.TermID
				if ref.Name == "" {
					ref.Name = CleanText(def.Name)
				}
			}
			e.Categories = append(e.Categories, ref)
		case domainTag:
			if def, ok := terms.Tag(ref.Slug); ok {
				ref.SourceID = def.TermID
				if ref.Name == "" {
					ref.Name = CleanText(def.Name)
				}
			}
			e.Tags = append(e.Tags, ref)
		}
		// Other domains (post formats and custom taxonomies bound to
		// plugins) have no destination representation.
	}
}

func (t *Transformer) applyMeta(e *entities.Entry, it *wxr.Item) {
	for _, m := range it.Meta {
		switch {
		case m.Key == metaKeyThumbnail:
			id, err := strconv.ParseInt(strings.TrimSpace(m.Value), 10, 64)
			if err != nil {
				log.Printf("transform: entry %d: unusable thumbnail reference %q", e.SourceID, m.Value)
				continue
			}
			e.FeaturedMediaID = id
		case m.Key == metaKeySEOTitle, m.Key == metaKeyAIOTitle:
			e.SEO.Title = CleanText(m.Value)
		case m.Key == metaKeySEODescription, m.Key == metaKeyAIODescription:
			e.SEO.Description = CleanText(m.Value)
		case m.Key == metaKeySEOKeywords:
			e.SEO.Keywords = CleanText(m.Value)
		case strings.HasPrefix(m.Key, "_"):
			continue
		default:
			if e.CustomFields == nil {
				e.CustomFields = make(map[string]string)
			}
			e.CustomFields[m.Key] = m.Value
		}
	}
}

func mapStatus(sourceID int64, status string) entities.EntryStatus {
	switch status {
	case "publish":
		return entities.EntryStatusPublished
	case "draft", "pending", "future", "auto-draft", "inherit":
		return entities.EntryStatusDraft
	case "private":
		return entities.EntryStatusPrivate
	default:
		log.Printf("transform: entry %d: unknown status %q, importing as draft", sourceID, status)
		return entities.EntryStatusDraft
	}
}

func mapContentType(postType string) entities.ContentType {
	switch postType {
	case "post":
		return entities.ContentTypePost
	case "page":
		return entities.ContentTypePage
	default:
		return entities.ContentTypeOther
	}
}

// parseExportTime turns an export timestamp into a UTC time. Empty
// values and the never-published placeholder map to the zero time;
// unparsable values do too, with a warning, so a single bad date cannot
// fail an otherwise sound record.
func parseExportTime(sourceID int64, value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" || value == zeroDateSentinel {
		return time.Time{}
	}
	ts, err := time.ParseInLocation(exportTimeLayout, value, time.UTC)
	if err != nil {
		log.Printf("transform: record %d: unparsable date %q", sourceID, value)
		return time.Time{}
	}
	return ts
}

func firstNonZeroDate(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && v != zeroDateSentinel {
			return v
		}
	}
	return ""
}

// attachmentFileName picks the asset's base file name, preferring the
// recorded relative upload path over the URL.
func attachmentFileName(attachedFile, originURL string) string {
	if f := strings.TrimSpace(attachedFile); f != "" {
		return path.Base(f)
	}
	if originURL == "" {
		return ""
	}
	u, err := url.Parse(originURL)
	if err != nil || u.Path == "" {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
