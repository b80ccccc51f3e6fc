package transform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpmigrate/internal/entities"
	"wpmigrate/internal/wxr"
)

func termIndexFixture(t *testing.T) *wxr.TermIndex {
	t.Helper()
	doc := `<?xml version="1.0"?>
<rss version="2.0" xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
	<title>t</title>
	<wp:wxr_version>1.2</wp:wxr_version>
	<wp:category>
		<wp:term_id>3</wp:term_id>
		<wp:category_nicename>guides</wp:category_nicename>
		<wp:cat_name><![CDATA[Guides]]></wp:cat_name>
	</wp:category>
	<wp:tag>
		<wp:term_id>9</wp:term_id>
		<wp:tag_slug>coffee</wp:tag_slug>
		<wp:tag_name><![CDATA[Coffee]]></wp:tag_name>
	</wp:tag>
</channel>
</rss>`
	path := filepath.Join(t.TempDir(), "terms.xml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	e, err := wxr.Open(path)
	require.NoError(t, err)
	idx, err := e.ReadTermIndex()
	require.NoError(t, err)
	return idx
}

func TestToEntryMapsCoreFields(t *testing.T) {
	tr := New()
	it := &wxr.Item{
		Title:       "Best &amp; Worst",
		Link:        "https://old.example/2021/05/best-worst/",
		Content:     "<p>line one</p>\r\n<p>line two</p>",
		Excerpt:     "Short  version",
		PostID:      101,
		PostDateGMT: "2021-05-10 07:30:00",
		ModifiedGMT: "2021-06-01 10:00:00",
		Status:      "publish",
		PostName:    "best-worst",
		PostType:    "post",
		PostParent:  0,
		MenuOrder:   2,
	}

	e, err := tr.ToEntry(it, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(101), e.SourceID)
	assert.Equal(t, "Best & Worst", e.Title)
	assert.Equal(t, "<p>line one</p>\n<p>line two</p>", e.Body)
	assert.Equal(t, "Short version", e.Excerpt)
	assert.Equal(t, "best-worst", e.Slug)
	assert.Equal(t, entities.EntryStatusPublished, e.Status)
	assert.Equal(t, entities.ContentTypePost, e.Type)
	assert.Equal(t, 2, e.MenuOrder)
	assert.Equal(t, time.Date(2021, 5, 10, 7, 30, 0, 0, time.UTC), e.PublishedAt)
	assert.Equal(t, time.Date(2021, 6, 1, 10, 0, 0, 0, time.UTC), e.ModifiedAt)
}

func TestToEntryStatusMapping(t *testing.T) {
	tests := []struct {
		status string
		want   entities.EntryStatus
	}{
		{"publish", entities.EntryStatusPublished},
		{"draft", entities.EntryStatusDraft},
		{"pending", entities.EntryStatusDraft},
		{"future", entities.EntryStatusDraft},
		{"inherit", entities.EntryStatusDraft},
		{"private", entities.EntryStatusPrivate},
		{"some-plugin-status", entities.EntryStatusDraft},
	}
	tr := New()
	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			e, err := tr.ToEntry(&wxr.Item{PostID: 1, Status: tc.status, PostType: "post"}, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, e.Status)
		})
	}
}

func TestToEntryPasswordProtectedBecomesPrivate(t *testing.T) {
	tr := New()

	e, err := tr.ToEntry(&wxr.Item{PostID: 1, Status: "publish", Password: "letmein", PostType: "post"}, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.EntryStatusPrivate, e.Status)

	// A protected draft stays a draft.
	e, err = tr.ToEntry(&wxr.Item{PostID: 2, Status: "draft", Password: "letmein", PostType: "post"}, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.EntryStatusDraft, e.Status)
}

func TestToEntryContentTypes(t *testing.T) {
	tr := New()
	for postType, want := range map[string]entities.ContentType{
		"post":      entities.ContentTypePost,
		"page":      entities.ContentTypePage,
		"recipe":    entities.ContentTypeOther,
		"portfolio": entities.ContentTypeOther,
	} {
		e, err := tr.ToEntry(&wxr.Item{PostID: 1, PostType: postType}, nil)
		require.NoError(t, err)
		assert.Equal(t, want, e.Type, postType)
	}
}

func TestToEntryRejectsMissingID(t *testing.T) {
	_, err := New().ToEntry(&wxr.Item{Title: "no id"}, nil)
	require.ErrorIs(t, err, ErrNoSourceID)
}

func TestConvertersIgnoreOutOfScopeTypes(t *testing.T) {
	tr := New()

	e, err := tr.ToEntry(&wxr.Item{PostID: 1, PostType: "attachment"}, nil)
	require.NoError(t, err)
	assert.Nil(t, e)

	m, err := tr.ToMedia(&wxr.Item{PostID: 2, PostType: "post"})
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestToEntryGeneratesSlugWhenMissing(t *testing.T) {
	tr := New()

	e, err := tr.ToEntry(&wxr.Item{PostID: 5, Title: "Café Crawl!", PostType: "post"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "cafe-crawl", e.Slug)

	e, err = tr.ToEntry(&wxr.Item{PostID: 6, Title: "日本語", PostType: "post"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "entry_6", e.Slug)
}

func TestToEntryDates(t *testing.T) {
	tr := New()

	t.Run("placeholder maps to zero", func(t *testing.T) {
		e, err := tr.ToEntry(&wxr.Item{
			PostID:      1,
			PostType:    "post",
			PostDateGMT: "0000-00-00 00:00:00",
			PostDate:    "0000-00-00 00:00:00",
		}, nil)
		require.NoError(t, err)
		assert.True(t, e.PublishedAt.IsZero())
	})

	t.Run("falls back to site-local date", func(t *testing.T) {
		e, err := tr.ToEntry(&wxr.Item{
			PostID:      2,
			PostType:    "post",
			PostDateGMT: "0000-00-00 00:00:00",
			PostDate:    "2020-01-15 12:00:00",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2020, 1, 15, 12, 0, 0, 0, time.UTC), e.PublishedAt)
	})

	t.Run("garbage date degrades to zero", func(t *testing.T) {
		e, err := tr.ToEntry(&wxr.Item{PostID: 3, PostType: "post", PostDateGMT: "next tuesday"}, nil)
		require.NoError(t, err)
		assert.True(t, e.PublishedAt.IsZero())
	})
}

func TestToEntryMetaFiltering(t *testing.T) {
	it := &wxr.Item{
		PostID:   7,
		PostType: "post",
		Meta: []wxr.ItemMeta{
			{Key: "_thumbnail_id", Value: "205"},
			{Key: "_yoast_wpseo_title", Value: "SEO Title"},
			{Key: "_yoast_wpseo_metadesc", Value: "SEO description."},
			{Key: "_yoast_wpseo_focuskw", Value: "espresso"},
			{Key: "_edit_lock", Value: "1620000000:1"},
			{Key: "_edit_last", Value: "1"},
			{Key: "_wp_old_slug", Value: "former-name"},
			{Key: "_oembed_deadbeef", Value: "<iframe/>"},
			{Key: "rating", Value: "5"},
			{Key: "mood", Value: "caffeinated"},
		},
	}

	e, err := New().ToEntry(it, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(205), e.FeaturedMediaID)
	assert.Equal(t, "SEO Title", e.SEO.Title)
	assert.Equal(t, "SEO description.", e.SEO.Description)
	assert.Equal(t, "espresso", e.SEO.Keywords)
	assert.Equal(t, map[string]string{"rating": "5", "mood": "caffeinated"}, e.CustomFields)
}

func TestToEntryAllInOneSEOKeys(t *testing.T) {
	e, err := New().ToEntry(&wxr.Item{
		PostID:   7,
		PostType: "post",
		Meta: []wxr.ItemMeta{
			{Key: "_aioseo_title", Value: "AIO Title"},
			{Key: "_aioseo_description", Value: "AIO description."},
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "AIO Title", e.SEO.Title)
	assert.Equal(t, "AIO description.", e.SEO.Description)
}

func TestToEntryBadThumbnailIsDropped(t *testing.T) {
	e, err := New().ToEntry(&wxr.Item{
		PostID:   7,
		PostType: "post",
		Meta:     []wxr.ItemMeta{{Key: "_thumbnail_id", Value: "a:1:{oops}"}},
	}, nil)
	require.NoError(t, err)
	assert.Zero(t, e.FeaturedMediaID)
}

func TestToEntryComments(t *testing.T) {
	it := &wxr.Item{
		PostID:   8,
		PostType: "post",
		Comments: []wxr.ItemComment{
			{ID: 1, Author: "Jonas", Approved: "1", DateGMT: "2021-05-11 08:00:00", Body: "Nice."},
			{ID: 2, Author: "pending person", Approved: "0", Body: "Awaiting."},
			{ID: 3, Author: "linkbot", Approved: "spam", Body: "买药"},
			{ID: 4, Author: "troll", Approved: "trash", Body: "gone"},
		},
	}

	e, err := New().ToEntry(it, nil)
	require.NoError(t, err)

	require.Len(t, e.Comments, 2)
	assert.True(t, e.Comments[0].Approved)
	assert.Equal(t, time.Date(2021, 5, 11, 8, 0, 0, 0, time.UTC), e.Comments[0].PostedAt)
	assert.False(t, e.Comments[1].Approved)
}

func TestToEntryResolvesTermRefs(t *testing.T) {
	idx := termIndexFixture(t)
	it := &wxr.Item{
		PostID:   9,
		PostType: "post",
		Categories: []wxr.ItemCategory{
			{Domain: "category", Slug: "guides", Name: "Guides"},
			{Domain: "category", Slug: "orphaned", Name: "Orphaned"},
			{Domain: "post_tag", Slug: "coffee", Name: "Coffee"},
			{Domain: "post_format", Slug: "post-format-aside", Name: "Aside"},
		},
	}

	e, err := New().ToEntry(it, idx)
	require.NoError(t, err)

	require.Len(t, e.Categories, 2)
	assert.Equal(t, int64(3), e.Categories[0].SourceID)
	assert.Zero(t, e.Categories[1].SourceID, "unindexed slugs keep a zero source id")
	assert.Equal(t, "Orphaned", e.Categories[1].Name)

	require.Len(t, e.Tags, 1)
	assert.Equal(t, int64(9), e.Tags[0].SourceID)
}

func TestToMedia(t *testing.T) {
	serialized := `a:5:{s:5:"width";i:2560;s:6:"height";i:1707;s:4:"file";s:28:"2021/05/espresso-machine.jpg";` +
		`s:5:"sizes";a:2:{s:9:"thumbnail";a:4:{s:4:"file";s:32:"espresso-machine-150x150.jpg";s:5:"width";i:150;s:6:"height";i:150;s:9:"mime-type";s:10:"image/jpeg";}` +
		`s:6:"medium";a:4:{s:4:"file";s:32:"espresso-machine-300x200.jpg";s:5:"width";i:300;s:6:"height";i:200;s:9:"mime-type";s:10:"image/jpeg";}}` +
		`s:10:"image_meta";a:0:{}}`

	it := &wxr.Item{
		Title:         "Espresso machine",
		Content:       "The shop machine.",
		Excerpt:       "Machine caption",
		PostID:        205,
		PostParent:    101,
		PostDateGMT:   "2021-05-09 12:00:00",
		Status:        "inherit",
		PostType:      "attachment",
		AttachmentURL: "https://old.example/wp-content/uploads/2021/05/espresso-machine.jpg",
		Meta: []wxr.ItemMeta{
			{Key: "_wp_attached_file", Value: "2021/05/espresso-machine.jpg"},
			{Key: "_wp_attachment_metadata", Value: serialized},
			{Key: "_wp_attachment_image_alt", Value: "A lever espresso machine"},
		},
	}

	m, err := New().ToMedia(it)
	require.NoError(t, err)

	assert.Equal(t, int64(205), m.SourceID)
	assert.Equal(t, int64(101), m.AttachedTo)
	assert.Equal(t, "Espresso machine", m.Title)
	assert.Equal(t, "Machine caption", m.Caption)
	assert.Equal(t, "A lever espresso machine", m.AltText)
	assert.Equal(t, "espresso-machine.jpg", m.FileName)
	assert.Equal(t, "image/jpeg", m.MIMEType)
	assert.Equal(t, 2560, m.Width)
	assert.Equal(t, 1707, m.Height)
	assert.Equal(t, map[string]string{
		"thumbnail": "espresso-machine-150x150.jpg",
		"medium":    "espresso-machine-300x200.jpg",
	}, m.Variants)
	assert.Equal(t, time.Date(2021, 5, 9, 12, 0, 0, 0, time.UTC), m.UploadedAt)
	assert.True(t, m.IsDownloadable())
}

func TestToMediaFileNameFallsBackToURL(t *testing.T) {
	m, err := New().ToMedia(&wxr.Item{
		PostID:        206,
		PostType:      "attachment",
		AttachmentURL: "https://old.example/wp-content/uploads/2019/01/chart.png?ver=3",
	})
	require.NoError(t, err)
	assert.Equal(t, "chart.png", m.FileName)
	assert.Equal(t, "image/png", m.MIMEType)
}

func TestToMediaWithoutURLIsNotDownloadable(t *testing.T) {
	m, err := New().ToMedia(&wxr.Item{PostID: 207, PostType: "attachment"})
	require.NoError(t, err)
	assert.False(t, m.IsDownloadable())
	assert.Equal(t, DefaultMIMEType, m.MIMEType)
}

func TestToCategory(t *testing.T) {
	c := New().ToCategory(wxr.CategoryTerm{
		TermID:     4,
		Slug:       "city-guides",
		ParentSlug: "guides",
		Name:       "City Guides",
	})
	assert.Equal(t, entities.TaxonomyHierarchical, c.Kind)
	assert.Equal(t, "guides", c.ParentSlug)

	generated := New().ToCategory(wxr.CategoryTerm{TermID: 12, Name: "Überblick"})
	assert.Equal(t, "uberblick", generated.Slug)

	fallback := New().ToCategory(wxr.CategoryTerm{TermID: 13, Name: "随笔"})
	assert.Equal(t, "cat_13", fallback.Slug)
	assert.Equal(t, "随笔", fallback.Name)
}

func TestToTag(t *testing.T) {
	tag := New().ToTag(wxr.TagTerm{TermID: 9, Slug: "coffee", Name: "Coffee"})
	assert.Equal(t, "coffee", tag.Slug)

	generated := New().ToTag(wxr.TagTerm{TermID: 14, Name: "Flat Whites"})
	assert.Equal(t, "flat-whites", generated.Slug)

	long := New().ToTag(wxr.TagTerm{TermID: 15, Slug: "essay", Name: strings.Repeat("x", 140)})
	assert.Len(t, long.Name, 100, "display names are capped at the destination label length")
}

func TestIsSkippedType(t *testing.T) {
	assert.True(t, IsSkippedType("revision"))
	assert.True(t, IsSkippedType("nav_menu_item"))
	assert.False(t, IsSkippedType("post"))
	assert.False(t, IsSkippedType("recipe"))
}
