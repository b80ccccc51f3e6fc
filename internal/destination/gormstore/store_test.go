package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpmigrate/internal/destination"
	"wpmigrate/internal/entities"
	"wpmigrate/internal/hierarchy"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEntry() *entities.Entry {
	return &entities.Entry{
		SourceID: 101,
		Title:    "Best Espresso Bars",
		Body:     "<p>Start at the <strong>market</strong>.</p>",
		Excerpt:  "A short crawl.",
		Slug:     "best-espresso-bars",
		Status:   entities.EntryStatusPublished,
		Type:     entities.ContentTypePost,
		Categories: []entities.TermRef{
			{SourceID: 3, Slug: "guides", Name: "Guides"},
			{SourceID: 4, Slug: "city", Name: "City"},
		},
		Tags: []entities.TermRef{
			{SourceID: 9, Slug: "coffee", Name: "Coffee"},
		},
		CustomFields: map[string]string{"rating": "5", "area": "north"},
		Comments: []entities.Comment{
			{SourceID: 31, Author: "Jonas", Body: "Great list!", Approved: true,
				PostedAt: time.Date(2021, 5, 11, 8, 0, 0, 0, time.UTC)},
		},
		SEO:         entities.SEO{Title: "Espresso Guide"},
		PublishedAt: time.Date(2021, 5, 10, 7, 30, 0, 0, time.UTC),
	}
}

func TestWriteEntryPersistsEverything(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	maps := destination.NewMaps()
	maps.Categories[3] = 11
	maps.Categories[4] = 12

	id, err := s.WriteEntry(ctx, sampleEntry(), maps)
	require.NoError(t, err)
	require.Positive(t, id)

	var row EntryRow
	require.NoError(t, s.db.Where("source_id = ?", 101).First(&row).Error)
	assert.Equal(t, "Best Espresso Bars", row.Title)
	assert.Equal(t, "published", row.Status)
	assert.Equal(t, int64(11), row.CategoryID, "the first mapped category becomes primary")
	assert.Equal(t, "Espresso Guide", row.SEOTitle)

	var block BlockRow
	require.NoError(t, s.db.Where("entry_id = ?", id).First(&block).Error)
	assert.Equal(t, "<p>Start at the <strong>market</strong>.</p>", block.Body)

	var search SearchRow
	require.NoError(t, s.db.Where("entry_id = ?", id).First(&search).Error)
	assert.Contains(t, search.Text, "Best Espresso Bars")
	assert.Contains(t, search.Text, "Start at the market")
	assert.NotContains(t, search.Text, "<strong>")

	var links []CategoryLinkRow
	require.NoError(t, s.db.Where("entry_id = ?", id).Order("id").Find(&links).Error)
	require.Len(t, links, 2)
	assert.True(t, links[0].IsPrimary)
	assert.Equal(t, int64(11), links[0].CategoryID)
	assert.False(t, links[1].IsPrimary)

	var tag TagRow
	require.NoError(t, s.db.Where("slug = ?", "coffee").First(&tag).Error)
	assert.Equal(t, "Coffee", tag.Name)
	var tagLinks []TagLinkRow
	require.NoError(t, s.db.Where("entry_id = ?", id).Find(&tagLinks).Error)
	require.Len(t, tagLinks, 1)
	assert.Equal(t, tag.ID, tagLinks[0].TagID)

	var fields []FieldRow
	require.NoError(t, s.db.Where("entry_id = ?", id).Order("id").Find(&fields).Error)
	require.Len(t, fields, 2)
	assert.Equal(t, "area", fields[0].Name, "fields are written in sorted key order")

	var comments []CommentRow
	require.NoError(t, s.db.Where("entry_id = ?", id).Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, "Jonas", comments[0].Author)
}

func TestWriteEntryRerunUpdatesInPlace(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	maps := destination.NewMaps()
	maps.Categories[3] = 11
	maps.Categories[4] = 12

	e := sampleEntry()
	first, err := s.WriteEntry(ctx, e, maps)
	require.NoError(t, err)

	e.Title = "Best Espresso Bars, Revised"
	e.Body = "<p>New route.</p>"
	second, err := s.WriteEntry(ctx, e, maps)
	require.NoError(t, err)
	assert.Equal(t, first, second, "rerunning must reuse the same row")

	var count int64
	require.NoError(t, s.db.Model(&EntryRow{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var row EntryRow
	require.NoError(t, s.db.First(&row, first).Error)
	assert.Equal(t, "Best Espresso Bars, Revised", row.Title)

	var block BlockRow
	require.NoError(t, s.db.Where("entry_id = ?", first).First(&block).Error)
	assert.Equal(t, "<p>New route.</p>", block.Body)

	var links int64
	s.db.Model(&CategoryLinkRow{}).Where("entry_id = ?", first).Count(&links)
	assert.EqualValues(t, 2, links, "links are replaced, not accumulated")

	var tags int64
	s.db.Model(&TagRow{}).Count(&tags)
	assert.EqualValues(t, 1, tags, "tags upsert by slug")
}

func TestWriteMediaKinds(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	photo := &entities.Media{SourceID: 205, Title: "espresso machine", FileName: "espresso.jpg",
		MIMEType: "image/jpeg", Width: 1024, Height: 768, ByteSize: 52000}
	id, rel, err := s.WriteMedia(ctx, photo, "media/2021/05/espresso.jpg")
	require.NoError(t, err)
	assert.Equal(t, "media/2021/05/espresso.jpg", rel)

	var row MediaRow
	require.NoError(t, s.db.First(&row, id).Error)
	assert.Equal(t, "image", row.Kind)
	assert.Equal(t, 1024, row.Width)

	logo := &entities.Media{SourceID: 206, FileName: "logo.svg", MIMEType: "image/svg+xml", Width: 100, Height: 100}
	id2, _, err := s.WriteMedia(ctx, logo, "media/2021/05/logo.svg")
	require.NoError(t, err)
	require.NoError(t, s.db.First(&row, id2).Error)
	assert.Equal(t, "svg", row.Kind)
	assert.Zero(t, row.Width, "vector assets carry no pixel dimensions")

	menu := &entities.Media{SourceID: 207, FileName: "menu.pdf", MIMEType: "application/pdf"}
	id3, _, err := s.WriteMedia(ctx, menu, "media/2021/05/menu.pdf")
	require.NoError(t, err)
	require.NoError(t, s.db.First(&row, id3).Error)
	assert.Equal(t, "file", row.Kind)

	again, _, err := s.WriteMedia(ctx, photo, "media/2021/05/espresso.jpg")
	require.NoError(t, err)
	assert.Equal(t, id, again, "reruns update the existing record")
	var count int64
	s.db.Model(&MediaRow{}).Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestCategoryWriterRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	none, err := s.FindByCode(ctx, 1, "guides")
	require.NoError(t, err)
	assert.Nil(t, none)

	bound, err := s.MaxRight(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, bound)

	id, err := s.Insert(ctx, hierarchy.NewNode{
		ContainerID: 1, SourceID: 3, Code: "guides", Name: "Guides",
		Left: 1, Right: 2, Status: "published",
	})
	require.NoError(t, err)

	node, err := s.FindByCode(ctx, 1, "guides")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, id, node.ID)
	assert.Equal(t, 1, node.Left)
	assert.Equal(t, 2, node.Right)

	status, err := s.NodeStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "published", status)

	other, err := s.FindByCode(ctx, 2, "guides")
	require.NoError(t, err)
	assert.Nil(t, other, "containers must not see each other's nodes")

	bound, err = s.MaxRight(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, bound)

	require.NoError(t, s.OpenGap(ctx, 1, 2))
	node, err = s.FindByCode(ctx, 1, "guides")
	require.NoError(t, err)
	assert.Equal(t, 1, node.Left, "left below the gap stays put")
	assert.Equal(t, 4, node.Right, "right at the gap shifts by two")
}

func TestBuilderMaterializesTreeIntoStore(t *testing.T) {
	s := openStore(t)
	cats := []entities.Category{
		{SourceID: 4, Slug: "city", Name: "City Guides", ParentSlug: "guides"},
		{SourceID: 3, Slug: "guides", Name: "Guides"},
		{SourceID: 5, Slug: "food", Name: "Food", ParentSlug: "city"},
	}
	res, err := hierarchy.NewBuilder(s).Materialize(context.Background(), cats, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Zero(t, res.Failed)

	var rows []CategoryRow
	require.NoError(t, s.db.Where("container_id = ?", 7).Order("lft").Find(&rows).Error)
	require.Len(t, rows, 3)

	byCode := map[string]CategoryRow{}
	for _, r := range rows {
		byCode[r.Code] = r
	}
	guides, city, food := byCode["guides"], byCode["city"], byCode["food"]
	assert.Equal(t, 1, guides.Lft)
	assert.Equal(t, 6, guides.Rgt)
	assert.Greater(t, city.Lft, guides.Lft, "children nest inside their parent")
	assert.Less(t, city.Rgt, guides.Rgt)
	assert.Greater(t, food.Lft, city.Lft)
	assert.Less(t, food.Rgt, city.Rgt)
}
