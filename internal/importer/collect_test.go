package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpmigrate/internal/wxr"
)

const collectExport = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
	xmlns:excerpt="http://wordpress.org/export/1.2/excerpt/"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:dc="http://purl.org/dc/elements/1.1/"
	xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
	<title>Field Notes</title>
	<link>https://fieldnotes.example</link>
	<wp:wxr_version>1.2</wp:wxr_version>
	<wp:base_site_url>https://fieldnotes.example</wp:base_site_url>
	<wp:category>
		<wp:term_id>3</wp:term_id>
		<wp:category_nicename>guides</wp:category_nicename>
		<wp:category_parent></wp:category_parent>
		<wp:cat_name><![CDATA[Guides]]></wp:cat_name>
	</wp:category>
	<wp:tag>
		<wp:term_id>9</wp:term_id>
		<wp:tag_slug>coffee</wp:tag_slug>
		<wp:tag_name><![CDATA[Coffee]]></wp:tag_name>
	</wp:tag>
	<item>
		<title>Best Espresso Bars</title>
		<link>https://fieldnotes.example/2021/05/best-espresso-bars/</link>
		<content:encoded><![CDATA[<p>Start at the market.</p>]]></content:encoded>
		<wp:post_id>101</wp:post_id>
		<wp:post_date_gmt>2021-05-10 07:30:00</wp:post_date_gmt>
		<wp:status>publish</wp:status>
		<wp:post_name>best-espresso-bars</wp:post_name>
		<wp:post_type>post</wp:post_type>
		<category domain="category" nicename="guides"><![CDATA[Guides]]></category>
		<category domain="post_tag" nicename="coffee"><![CDATA[Coffee]]></category>
	</item>
	<item>
		<title>About</title>
		<wp:post_id>7</wp:post_id>
		<wp:status>publish</wp:status>
		<wp:post_name>about</wp:post_name>
		<wp:post_type>page</wp:post_type>
	</item>
	<item>
		<title>espresso-machine</title>
		<wp:post_id>205</wp:post_id>
		<wp:status>inherit</wp:status>
		<wp:post_type>attachment</wp:post_type>
		<wp:attachment_url>https://fieldnotes.example/wp-content/uploads/2021/05/espresso-machine.jpg</wp:attachment_url>
		<wp:postmeta>
			<wp:meta_key>_wp_attached_file</wp:meta_key>
			<wp:meta_value><![CDATA[2021/05/espresso-machine.jpg]]></wp:meta_value>
		</wp:postmeta>
	</item>
	<item>
		<title>Primary Menu</title>
		<wp:post_id>55</wp:post_id>
		<wp:post_type>nav_menu_item</wp:post_type>
	</item>
	<item>
		<title>Orphan</title>
		<wp:post_type>post</wp:post_type>
	</item>
</channel>
</rss>`

func writeExport(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.xml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestCollectorBuildsDataset(t *testing.T) {
	e, err := wxr.Open(writeExport(t, collectExport))
	require.NoError(t, err)

	rec := &recordingFailures{}
	ds, err := NewCollector(rec).Collect(e)
	require.NoError(t, err)

	assert.Equal(t, "https://fieldnotes.example", ds.Info.SiteURL)

	require.Len(t, ds.Entries, 2)
	assert.Equal(t, int64(101), ds.Entries[0].SourceID)
	assert.Equal(t, int64(7), ds.Entries[1].SourceID)

	require.Len(t, ds.Entries[0].Categories, 1)
	assert.Equal(t, int64(3), ds.Entries[0].Categories[0].SourceID, "category refs resolve against the term index")
	require.Len(t, ds.Entries[0].Tags, 1)
	assert.Equal(t, "coffee", ds.Entries[0].Tags[0].Slug)

	require.Len(t, ds.Media, 1)
	assert.Equal(t, int64(205), ds.Media[0].SourceID)
	assert.Equal(t, "espresso-machine.jpg", ds.Media[0].FileName)

	require.Len(t, ds.Categories, 1)
	assert.Equal(t, "guides", ds.Categories[0].Slug)
	require.Len(t, ds.Tags, 1)
	assert.Equal(t, "coffee", ds.Tags[0].Slug)

	assert.Equal(t, 1, ds.SkippedItems, "menu items are not content")
	assert.Equal(t, 1, ds.FailedItems, "the orphan without a source id is rejected")
	require.Len(t, rec.records, 1)
	assert.Contains(t, rec.records[0].reason, "no source id")
}

func TestCollectorFeedsOrchestrator(t *testing.T) {
	e, err := wxr.Open(writeExport(t, collectExport))
	require.NoError(t, err)

	ds, err := NewCollector(nil).Collect(e)
	require.NoError(t, err)

	h := newHarness()
	sum, err := h.orchestrator(Config{ContainerID: 1}).Run(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.EntriesImported)
	assert.Equal(t, 1, sum.MediaImported)
	assert.Equal(t, 1, sum.CategoriesCreated)
	assert.True(t, h.progress.completed)
}
