// Command genexport writes a small synthetic WordPress WXR export with
// sample content for trying out the importer end to end.
// Usage: go run cmd/genexport/main.go [-out path/to/export.xml]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/template"
)

const defaultExportPath = "./demo/export.xml"

const siteURL = "https://morningpour.example.com"

func main() {
	outPath := flag.String("out", defaultExportPath, "path the export file is written to")
	flag.Parse()

	log.Printf("Generating demo export at %s...", *outPath)

	doc := buildExport()

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Failed to create export file: %v", err)
	}
	defer f.Close()

	tmpl := template.Must(template.New("wxr").Parse(wxrTemplate))
	if err := tmpl.Execute(f, doc); err != nil {
		log.Fatalf("Failed to write export: %v", err)
	}

	posts, pages, attachments := 0, 0, 0
	for _, it := range doc.Items {
		switch it.Type {
		case "post":
			posts++
		case "page":
			pages++
		case "attachment":
			attachments++
		}
	}
	log.Printf("Wrote %d items (%d posts, %d pages, %d attachments), %d categories, %d tags",
		len(doc.Items), posts, pages, attachments, len(doc.Categories), len(doc.Tags))
	log.Println("Demo export generated successfully!")
}

type export struct {
	Title       string
	Link        string
	Description string
	SiteURL     string
	BlogURL     string
	Categories  []category
	Tags        []tag
	Items       []item
}

type category struct {
	TermID int64
	Slug   string
	Parent string
	Name   string
}

type tag struct {
	TermID int64
	Slug   string
	Name   string
}

type item struct {
	Title         string
	Link          string
	Creator       string
	GUID          string
	Content       string
	Excerpt       string
	PostID        int64
	Date          string // "2006-01-02 15:04:05", local and GMT alike
	Modified      string
	Status        string
	Name          string
	Type          string
	Parent        int64
	MenuOrder     int
	AttachmentURL string
	Categories    []termRef
	Meta          []meta
	Comments      []comment
}

type termRef struct {
	Domain string
	Slug   string
	Name   string
}

type meta struct {
	Key   string
	Value string
}

type comment struct {
	ID       int64
	Author   string
	Email    string
	URL      string
	DateGMT  string
	Content  string
	Approved string
}

func buildExport() export {
	return export{
		Title:       "The Morning Pour",
		Link:        siteURL,
		Description: "Field notes on coffee and the cities it lives in",
		SiteURL:     siteURL,
		BlogURL:     siteURL,
		Categories: []category{
			{TermID: 3, Slug: "guides", Name: "Guides"},
			{TermID: 4, Slug: "city-guides", Parent: "guides", Name: "City Guides"},
			{TermID: 5, Slug: "recipes", Name: "Recipes"},
		},
		Tags: []tag{
			{TermID: 21, Slug: "coffee", Name: "Coffee"},
			{TermID: 22, Slug: "travel", Name: "Travel"},
			{TermID: 23, Slug: "budget", Name: "Budget"},
		},
		Items: append(attachmentItems(), contentItems()...),
	}
}

func attachmentItems() []item {
	return []item{
		{
			Title:         "Espresso at the market",
			Link:          siteURL + "/?attachment_id=11",
			Creator:       "ana",
			GUID:          siteURL + "/wp-content/uploads/2021/05/mercado-espresso.jpg",
			Content:       "Morning shot at the Mercado bar, first light.",
			PostID:        11,
			Date:          "2021-05-09 08:12:44",
			Status:        "inherit",
			Name:          "mercado-espresso",
			Type:          "attachment",
			Parent:        9,
			AttachmentURL: siteURL + "/wp-content/uploads/2021/05/mercado-espresso.jpg",
			Meta: []meta{
				{Key: "_wp_attached_file", Value: "2021/05/mercado-espresso.jpg"},
				{Key: "_wp_attachment_image_alt", Value: "Espresso cup on a marble counter"},
				{Key: "_wp_attachment_metadata", Value: attachmentMeta(1600, 1067, "2021/05/mercado-espresso.jpg", map[string]variant{
					"medium":    {File: "mercado-espresso-300x200.jpg", Width: 300, Height: 200},
					"thumbnail": {File: "mercado-espresso-150x150.jpg", Width: 150, Height: 150},
				})},
			},
		},
		{
			Title:         "Roast curve",
			Link:          siteURL + "/?attachment_id=12",
			Creator:       "ana",
			GUID:          siteURL + "/wp-content/uploads/2021/06/roast-curve.svg",
			PostID:        12,
			Date:          "2021-06-02 17:40:01",
			Status:        "inherit",
			Name:          "roast-curve",
			Type:          "attachment",
			Parent:        7,
			AttachmentURL: siteURL + "/wp-content/uploads/2021/06/roast-curve.svg",
			Meta: []meta{
				{Key: "_wp_attached_file", Value: "2021/06/roast-curve.svg"},
			},
		},
	}
}

func contentItems() []item {
	return []item{
		{
			Title:   "A Slow Coffee Morning Ritual",
			Link:    siteURL + "/2021/06/slow-coffee-morning-ritual/",
			Creator: "ana",
			GUID:    siteURL + "/?p=7",
			Content: `<p>Grind twenty grams a touch coarser than you think you need. While the kettle settles off the boil, warm the pot &amp; rinse the filter.</p>
<p>The curve below shows where most people rush:</p>
<p><img src="` + siteURL + `/wp-content/uploads/2021/06/roast-curve.svg" alt="Roast curve" /></p>
<p>If you only keep one habit from this site, keep this one.</p>`,
			Excerpt: "The ten quiet minutes that make the rest of the day easier.",
			PostID:  7,
			Date:    "2021-06-03 07:05:00",
			Status:  "publish",
			Name:    "slow-coffee-morning-ritual",
			Type:    "post",
			Categories: []termRef{
				{Domain: "category", Slug: "recipes", Name: "Recipes"},
				{Domain: "post_tag", Slug: "coffee", Name: "Coffee"},
			},
			Meta: []meta{
				{Key: "_yoast_wpseo_title", Value: "A Slow Coffee Morning Ritual - The Morning Pour"},
				{Key: "_yoast_wpseo_metadesc", Value: "A ten minute pour-over ritual for people who hate rushing."},
			},
			Comments: []comment{
				{ID: 101, Author: "Marco", Email: "marco@example.net", DateGMT: "2021-06-04 10:22:13",
					Content: "Tried this with a darker roast and it still works. Thanks!", Approved: "1"},
			},
		},
		{
			Title:   "Lisbon on a Budget",
			Link:    siteURL + "/2021/05/lisbon-on-a-budget/",
			Creator: "ana",
			GUID:    siteURL + "/?p=9",
			Content: `<p>Start at the market before the cruise crowds arrive.</p>
[caption id="attachment_11" align="alignnone" width="300"]<img src="` + siteURL + `/wp-content/uploads/2021/05/mercado-espresso-300x200.jpg" alt="Espresso cup on a marble counter" width="300" height="200" class="size-medium wp-image-11" /> The first bica of the day[/caption]
<p>A bica at the counter still costs under a euro. Pair it with <a href="` + siteURL + `/?p=7">the morning ritual</a> and you are set until lunch.</p>
<p>The full-size photo is <a href="` + siteURL + `/?attachment_id=11">here</a>.</p>`,
			Excerpt:  "Three days of espresso, tiled alleys and day-old pastries.",
			PostID:   9,
			Date:     "2021-05-10 09:30:00",
			Modified: "2021-05-12 18:02:10",
			Status:   "publish",
			Name:     "lisbon-on-a-budget",
			Type:     "post",
			Categories: []termRef{
				{Domain: "category", Slug: "guides", Name: "Guides"},
				{Domain: "category", Slug: "city-guides", Name: "City Guides"},
				{Domain: "post_tag", Slug: "travel", Name: "Travel"},
				{Domain: "post_tag", Slug: "budget", Name: "Budget"},
			},
			Meta: []meta{
				{Key: "_thumbnail_id", Value: "11"},
				{Key: "_yoast_wpseo_focuskw", Value: "lisbon budget coffee"},
			},
			Comments: []comment{
				{ID: 102, Author: "Sofia", Email: "sofia@example.org", URL: "https://sofiawrites.example.org",
					DateGMT: "2021-05-11 14:45:00", Content: "The market tip saved our trip.", Approved: "1"},
				{ID: 103, Author: "Anon", DateGMT: "2021-05-11 23:59:59",
					Content: "First!", Approved: "0"},
				{ID: 104, Author: "casino-bonus", Email: "spam@example.com",
					DateGMT: "2021-05-13 03:14:15", Content: "Great site, visit mine.", Approved: "spam"},
			},
		},
		{
			Title:   "Notes for the Porto guide",
			Link:    siteURL + "/?p=15",
			Creator: "ana",
			GUID:    siteURL + "/?p=15",
			Content: "<p>Outline only. Riverside first, then the roasters uphill.</p>",
			PostID:  15,
			Date:    "2021-06-20 21:11:30",
			Status:  "draft",
			Name:    "",
			Type:    "post",
			Categories: []termRef{
				{Domain: "category", Slug: "city-guides", Name: "City Guides"},
			},
		},
		{
			Title:     "About",
			Link:      siteURL + "/about/",
			Creator:   "ana",
			GUID:      siteURL + "/?page_id=21",
			Content:   "<p>The Morning Pour is written from wherever the espresso is good.</p>",
			PostID:    21,
			Date:      "2021-04-01 12:00:00",
			Status:    "publish",
			Name:      "about",
			Type:      "page",
			MenuOrder: 1,
		},
		// Editor bookkeeping the importer is expected to drop.
		{
			Title:  "Guides",
			Link:   siteURL + "/?p=30",
			GUID:   siteURL + "/?p=30",
			PostID: 30,
			Date:   "2021-04-01 12:05:00",
			Status: "publish",
			Type:   "nav_menu_item",
		},
		{
			Title:  "Lisbon on a Budget (revision)",
			Link:   siteURL + "/?p=31",
			GUID:   siteURL + "/?p=31",
			PostID: 31,
			Date:   "2021-05-12 18:02:10",
			Status: "inherit",
			Parent: 9,
			Type:   "revision",
		},
	}
}

type variant struct {
	File   string
	Width  int
	Height int
}

// attachmentMeta builds the PHP-serialized metadata blob WordPress stores
// for an image attachment, with accurate string lengths.
func attachmentMeta(width, height int, file string, sizes map[string]variant) string {
	out := fmt.Sprintf("a:4:{%s;i:%d;%s;i:%d;%s;%s;%s;a:%d:{",
		phpStr("width"), width, phpStr("height"), height,
		phpStr("file"), phpStr(file), phpStr("sizes"), len(sizes))
	for name, v := range sizes {
		out += fmt.Sprintf("%s;a:4:{%s;%s;%s;i:%d;%s;i:%d;%s;%s;}",
			phpStr(name), phpStr("file"), phpStr(v.File),
			phpStr("width"), v.Width, phpStr("height"), v.Height,
			phpStr("mime-type"), phpStr("image/jpeg"))
	}
	return out + "}}"
}

func phpStr(s string) string {
	return fmt.Sprintf("s:%d:%q", len(s), s)
}

const wxrTemplate = `<?xml version="1.0" encoding="UTF-8" ?>
<rss version="2.0"
	xmlns:excerpt="http://wordpress.org/export/1.2/excerpt/"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:dc="http://purl.org/dc/elements/1.1/"
	xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
	<title>{{.Title}}</title>
	<link>{{.Link}}</link>
	<description>{{.Description}}</description>
	<language>en-US</language>
	<wp:wxr_version>1.2</wp:wxr_version>
	<wp:base_site_url>{{.SiteURL}}</wp:base_site_url>
	<wp:base_blog_url>{{.BlogURL}}</wp:base_blog_url>
{{- range .Categories}}
	<wp:category><wp:term_id>{{.TermID}}</wp:term_id><wp:category_nicename>{{.Slug}}</wp:category_nicename><wp:category_parent>{{.Parent}}</wp:category_parent><wp:cat_name><![CDATA[{{.Name}}]]></wp:cat_name></wp:category>
{{- end}}
{{- range .Tags}}
	<wp:tag><wp:term_id>{{.TermID}}</wp:term_id><wp:tag_slug>{{.Slug}}</wp:tag_slug><wp:tag_name><![CDATA[{{.Name}}]]></wp:tag_name></wp:tag>
{{- end}}
{{- range .Items}}
	<item>
		<title>{{.Title}}</title>
		<link>{{.Link}}</link>
		<dc:creator><![CDATA[{{.Creator}}]]></dc:creator>
		<guid isPermaLink="false">{{.GUID}}</guid>
		<content:encoded><![CDATA[{{.Content}}]]></content:encoded>
		<excerpt:encoded><![CDATA[{{.Excerpt}}]]></excerpt:encoded>
		<wp:post_id>{{.PostID}}</wp:post_id>
		<wp:post_date>{{.Date}}</wp:post_date>
		<wp:post_date_gmt>{{.Date}}</wp:post_date_gmt>
		{{- if .Modified}}
		<wp:post_modified_gmt>{{.Modified}}</wp:post_modified_gmt>
		{{- end}}
		<wp:status>{{.Status}}</wp:status>
		<wp:post_name>{{.Name}}</wp:post_name>
		<wp:post_parent>{{.Parent}}</wp:post_parent>
		<wp:menu_order>{{.MenuOrder}}</wp:menu_order>
		<wp:post_type>{{.Type}}</wp:post_type>
		<wp:post_password></wp:post_password>
		<wp:is_sticky>0</wp:is_sticky>
		{{- if .AttachmentURL}}
		<wp:attachment_url>{{.AttachmentURL}}</wp:attachment_url>
		{{- end}}
		{{- range .Categories}}
		<category domain="{{.Domain}}" nicename="{{.Slug}}"><![CDATA[{{.Name}}]]></category>
		{{- end}}
		{{- range .Meta}}
		<wp:postmeta>
			<wp:meta_key>{{.Key}}</wp:meta_key>
			<wp:meta_value><![CDATA[{{.Value}}]]></wp:meta_value>
		</wp:postmeta>
		{{- end}}
		{{- range .Comments}}
		<wp:comment>
			<wp:comment_id>{{.ID}}</wp:comment_id>
			<wp:comment_author><![CDATA[{{.Author}}]]></wp:comment_author>
			<wp:comment_author_email>{{.Email}}</wp:comment_author_email>
			<wp:comment_author_url>{{.URL}}</wp:comment_author_url>
			<wp:comment_date_gmt>{{.DateGMT}}</wp:comment_date_gmt>
			<wp:comment_content><![CDATA[{{.Content}}]]></wp:comment_content>
			<wp:comment_approved>{{.Approved}}</wp:comment_approved>
			<wp:comment_type></wp:comment_type>
			<wp:comment_parent>0</wp:comment_parent>
		</wp:comment>
		{{- end}}
	</item>
{{- end}}
</channel>
</rss>
`
