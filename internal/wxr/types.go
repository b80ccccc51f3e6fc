// Package wxr reads WordPress eXtended RSS (WXR) export documents as a
// stream of items, without materializing the whole document in memory.
package wxr

// WXR namespace URIs. Exports declare these prefixes on the rss root; the
// subtree unmarshaler rebinds the conventional prefixes to these URIs, so
// documents written against older dialect versions still decode.
const (
	wpNamespace      = "http://wordpress.org/export/1.2/"
	contentNamespace = "http://purl.org/rss/1.0/modules/content/"
	excerptNamespace = "http://wordpress.org/export/1.2/excerpt/"
	dcNamespace      = "http://purl.org/dc/elements/1.1/"
)

// Info carries the channel-level metadata of an export document.
type Info struct {
	Title      string
	Link       string
	SiteURL    string // wp:base_site_url
	BlogURL    string // wp:base_blog_url
	WXRVersion string
}

// CategoryTerm is a hierarchical taxonomy term definition from the channel.
// Terms are referenced from items by slug only; parent references are also
// by slug.
type CategoryTerm struct {
	TermID      int64  `xml:"http://wordpress.org/export/1.2/ term_id"`
	Slug        string `xml:"http://wordpress.org/export/1.2/ category_nicename"`
	ParentSlug  string `xml:"http://wordpress.org/export/1.2/ category_parent"`
	Name        string `xml:"http://wordpress.org/export/1.2/ cat_name"`
	Description string `xml:"http://wordpress.org/export/1.2/ category_description"`
}

// TagTerm is a flat taxonomy term definition from the channel.
type TagTerm struct {
	TermID      int64  `xml:"http://wordpress.org/export/1.2/ term_id"`
	Slug        string `xml:"http://wordpress.org/export/1.2/ tag_slug"`
	Name        string `xml:"http://wordpress.org/export/1.2/ tag_name"`
	Description string `xml:"http://wordpress.org/export/1.2/ tag_description"`
}

// Item is one raw <item> record from the export: a post, page, attachment,
// or any custom type. Field mapping to typed entities happens downstream.
type Item struct {
	Title         string         `xml:"title"`
	Link          string         `xml:"link"`
	Creator       string         `xml:"http://purl.org/dc/elements/1.1/ creator"`
	GUID          string         `xml:"guid"`
	Content       string         `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Excerpt       string         `xml:"http://wordpress.org/export/1.2/excerpt/ encoded"`
	PostID        int64          `xml:"http://wordpress.org/export/1.2/ post_id"`
	PostDate      string         `xml:"http://wordpress.org/export/1.2/ post_date"`
	PostDateGMT   string         `xml:"http://wordpress.org/export/1.2/ post_date_gmt"`
	ModifiedGMT   string         `xml:"http://wordpress.org/export/1.2/ post_modified_gmt"`
	Status        string         `xml:"http://wordpress.org/export/1.2/ status"`
	PostName      string         `xml:"http://wordpress.org/export/1.2/ post_name"`
	PostType      string         `xml:"http://wordpress.org/export/1.2/ post_type"`
	PostParent    int64          `xml:"http://wordpress.org/export/1.2/ post_parent"`
	MenuOrder     int            `xml:"http://wordpress.org/export/1.2/ menu_order"`
	Password      string         `xml:"http://wordpress.org/export/1.2/ post_password"`
	IsSticky      int            `xml:"http://wordpress.org/export/1.2/ is_sticky"`
	AttachmentURL string         `xml:"http://wordpress.org/export/1.2/ attachment_url"`
	Categories    []ItemCategory `xml:"category"`
	Meta          []ItemMeta     `xml:"http://wordpress.org/export/1.2/ postmeta"`
	Comments      []ItemComment  `xml:"http://wordpress.org/export/1.2/ comment"`
}

// ItemCategory is a per-item taxonomy reference. Domain distinguishes
// hierarchical ("category") from flat ("post_tag") references.
type ItemCategory struct {
	Domain string `xml:"domain,attr"`
	Slug   string `xml:"nicename,attr"`
	Name   string `xml:",chardata"`
}

// ItemMeta is one custom-field entry of an item.
type ItemMeta struct {
	Key   string `xml:"http://wordpress.org/export/1.2/ meta_key"`
	Value string `xml:"http://wordpress.org/export/1.2/ meta_value"`
}

// ItemComment is a reader comment nested inside an item.
type ItemComment struct {
	ID        int64  `xml:"http://wordpress.org/export/1.2/ comment_id"`
	Author    string `xml:"http://wordpress.org/export/1.2/ comment_author"`
	Email     string `xml:"http://wordpress.org/export/1.2/ comment_author_email"`
	URL       string `xml:"http://wordpress.org/export/1.2/ comment_author_url"`
	DateGMT   string `xml:"http://wordpress.org/export/1.2/ comment_date_gmt"`
	Body      string `xml:"http://wordpress.org/export/1.2/ comment_content"`
	Approved  string `xml:"http://wordpress.org/export/1.2/ comment_approved"`
	Type      string `xml:"http://wordpress.org/export/1.2/ comment_type"`
	ParentID  int64  `xml:"http://wordpress.org/export/1.2/ comment_parent"`
}

// MetaValue returns the first value stored under key, or "".
func (it *Item) MetaValue(key string) string {
	for _, m := range it.Meta {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}

// TermIndex holds every taxonomy term definition found in the export,
// keyed by slug, split by taxonomy kind. Items reference terms by slug;
// definitions can appear anywhere in the document relative to the items
// that use them, which is why the index is built in a pass of its own.
type TermIndex struct {
	Categories []CategoryTerm
	Tags       []TagTerm

	catBySlug map[string]int
	tagBySlug map[string]int
}

func newTermIndex() *TermIndex {
	return &TermIndex{
		catBySlug: make(map[string]int),
		tagBySlug: make(map[string]int),
	}
}

func (ti *TermIndex) addCategory(t CategoryTerm) {
	if _, dup := ti.catBySlug[t.Slug]; dup {
		return
	}
	ti.catBySlug[t.Slug] = len(ti.Categories)
	ti.Categories = append(ti.Categories, t)
}

func (ti *TermIndex) addTag(t TagTerm) {
	if _, dup := ti.tagBySlug[t.Slug]; dup {
		return
	}
	ti.tagBySlug[t.Slug] = len(ti.Tags)
	ti.Tags = append(ti.Tags, t)
}

// Category looks up a hierarchical term definition by slug.
func (ti *TermIndex) Category(slug string) (CategoryTerm, bool) {
	if ti == nil {
		return CategoryTerm{}, false
	}
	i, ok := ti.catBySlug[slug]
	if !ok {
		return CategoryTerm{}, false
	}
	return ti.Categories[i], true
}

// Tag looks up a flat term definition by slug.
func (ti *TermIndex) Tag(slug string) (TagTerm, bool) {
	if ti == nil {
		return TagTerm{}, false
	}
	i, ok := ti.tagBySlug[slug]
	if !ok {
		return TagTerm{}, false
	}
	return ti.Tags[i], true
}
