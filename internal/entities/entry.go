package entities

import (
	"time"
)

type EntryStatus string

const (
	EntryStatusPublished EntryStatus = "published"
	EntryStatusDraft     EntryStatus = "draft"
	EntryStatusPrivate   EntryStatus = "private"
)

type ContentType string

const (
	ContentTypePost  ContentType = "post"
	ContentTypePage  ContentType = "page"
	ContentTypeOther ContentType = "other"
)

// TermRef is a reference from an entry to a taxonomy term, carried by slug
// because the export references terms that way. SourceID is filled in once
// the slug has been resolved against the term index.
type TermRef struct {
	SourceID int64
	Slug     string
	Name     string
}

// SEO holds per-entry search metadata overrides carried over from the
// source platform's SEO plugins.
type SEO struct {
	Title       string
	Description string
	Keywords    string
}

// Comment is a single reader comment attached to an entry.
type Comment struct {
	SourceID  int64
	Author    string
	Email     string
	URL       string
	Body      string
	Approved  bool
	PostedAt  time.Time
}

// Entry is a structural content item (post or page) extracted from the
// export. An entry never represents an attachment; attachments become
// Media records instead.
type Entry struct {
	SourceID        int64
	Title           string
	Body            string
	Excerpt         string
	Slug            string
	Status          EntryStatus
	Type            ContentType
	ParentID        int64 // source id of the parent page, 0 for none
	MenuOrder       int
	Link            string
	Categories      []TermRef
	Tags            []TermRef
	CustomFields    map[string]string
	FeaturedMediaID int64
	Comments        []Comment
	SEO             SEO
	PublishedAt     time.Time
	ModifiedAt      time.Time
}
