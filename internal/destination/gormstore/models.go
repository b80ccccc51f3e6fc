package gormstore

import "time"

// Row models for the destination schema. Table names are pinned so the
// Postgres migrations can mirror them exactly.

// EntryRow is the structural content record. The body itself lives in
// BlockRow so a failed block write cannot take the entry down with it.
type EntryRow struct {
	ID              int64  `gorm:"primaryKey"`
	SourceID        int64  `gorm:"uniqueIndex"`
	Title           string `gorm:"size:512"`
	Slug            string `gorm:"index;size:255"`
	Excerpt         string
	Status          string `gorm:"size:16"`
	Type            string `gorm:"size:16"`
	ParentSourceID  int64  `gorm:"index"`
	MenuOrder       int
	CategoryID      int64 `gorm:"index"`
	FeaturedMediaID int64
	SEOTitle        string `gorm:"size:512"`
	SEODescription  string `gorm:"size:1024"`
	SEOKeywords     string `gorm:"size:512"`
	PublishedAt     time.Time
	ModifiedAt      time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (EntryRow) TableName() string { return "entries" }

// BlockRow holds an entry's rendered body markup.
type BlockRow struct {
	ID      int64 `gorm:"primaryKey"`
	EntryID int64 `gorm:"uniqueIndex"`
	Body    string
}

func (BlockRow) TableName() string { return "entry_blocks" }

// SearchRow is the plain-text search index: title plus the body with
// markup stripped.
type SearchRow struct {
	ID      int64 `gorm:"primaryKey"`
	EntryID int64 `gorm:"uniqueIndex"`
	Text    string
}

func (SearchRow) TableName() string { return "entry_search" }

// CategoryRow is a nested-interval tree node. Codes are unique per
// container.
type CategoryRow struct {
	ID          int64  `gorm:"primaryKey"`
	ContainerID int64  `gorm:"uniqueIndex:ux_category_code"`
	Code        string `gorm:"uniqueIndex:ux_category_code;size:255"`
	SourceID    int64
	Name        string `gorm:"size:255"`
	Description string
	Lft         int    `gorm:"index"`
	Rgt         int    `gorm:"index"`
	Status      string `gorm:"size:16"`
	CreatedAt   time.Time
}

func (CategoryRow) TableName() string { return "categories" }

// CategoryLinkRow attaches an entry to a category node. Exactly one link
// per entry carries IsPrimary.
type CategoryLinkRow struct {
	ID         int64 `gorm:"primaryKey"`
	EntryID    int64 `gorm:"uniqueIndex:ux_entry_category"`
	CategoryID int64 `gorm:"uniqueIndex:ux_entry_category"`
	IsPrimary  bool
}

func (CategoryLinkRow) TableName() string { return "entry_categories" }

type TagRow struct {
	ID   int64  `gorm:"primaryKey"`
	Slug string `gorm:"uniqueIndex;size:255"`
	Name string `gorm:"size:100"`
}

func (TagRow) TableName() string { return "tags" }

type TagLinkRow struct {
	ID      int64 `gorm:"primaryKey"`
	EntryID int64 `gorm:"uniqueIndex:ux_entry_tag"`
	TagID   int64 `gorm:"uniqueIndex:ux_entry_tag"`
}

func (TagLinkRow) TableName() string { return "entry_tags" }

// FieldRow is one surviving custom field.
type FieldRow struct {
	ID      int64  `gorm:"primaryKey"`
	EntryID int64  `gorm:"index"`
	Name    string `gorm:"size:255"`
	Value   string
}

func (FieldRow) TableName() string { return "entry_fields" }

type CommentRow struct {
	ID       int64 `gorm:"primaryKey"`
	EntryID  int64 `gorm:"index"`
	SourceID int64
	Author   string `gorm:"size:255"`
	Email    string `gorm:"size:255"`
	URL      string `gorm:"size:2048"`
	Body     string
	Approved bool
	PostedAt time.Time
}

func (CommentRow) TableName() string { return "entry_comments" }

type MediaRow struct {
	ID          int64  `gorm:"primaryKey"`
	SourceID    int64  `gorm:"uniqueIndex"`
	Kind        string `gorm:"size:16"`
	Title       string `gorm:"size:512"`
	Description string
	Caption     string
	AltText     string `gorm:"size:512"`
	FileName    string `gorm:"size:255"`
	RelPath     string `gorm:"size:1024"`
	MIMEType    string `gorm:"size:128"`
	ByteSize    int64
	Width       int
	Height      int
	UploadedAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (MediaRow) TableName() string { return "media" }
