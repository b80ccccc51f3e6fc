package entities

import (
	"time"
)

// Media is a binary asset referenced by one or more entries.
type Media struct {
	SourceID    int64
	AttachedTo  int64 // source id of the entry this asset was attached to, 0 for none
	Title       string
	Description string
	Caption     string
	AltText     string
	OriginURL   string
	FileName    string
	MIMEType    string
	ByteSize    int64
	Width       int
	Height      int
	Variants    map[string]string // named derived-size variant -> file name
	UploadedAt  time.Time
}

// IsDownloadable reports whether the fetcher can attempt a transfer:
// both the origin URL and a file name must be known.
func (m *Media) IsDownloadable() bool {
	return m.OriginURL != "" && m.FileName != ""
}
