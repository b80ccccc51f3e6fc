package importer

import (
	"errors"
	"fmt"
	"io"
	"log"

	"wpmigrate/internal/audit"
	"wpmigrate/internal/entities"
	"wpmigrate/internal/transform"
	"wpmigrate/internal/wxr"
)

// Dataset is everything one export yields, ready for import.
type Dataset struct {
	Info       wxr.Info
	Entries    []*entities.Entry
	Media      []*entities.Media
	Categories []entities.Category
	Tags       []entities.Tag
	// SkippedItems counts items dropped because of their type,
	// MalformedItems the ones the extractor could not decode, and
	// FailedItems the ones the transform rejected.
	SkippedItems   int
	MalformedItems int
	FailedItems    int
}

// Collector reads a whole export into a Dataset. Transform rejections are
// logged and recorded, never fatal.
type Collector struct {
	tr       *transform.Transformer
	failures FailureSink
}

func NewCollector(failures FailureSink) *Collector {
	if failures == nil {
		failures = noopFailures{}
	}
	return &Collector{tr: transform.New(), failures: failures}
}

func (c *Collector) Collect(ex *wxr.Extractor) (*Dataset, error) {
	ds := &Dataset{Info: ex.Info()}

	idx, err := ex.ReadTermIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to read term definitions: %w", err)
	}
	for _, term := range idx.Categories {
		ds.Categories = append(ds.Categories, c.tr.ToCategory(term))
	}
	for _, term := range idx.Tags {
		ds.Tags = append(ds.Tags, c.tr.ToTag(term))
	}

	items, err := ex.Items()
	if err != nil {
		return nil, fmt.Errorf("failed to open item stream: %w", err)
	}
	defer items.Close()
	for {
		it, err := items.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read export items: %w", err)
		}
		switch {
		case transform.IsSkippedType(it.PostType):
			ds.SkippedItems++
		case transform.IsAttachment(it):
			m, err := c.tr.ToMedia(it)
			if err != nil {
				ds.FailedItems++
				c.failures.Record(audit.StageMedia, it.PostID, it.Title, err.Error())
				log.Printf("importer: dropping attachment %d: %v", it.PostID, err)
				continue
			}
			ds.Media = append(ds.Media, m)
		default:
			e, err := c.tr.ToEntry(it, idx)
			if err != nil {
				ds.FailedItems++
				c.failures.Record(audit.StageEntry, it.PostID, it.Title, err.Error())
				log.Printf("importer: dropping item %d: %v", it.PostID, err)
				continue
			}
			ds.Entries = append(ds.Entries, e)
		}
	}
	ds.MalformedItems = items.Skipped()

	log.Printf("importer: collected %d entries, %d media, %d categories, %d tags (%d skipped, %d malformed, %d rejected)",
		len(ds.Entries), len(ds.Media), len(ds.Categories), len(ds.Tags),
		ds.SkippedItems, ds.MalformedItems, ds.FailedItems)
	return ds, nil
}
