// Package gormstore is the SQLite destination writer. It persists the
// entities an import run produces and implements the writer interfaces
// declared by the importer and hierarchy packages. A Store is meant for
// single-goroutine use within one run.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wpmigrate/internal/destination"
	"wpmigrate/internal/entities"
	"wpmigrate/internal/transform"
)

type Store struct {
	db *gorm.DB
}

// Open connects to (or creates) the SQLite destination and migrates the
// schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to destination database: %w", err)
	}

	err = db.AutoMigrate(
		&EntryRow{}, &BlockRow{}, &SearchRow{},
		&CategoryRow{}, &CategoryLinkRow{},
		&TagRow{}, &TagLinkRow{},
		&FieldRow{}, &CommentRow{}, &MediaRow{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate destination schema: %w", err)
	}

	log.Printf("gormstore: destination ready at %s", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WriteEntry persists one entry and its satellite rows in a transaction,
// keyed by source id so reruns update instead of duplicating. The body
// block is written after the transaction on purpose: losing it degrades
// the entry but never discards it.
func (s *Store) WriteEntry(ctx context.Context, e *entities.Entry, maps *destination.Maps) (int64, error) {
	if maps == nil {
		maps = destination.NewMaps()
	}
	row := s.entryRow(e, maps)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing EntryRow
		res := tx.Where("source_id = ?", e.SourceID).First(&existing)
		switch {
		case res.Error == nil:
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
			if err := tx.Save(row).Error; err != nil {
				return err
			}
		case errors.Is(res.Error, gorm.ErrRecordNotFound):
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		default:
			return res.Error
		}

		if err := replaceSearchRow(tx, row.ID, e); err != nil {
			return err
		}
		if err := replaceCategoryLinks(tx, row.ID, e, maps); err != nil {
			return err
		}
		if err := replaceTagLinks(tx, row.ID, e); err != nil {
			return err
		}
		if err := replaceFields(tx, row.ID, e); err != nil {
			return err
		}
		return replaceComments(tx, row.ID, e)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write entry %d: %w", e.SourceID, err)
	}

	if err := s.writeBlock(ctx, row.ID, e.Body); err != nil {
		log.Printf("gormstore: body block for entry %d failed, keeping the bare row: %v", e.SourceID, err)
	}
	return row.ID, nil
}

// WriteMedia records one transferred asset, keyed by source id. The
// stored relative path comes back so callers can build public URLs.
func (s *Store) WriteMedia(ctx context.Context, m *entities.Media, localPath string) (int64, string, error) {
	row := &MediaRow{
		SourceID:    m.SourceID,
		Kind:        destination.MediaKind(m.MIMEType),
		Title:       m.Title,
		Description: m.Description,
		Caption:     m.Caption,
		AltText:     m.AltText,
		FileName:    m.FileName,
		RelPath:     localPath,
		MIMEType:    m.MIMEType,
		ByteSize:    m.ByteSize,
		UploadedAt:  m.UploadedAt,
	}
	// Raster images keep their pixel dimensions; vectors and plain files
	// have none worth recording.
	if row.Kind == destination.KindImage {
		row.Width, row.Height = m.Width, m.Height
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing MediaRow
		res := tx.Where("source_id = ?", m.SourceID).First(&existing)
		switch {
		case res.Error == nil:
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
			return tx.Save(row).Error
		case errors.Is(res.Error, gorm.ErrRecordNotFound):
			return tx.Create(row).Error
		default:
			return res.Error
		}
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to write media %d: %w", m.SourceID, err)
	}
	return row.ID, row.RelPath, nil
}

func (s *Store) entryRow(e *entities.Entry, maps *destination.Maps) *EntryRow {
	row := &EntryRow{
		SourceID:       e.SourceID,
		Title:          e.Title,
		Slug:           e.Slug,
		Excerpt:        e.Excerpt,
		Status:         string(e.Status),
		Type:           string(e.Type),
		ParentSourceID: e.ParentID,
		MenuOrder:      e.MenuOrder,
		SEOTitle:       e.SEO.Title,
		SEODescription: e.SEO.Description,
		SEOKeywords:    e.SEO.Keywords,
		PublishedAt:    e.PublishedAt,
		ModifiedAt:     e.ModifiedAt,
	}
	for _, ref := range e.Categories {
		if id, ok := maps.Categories[ref.SourceID]; ok {
			row.CategoryID = id
			break
		}
	}
	if ref, ok := maps.Media[e.FeaturedMediaID]; ok {
		row.FeaturedMediaID = ref.ID
	}
	return row
}

// writeBlock deliberately runs outside the entry transaction.
func (s *Store) writeBlock(ctx context.Context, entryID int64, body string) error {
	var existing BlockRow
	err := s.db.WithContext(ctx).Where("entry_id = ?", entryID).First(&existing).Error
	switch {
	case err == nil:
		existing.Body = body
		return s.db.WithContext(ctx).Save(&existing).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(&BlockRow{EntryID: entryID, Body: body}).Error
	default:
		return err
	}
}

func replaceSearchRow(tx *gorm.DB, entryID int64, e *entities.Entry) error {
	if err := tx.Where("entry_id = ?", entryID).Delete(&SearchRow{}).Error; err != nil {
		return err
	}
	return tx.Create(&SearchRow{EntryID: entryID, Text: destination.SearchText(e)}).Error
}

func replaceCategoryLinks(tx *gorm.DB, entryID int64, e *entities.Entry, maps *destination.Maps) error {
	if err := tx.Where("entry_id = ?", entryID).Delete(&CategoryLinkRow{}).Error; err != nil {
		return err
	}
	first := true
	seen := make(map[int64]bool, len(e.Categories))
	for _, ref := range e.Categories {
		id, ok := maps.Categories[ref.SourceID]
		if !ok {
			log.Printf("gormstore: entry %d references unmapped category %q, link dropped", e.SourceID, ref.Slug)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		link := CategoryLinkRow{EntryID: entryID, CategoryID: id, IsPrimary: first}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		first = false
	}
	return nil
}

func replaceTagLinks(tx *gorm.DB, entryID int64, e *entities.Entry) error {
	if err := tx.Where("entry_id = ?", entryID).Delete(&TagLinkRow{}).Error; err != nil {
		return err
	}
	seen := make(map[string]bool, len(e.Tags))
	for _, ref := range e.Tags {
		if ref.Slug == "" || seen[ref.Slug] {
			continue
		}
		seen[ref.Slug] = true
		tag, err := upsertTag(tx, ref)
		if err != nil {
			return err
		}
		if err := tx.Create(&TagLinkRow{EntryID: entryID, TagID: tag.ID}).Error; err != nil {
			return err
		}
	}
	return nil
}

func upsertTag(tx *gorm.DB, ref entities.TermRef) (*TagRow, error) {
	var tag TagRow
	err := tx.Where("slug = ?", ref.Slug).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	name := ref.Name
	if name == "" {
		name = ref.Slug
	}
	tag = TagRow{Slug: ref.Slug, Name: transform.TruncateRunes(name, destination.MaxLabelLength)}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func replaceFields(tx *gorm.DB, entryID int64, e *entities.Entry) error {
	if err := tx.Where("entry_id = ?", entryID).Delete(&FieldRow{}).Error; err != nil {
		return err
	}
	keys := make([]string, 0, len(e.CustomFields))
	for k := range e.CustomFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := tx.Create(&FieldRow{EntryID: entryID, Name: k, Value: e.CustomFields[k]}).Error; err != nil {
			return err
		}
	}
	return nil
}

func replaceComments(tx *gorm.DB, entryID int64, e *entities.Entry) error {
	if err := tx.Where("entry_id = ?", entryID).Delete(&CommentRow{}).Error; err != nil {
		return err
	}
	for _, c := range e.Comments {
		row := CommentRow{
			EntryID:  entryID,
			SourceID: c.SourceID,
			Author:   c.Author,
			Email:    c.Email,
			URL:      c.URL,
			Body:     c.Body,
			Approved: c.Approved,
			PostedAt: c.PostedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

