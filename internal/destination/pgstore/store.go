// Package pgstore is the Postgres destination writer. It mirrors the
// SQLite writer table for table so either driver can sit behind an
// import run, and implements the same writer interfaces. A Store is
// meant for single-goroutine use within one run.
package pgstore

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wpmigrate/internal/destination"
	"wpmigrate/internal/entities"
	"wpmigrate/internal/transform"
)

type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pgx connection pool and verifies connectivity with a
// ping. It does not touch the schema; run Migrate for that.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse destination dsn: %w", err)
	}

	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping destination database: %w", err)
	}

	log.Printf("pgstore: destination ready")
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool exposes the underlying pool for migrations.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// WriteEntry persists one entry and its satellite rows in a transaction,
// keyed by source id so reruns update instead of duplicating. The body
// block is written after the transaction on purpose: losing it degrades
// the entry but never discards it.
func (s *Store) WriteEntry(ctx context.Context, e *entities.Entry, maps *destination.Maps) (int64, error) {
	if maps == nil {
		maps = destination.NewMaps()
	}
	id, err := s.writeEntryTx(ctx, e, maps)
	if err != nil {
		return 0, fmt.Errorf("failed to write entry %d: %w", e.SourceID, err)
	}

	if err := s.writeBlock(ctx, id, e.Body); err != nil {
		log.Printf("pgstore: body block for entry %d failed, keeping the bare row: %v", e.SourceID, err)
	}
	return id, nil
}

func (s *Store) writeEntryTx(ctx context.Context, e *entities.Entry, maps *destination.Maps) (int64, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO entries (source_id, title, slug, excerpt, status, type, parent_source_id, menu_order,
                     category_id, featured_media_id, seo_title, seo_description, seo_keywords,
                     published_at, modified_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (source_id) DO UPDATE
SET title = EXCLUDED.title,
    slug = EXCLUDED.slug,
    excerpt = EXCLUDED.excerpt,
    status = EXCLUDED.status,
    type = EXCLUDED.type,
    parent_source_id = EXCLUDED.parent_source_id,
    menu_order = EXCLUDED.menu_order,
    category_id = EXCLUDED.category_id,
    featured_media_id = EXCLUDED.featured_media_id,
    seo_title = EXCLUDED.seo_title,
    seo_description = EXCLUDED.seo_description,
    seo_keywords = EXCLUDED.seo_keywords,
    published_at = EXCLUDED.published_at,
    modified_at = EXCLUDED.modified_at,
    updated_at = now()
RETURNING id
`
	var id int64
	err = tx.QueryRow(ctx, q,
		e.SourceID, e.Title, e.Slug, e.Excerpt, string(e.Status), string(e.Type),
		e.ParentID, e.MenuOrder, primaryCategoryID(e, maps), featuredMediaID(e, maps),
		e.SEO.Title, e.SEO.Description, e.SEO.Keywords, e.PublishedAt, e.ModifiedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := replaceSearchRow(ctx, tx, id, e); err != nil {
		return 0, err
	}
	if err := replaceCategoryLinks(ctx, tx, id, e, maps); err != nil {
		return 0, err
	}
	if err := replaceTagLinks(ctx, tx, id, e); err != nil {
		return 0, err
	}
	if err := replaceFields(ctx, tx, id, e); err != nil {
		return 0, err
	}
	if err := replaceComments(ctx, tx, id, e); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// WriteMedia records one transferred asset, keyed by source id. The
// stored relative path comes back so callers can build public URLs.
func (s *Store) WriteMedia(ctx context.Context, m *entities.Media, localPath string) (int64, string, error) {
	kind := destination.MediaKind(m.MIMEType)
	// Raster images keep their pixel dimensions; vectors and plain files
	// have none worth recording.
	width, height := 0, 0
	if kind == destination.KindImage {
		width, height = m.Width, m.Height
	}

	const q = `
INSERT INTO media (source_id, kind, title, description, caption, alt_text, file_name, rel_path,
                   mime_type, byte_size, width, height, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (source_id) DO UPDATE
SET kind = EXCLUDED.kind,
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    caption = EXCLUDED.caption,
    alt_text = EXCLUDED.alt_text,
    file_name = EXCLUDED.file_name,
    rel_path = EXCLUDED.rel_path,
    mime_type = EXCLUDED.mime_type,
    byte_size = EXCLUDED.byte_size,
    width = EXCLUDED.width,
    height = EXCLUDED.height,
    uploaded_at = EXCLUDED.uploaded_at,
    updated_at = now()
RETURNING id
`
	var id int64
	err := s.pool.QueryRow(ctx, q,
		m.SourceID, kind, m.Title, m.Description, m.Caption, m.AltText,
		m.FileName, localPath, m.MIMEType, m.ByteSize, width, height, m.UploadedAt,
	).Scan(&id)
	if err != nil {
		return 0, "", fmt.Errorf("failed to write media %d: %w", m.SourceID, err)
	}
	return id, localPath, nil
}

func primaryCategoryID(e *entities.Entry, maps *destination.Maps) int64 {
	for _, ref := range e.Categories {
		if id, ok := maps.Categories[ref.SourceID]; ok {
			return id
		}
	}
	return 0
}

func featuredMediaID(e *entities.Entry, maps *destination.Maps) int64 {
	if ref, ok := maps.Media[e.FeaturedMediaID]; ok {
		return ref.ID
	}
	return 0
}

// writeBlock deliberately runs outside the entry transaction.
func (s *Store) writeBlock(ctx context.Context, entryID int64, body string) error {
	const q = `
INSERT INTO entry_blocks (entry_id, body)
VALUES ($1, $2)
ON CONFLICT (entry_id) DO UPDATE SET body = EXCLUDED.body
`
	_, err := s.pool.Exec(ctx, q, entryID, body)
	return err
}

func replaceSearchRow(ctx context.Context, tx pgx.Tx, entryID int64, e *entities.Entry) error {
	const q = `
INSERT INTO entry_search (entry_id, text)
VALUES ($1, $2)
ON CONFLICT (entry_id) DO UPDATE SET text = EXCLUDED.text
`
	_, err := tx.Exec(ctx, q, entryID, destination.SearchText(e))
	return err
}

func replaceCategoryLinks(ctx context.Context, tx pgx.Tx, entryID int64, e *entities.Entry, maps *destination.Maps) error {
	if _, err := tx.Exec(ctx, `DELETE FROM entry_categories WHERE entry_id = $1`, entryID); err != nil {
		return err
	}
	first := true
	seen := make(map[int64]bool, len(e.Categories))
	for _, ref := range e.Categories {
		id, ok := maps.Categories[ref.SourceID]
		if !ok {
			log.Printf("pgstore: entry %d references unmapped category %q, link dropped", e.SourceID, ref.Slug)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		const q = `
INSERT INTO entry_categories (entry_id, category_id, is_primary)
VALUES ($1, $2, $3)
`
		if _, err := tx.Exec(ctx, q, entryID, id, first); err != nil {
			return err
		}
		first = false
	}
	return nil
}

func replaceTagLinks(ctx context.Context, tx pgx.Tx, entryID int64, e *entities.Entry) error {
	if _, err := tx.Exec(ctx, `DELETE FROM entry_tags WHERE entry_id = $1`, entryID); err != nil {
		return err
	}
	seen := make(map[string]bool, len(e.Tags))
	for _, ref := range e.Tags {
		if ref.Slug == "" || seen[ref.Slug] {
			continue
		}
		seen[ref.Slug] = true
		tagID, err := upsertTag(ctx, tx, ref)
		if err != nil {
			return err
		}
		const q = `
INSERT INTO entry_tags (entry_id, tag_id)
VALUES ($1, $2)
`
		if _, err := tx.Exec(ctx, q, entryID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// upsertTag keeps the name a tag was first seen with; the no-op update
// makes RETURNING yield a row on conflict.
func upsertTag(ctx context.Context, tx pgx.Tx, ref entities.TermRef) (int64, error) {
	name := ref.Name
	if name == "" {
		name = ref.Slug
	}
	const q = `
INSERT INTO tags (slug, name)
VALUES ($1, $2)
ON CONFLICT (slug) DO UPDATE SET name = tags.name
RETURNING id
`
	var id int64
	err := tx.QueryRow(ctx, q, ref.Slug, transform.TruncateRunes(name, destination.MaxLabelLength)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func replaceFields(ctx context.Context, tx pgx.Tx, entryID int64, e *entities.Entry) error {
	if _, err := tx.Exec(ctx, `DELETE FROM entry_fields WHERE entry_id = $1`, entryID); err != nil {
		return err
	}
	keys := make([]string, 0, len(e.CustomFields))
	for k := range e.CustomFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		const q = `
INSERT INTO entry_fields (entry_id, name, value)
VALUES ($1, $2, $3)
`
		if _, err := tx.Exec(ctx, q, entryID, k, e.CustomFields[k]); err != nil {
			return err
		}
	}
	return nil
}

func replaceComments(ctx context.Context, tx pgx.Tx, entryID int64, e *entities.Entry) error {
	if _, err := tx.Exec(ctx, `DELETE FROM entry_comments WHERE entry_id = $1`, entryID); err != nil {
		return err
	}
	for _, c := range e.Comments {
		const q = `
INSERT INTO entry_comments (entry_id, source_id, author, email, url, body, approved, posted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
		if _, err := tx.Exec(ctx, q, entryID, c.SourceID, c.Author, c.Email, c.URL, c.Body, c.Approved, c.PostedAt); err != nil {
			return err
		}
	}
	return nil
}
