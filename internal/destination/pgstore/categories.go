package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wpmigrate/internal/hierarchy"
)

// The category side of the Store implements hierarchy.CategoryWriter.
// The nested-interval updates assume a single writer per container.

func (s *Store) FindByCode(ctx context.Context, containerID int64, code string) (*hierarchy.Node, error) {
	const q = `
SELECT id, code, lft, rgt, status
FROM categories
WHERE container_id = $1 AND code = $2
`
	var n hierarchy.Node
	err := s.pool.QueryRow(ctx, q, containerID, code).Scan(&n.ID, &n.Code, &n.Left, &n.Right, &n.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) MaxRight(ctx context.Context, containerID int64) (int, error) {
	const q = `
SELECT COALESCE(MAX(rgt), 0)
FROM categories
WHERE container_id = $1
`
	var bound int
	if err := s.pool.QueryRow(ctx, q, containerID).Scan(&bound); err != nil {
		return 0, err
	}
	return bound, nil
}

// OpenGap shifts every bound at or beyond the insertion point by +2.
// Both updates run in one transaction so a failure cannot leave
// half-shifted bounds.
func (s *Store) OpenGap(ctx context.Context, containerID int64, at int) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE categories SET lft = lft + 2 WHERE container_id = $1 AND lft >= $2`, containerID, at); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE categories SET rgt = rgt + 2 WHERE container_id = $1 AND rgt >= $2`, containerID, at); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Insert(ctx context.Context, n hierarchy.NewNode) (int64, error) {
	const q = `
INSERT INTO categories (container_id, source_id, code, name, description, lft, rgt, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id
`
	var id int64
	err := s.pool.QueryRow(ctx, q,
		n.ContainerID, n.SourceID, n.Code, n.Name, n.Description, n.Left, n.Right, n.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert category %q: %w", n.Code, err)
	}
	return id, nil
}

func (s *Store) NodeStatus(ctx context.Context, id int64) (string, error) {
	const q = `
SELECT status
FROM categories
WHERE id = $1
`
	var status string
	if err := s.pool.QueryRow(ctx, q, id).Scan(&status); err != nil {
		return "", err
	}
	return status, nil
}
