package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"wpmigrate/internal/hierarchy"
)

// The category side of the Store implements hierarchy.CategoryWriter.
// The nested-interval updates assume a single writer per container.

func (s *Store) FindByCode(ctx context.Context, containerID int64, code string) (*hierarchy.Node, error) {
	var row CategoryRow
	err := s.db.WithContext(ctx).
		Where("container_id = ? AND code = ?", containerID, code).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hierarchy.Node{
		ID:     row.ID,
		Code:   row.Code,
		Left:   row.Lft,
		Right:  row.Rgt,
		Status: row.Status,
	}, nil
}

func (s *Store) MaxRight(ctx context.Context, containerID int64) (int, error) {
	var bound int
	err := s.db.WithContext(ctx).
		Model(&CategoryRow{}).
		Where("container_id = ?", containerID).
		Select("COALESCE(MAX(rgt), 0)").
		Scan(&bound).Error
	if err != nil {
		return 0, err
	}
	return bound, nil
}

// OpenGap shifts every bound at or beyond the insertion point by +2.
// Both updates run in one transaction so a failure cannot leave
// half-shifted bounds.
func (s *Store) OpenGap(ctx context.Context, containerID int64, at int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("UPDATE categories SET lft = lft + 2 WHERE container_id = ? AND lft >= ?", containerID, at).Error; err != nil {
			return err
		}
		return tx.Exec("UPDATE categories SET rgt = rgt + 2 WHERE container_id = ? AND rgt >= ?", containerID, at).Error
	})
}

func (s *Store) Insert(ctx context.Context, n hierarchy.NewNode) (int64, error) {
	row := CategoryRow{
		ContainerID: n.ContainerID,
		SourceID:    n.SourceID,
		Code:        n.Code,
		Name:        n.Name,
		Description: n.Description,
		Lft:         n.Left,
		Rgt:         n.Right,
		Status:      n.Status,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to insert category %q: %w", n.Code, err)
	}
	return row.ID, nil
}

func (s *Store) NodeStatus(ctx context.Context, id int64) (string, error) {
	var row CategoryRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return "", err
	}
	return row.Status, nil
}
