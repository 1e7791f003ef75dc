package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// tagStore implements driven.TagStore.
type tagStore struct {
	store *Store
}

var _ driven.TagStore = (*tagStore)(nil)

// SaveTagClassifications upserts all classifications in one transaction.
func (s *tagStore) SaveTagClassifications(ctx context.Context, classes []domain.TagClassification) error {
	if len(classes) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tag_classifications (owner, tag, category, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner, tag) DO UPDATE SET
			category = excluded.category,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return persistErr("preparing statement", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range classes {
		updated := c.UpdatedAt
		if updated.IsZero() {
			updated = now
		}
		if _, err := stmt.ExecContext(ctx, c.Owner, c.Tag, c.Category, formatTime(updated)); err != nil {
			return persistErr("saving tag classification", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistErr("committing transaction", err)
	}
	return nil
}

// GetTagClassifications returns an owner's classifications ordered by tag.
func (s *tagStore) GetTagClassifications(ctx context.Context, owner string) ([]domain.TagClassification, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT owner, tag, category, updated_at
		FROM tag_classifications WHERE owner = ?
		ORDER BY tag
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying tag classifications: %w", err)
	}
	defer rows.Close()

	var classes []domain.TagClassification //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.TagClassification
		var updatedAt string
		if err := rows.Scan(&c.Owner, &c.Tag, &c.Category, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag classification: %w", err)
		}
		c.UpdatedAt = parseTime(updatedAt)
		classes = append(classes, c)
	}
	return classes, rows.Err()
}
