package sqlite

import (
	"context"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// rawResultStore implements driven.RawResultStore.
type rawResultStore struct {
	store *Store
}

var _ driven.RawResultStore = (*rawResultStore)(nil)

// SaveRawResult creates or replaces a raw result.
func (s *rawResultStore) SaveRawResult(ctx context.Context, r *domain.RawBatchResult) error {
	if r == nil || r.ID == "" {
		return domain.ErrInvalidInput
	}
	updated := r.CreatedAt
	stamp(&r.CreatedAt, &updated)

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO raw_results (id, task_id, batch_id, step, output, errors, processed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			task_id = excluded.task_id,
			batch_id = excluded.batch_id,
			step = excluded.step,
			output = excluded.output,
			errors = excluded.errors,
			processed = excluded.processed
	`, r.ID, r.TaskID, r.BatchID, string(r.Step), r.Output, r.Errors,
		boolToInt(r.Processed), formatTime(r.CreatedAt))
	if err != nil {
		return persistErr("saving raw result", err)
	}
	return nil
}

// GetRawResult retrieves a raw result by ID.
func (s *rawResultStore) GetRawResult(ctx context.Context, id string) (*domain.RawBatchResult, error) {
	var r domain.RawBatchResult
	var step, createdAt string
	var processed int

	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, task_id, batch_id, step, output, errors, processed, created_at
		FROM raw_results WHERE id = ?
	`, id).Scan(&r.ID, &r.TaskID, &r.BatchID, &step, &r.Output, &r.Errors, &processed, &createdAt)
	if err != nil {
		return nil, notFound("scanning raw result", err)
	}

	r.Step = domain.BatchStep(step)
	r.Processed = processed == 1
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

// MarkRawProcessed flags a raw result as parsed.
func (s *rawResultStore) MarkRawProcessed(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `UPDATE raw_results SET processed = 1 WHERE id = ?`, id)
	if err != nil {
		return persistErr("marking raw result processed", err)
	}
	return requireRow(res)
}

// DeleteRawResult removes a raw result.
func (s *rawResultStore) DeleteRawResult(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM raw_results WHERE id = ?`, id); err != nil {
		return persistErr("deleting raw result", err)
	}
	return nil
}
