package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/storage/ids"
	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// workQueue implements driven.WorkQueue.
type workQueue struct {
	store *Store
}

var _ driven.WorkQueue = (*workQueue)(nil)

// Enqueue appends a record to the named queue.
func (q *workQueue) Enqueue(ctx context.Context, queue, payload string) (string, error) {
	if queue == "" || payload == "" {
		return "", domain.ErrInvalidInput
	}

	now := time.Now()
	id := ids.NewQueueIDAt(now)
	_, err := q.store.db.ExecContext(ctx, `
		INSERT INTO work_queue (id, queue, payload, enqueued_at) VALUES (?, ?, ?, ?)
	`, id, queue, payload, formatTime(now))
	if err != nil {
		return "", persistErr("enqueueing record", err)
	}
	return id, nil
}

// Claim removes and returns the oldest record of the queue.
// The select and delete are one statement, so a record is claimed at most once.
// Returns nil, nil when the queue is empty.
func (q *workQueue) Claim(ctx context.Context, queue string) (*domain.QueueRecord, error) {
	var rec domain.QueueRecord
	var enqueuedAt string

	err := q.store.db.QueryRowContext(ctx, `
		DELETE FROM work_queue
		WHERE id = (SELECT id FROM work_queue WHERE queue = ? ORDER BY id LIMIT 1)
		RETURNING id, queue, payload, enqueued_at
	`, queue).Scan(&rec.ID, &rec.Queue, &rec.Payload, &enqueuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("claiming record", err)
	}

	rec.EnqueuedAt = parseTime(enqueuedAt)
	return &rec, nil
}

// Len returns the number of pending records in the queue.
func (q *workQueue) Len(ctx context.Context, queue string) (int, error) {
	var n int
	err := q.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_queue WHERE queue = ?`, queue).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting queue: %w", err)
	}
	return n, nil
}
