// Package postgres provides a PostgreSQL-backed work queue shared by workers
// running on different hosts.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/storage/ids"
	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

const schema = `
CREATE TABLE IF NOT EXISTS work_queue (
    id TEXT PRIMARY KEY,
    queue TEXT NOT NULL,
    payload TEXT NOT NULL,
    enqueued_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_work_queue_queue ON work_queue(queue, id);
`

// WorkQueue implements driven.WorkQueue on PostgreSQL.
type WorkQueue struct {
	db *sql.DB
}

var _ driven.WorkQueue = (*WorkQueue)(nil)

// Open connects to dsn, checks the connection and ensures the queue table exists.
func Open(ctx context.Context, dsn string) (*WorkQueue, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty postgres dsn", domain.ErrInvalidInput)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating queue table: %w", err)
	}

	return &WorkQueue{db: db}, nil
}

// Close closes the connection pool.
func (q *WorkQueue) Close() error {
	return q.db.Close()
}

// Enqueue appends a record to the named queue.
func (q *WorkQueue) Enqueue(ctx context.Context, queue, payload string) (string, error) {
	if queue == "" || payload == "" {
		return "", domain.ErrInvalidInput
	}

	now := time.Now()
	id := ids.NewQueueIDAt(now)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO work_queue (id, queue, payload, enqueued_at) VALUES ($1, $2, $3, $4)`,
		id, queue, payload, now.UTC())
	if err != nil {
		return "", fmt.Errorf("%w: enqueueing record: %w", domain.ErrPersistence, err)
	}
	return id, nil
}

// Claim removes and returns the oldest unlocked record.
// SKIP LOCKED lets concurrent claimers pass over rows another transaction
// is already deleting instead of blocking on them.
func (q *WorkQueue) Claim(ctx context.Context, queue string) (*domain.QueueRecord, error) {
	var rec domain.QueueRecord

	err := q.db.QueryRowContext(ctx, `
		DELETE FROM work_queue
		WHERE id = (
			SELECT id FROM work_queue
			WHERE queue = $1
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, queue, payload, enqueued_at
	`, queue).Scan(&rec.ID, &rec.Queue, &rec.Payload, &rec.EnqueuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: claiming record: %w", domain.ErrPersistence, err)
	}
	return &rec, nil
}

// Len returns the number of pending records in the queue.
func (q *WorkQueue) Len(ctx context.Context, queue string) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM work_queue WHERE queue = $1`, queue).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting queue: %w", err)
	}
	return n, nil
}
