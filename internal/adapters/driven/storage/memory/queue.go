package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/storage/ids"
	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// Ensure WorkQueue implements the interface.
var _ driven.WorkQueue = (*WorkQueue)(nil)

// WorkQueue is an in-memory implementation of driven.WorkQueue.
// Claims are serialised by a mutex.
type WorkQueue struct {
	mu     sync.Mutex
	queues map[string][]domain.QueueRecord
}

// NewWorkQueue creates a new in-memory work queue.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{
		queues: make(map[string][]domain.QueueRecord),
	}
}

// Enqueue appends a record to the named queue.
func (q *WorkQueue) Enqueue(_ context.Context, queue, payload string) (string, error) {
	if queue == "" || payload == "" {
		return "", domain.ErrInvalidInput
	}
	now := time.Now()
	rec := domain.QueueRecord{
		ID:         ids.NewQueueIDAt(now),
		Queue:      queue,
		Payload:    payload,
		EnqueuedAt: now,
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[queue] = append(q.queues[queue], rec)
	return rec.ID, nil
}

// Claim removes and returns the oldest record, or nil if the queue is empty.
func (q *WorkQueue) Claim(_ context.Context, queue string) (*domain.QueueRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.queues[queue]
	if len(pending) == 0 {
		return nil, nil
	}
	rec := pending[0]
	q.queues[queue] = pending[1:]
	return &rec, nil
}

// Len returns the number of pending records.
func (q *WorkQueue) Len(_ context.Context, queue string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[queue]), nil
}
