package driven

import (
	"context"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// WorkQueue is a shared queue whose only concurrency primitive is Claim.
//
// Claim finds and removes one record in a single atomic operation, so no two
// consumers can ever own the same record. Because the record is gone at claim
// time, a consumer that crashes mid-work loses that one record; re-enqueueing
// is left to the external scheduler.
type WorkQueue interface {
	// Enqueue appends a record and returns its ID.
	Enqueue(ctx context.Context, queue, payload string) (string, error)

	// Claim removes and returns the oldest record of queue.
	// Returns nil and no error if the queue is empty.
	Claim(ctx context.Context, queue string) (*domain.QueueRecord, error)

	// Len returns the number of pending records in queue.
	Len(ctx context.Context, queue string) (int, error)
}
