package domain

import "time"

// Well-known queue names.
const (
	// QueueTagging holds document IDs awaiting tag extraction.
	QueueTagging = "tagging"

	// QueueTasks holds task IDs awaiting a worker.
	QueueTasks = "tasks"
)

// QueueRecord is one pending unit of work in a shared queue.
// A record is removed when it is claimed, not when the work completes.
type QueueRecord struct {
	// ID is a lexically sortable identifier; claims take the smallest first.
	ID string

	// Queue is the queue name.
	Queue string

	// Payload identifies the work (a document ID or task ID).
	Payload string

	// EnqueuedAt is when the record was added.
	EnqueuedAt time.Time
}
