package domain

import "time"

// TaskResult represents the outcome of one worker execution of a queue record.
type TaskResult struct {
	// TaskID identifies the task or document that was processed.
	TaskID string

	// Queue is the queue the record was claimed from.
	Queue string

	// StartedAt is when processing started.
	StartedAt time.Time

	// EndedAt is when processing completed.
	EndedAt time.Time

	// Success indicates whether processing completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is a count of items handled (documents or tags).
	ItemsProcessed int
}

// Duration returns how long the execution took.
func (r TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
