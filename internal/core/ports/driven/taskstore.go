package driven

import (
	"context"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// TaskStore persists tasks and their batch state.
// Updates are field-scoped so that concurrent writers to different fields
// of one task never clobber each other.
type TaskStore interface {
	// SaveTask creates or fully replaces a task.
	SaveTask(ctx context.Context, task *domain.Task) error

	// GetTask retrieves a task by ID.
	// Returns domain.ErrNotFound if the task does not exist.
	GetTask(ctx context.Context, id string) (*domain.Task, error)

	// UpdateBatchState writes only the batch state of a task.
	UpdateBatchState(ctx context.Context, id string, state domain.BatchState) error

	// UpdateStatus writes only the status and error of a task.
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, errMsg string) error

	// ListTasks returns tasks with the given status, or all tasks if status is empty.
	ListTasks(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error)

	// RecordResult logs one worker execution of a task.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns recent results for a task, most recent first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)
}

// RawResultStore persists raw batch output between fetching and parsing.
type RawResultStore interface {
	// SaveRawResult creates or replaces a raw result.
	SaveRawResult(ctx context.Context, result *domain.RawBatchResult) error

	// GetRawResult retrieves a raw result by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetRawResult(ctx context.Context, id string) (*domain.RawBatchResult, error)

	// MarkRawProcessed flags a raw result as parsed.
	MarkRawProcessed(ctx context.Context, id string) error

	// DeleteRawResult removes a raw result. Deleting a missing result is not an error.
	DeleteRawResult(ctx context.Context, id string) error
}
