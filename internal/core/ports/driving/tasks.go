package driving

import (
	"context"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// TaskService creates, runs and inspects tasks.
type TaskService interface {
	// CreateTask persists a pending task and enqueues it on the tasks queue.
	CreateTask(
		ctx context.Context,
		taskType domain.TaskType,
		owner string,
		items []string,
		settings domain.UserSettings,
	) (*domain.Task, error)

	// GetTask returns a task with its batch state.
	GetTask(ctx context.Context, id string) (*domain.Task, error)

	// History returns recent worker executions of a task.
	History(ctx context.Context, id string, limit int) ([]domain.TaskResult, error)

	// RunTask drives a task to a terminal state and returns the number of
	// items it processed.
	RunTask(ctx context.Context, id string) (int, error)
}

// Worker consumes one queue until stopped.
type Worker interface {
	// Start polls the queue. Blocks until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the worker after the in-flight record finishes.
	Stop() error
}
