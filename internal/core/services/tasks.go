package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-segmenter/internal/logger"
)

// Ensure TaskService implements the interface.
var _ driving.TaskService = (*TaskService)(nil)

var taskLog = logger.For("task")

// TaskService creates tasks and runs them to a terminal state, through the
// batch pipeline when a batch provider resolves and interactively otherwise.
type TaskService struct {
	tasks    driven.TaskStore
	queue    driven.WorkQueue
	router   driven.LLMRouter
	docs     driven.DocumentStore
	batch    *BatchOrchestrator
	segment  *SegmentationService
	classify *ClassificationService
	now      func() time.Time
}

// NewTaskService creates a task service.
func NewTaskService(
	tasks driven.TaskStore,
	queue driven.WorkQueue,
	router driven.LLMRouter,
	docs driven.DocumentStore,
	batch *BatchOrchestrator,
	segment *SegmentationService,
	classify *ClassificationService,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		queue:    queue,
		router:   router,
		docs:     docs,
		batch:    batch,
		segment:  segment,
		classify: classify,
		now:      time.Now,
	}
}

// CreateTask persists a pending task and enqueues its ID on the tasks queue.
func (s *TaskService) CreateTask(
	ctx context.Context,
	taskType domain.TaskType,
	owner string,
	items []string,
	settings domain.UserSettings,
) (*domain.Task, error) {
	if !taskType.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, taskType)
	}
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	items = dedupe(items)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: a task needs at least one item", domain.ErrInvalidInput)
	}

	now := s.now()
	task := &domain.Task{
		ID:        uuid.New().String(),
		Type:      taskType,
		Owner:     owner,
		Settings:  settings,
		Batch:     domain.NewBatchState(taskType),
		Status:    domain.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if taskType == domain.TaskTypeTagsClassification {
		task.Tags = items
	} else {
		task.DocumentIDs = items
	}

	if err := s.tasks.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, domain.QueueTasks, task.ID); err != nil {
		return nil, fmt.Errorf("enqueue task %s: %w", task.ID, err)
	}
	taskLog.Info("created %s task %s with %d items", taskType, task.ID, len(items))
	return task, nil
}

// GetTask returns a task with its batch state.
func (s *TaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.tasks.GetTask(ctx, id)
}

// History returns recent worker executions of a task.
func (s *TaskService) History(ctx context.Context, id string, limit int) ([]domain.TaskResult, error) {
	return s.tasks.GetTaskHistory(ctx, id, limit)
}

// RunTask drives a task to a terminal state.
//
// A task already done or failed is left alone. Transient provider errors put
// the task back to pending so the external scheduler can enqueue it again;
// any other error marks it failed.
func (s *TaskService) RunTask(ctx context.Context, id string) (int, error) {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("get task %s: %w", id, err)
	}
	if task.Status.IsTerminal() {
		taskLog.Debug("task %s is already %s", id, task.Status)
		return 0, nil
	}
	if err := s.tasks.UpdateStatus(ctx, id, domain.TaskStatusProcessing, ""); err != nil {
		return 0, fmt.Errorf("mark task %s processing: %w", id, err)
	}

	processed, runErr := s.run(ctx, task)

	status, msg := domain.TaskStatusDone, ""
	switch {
	case runErr == nil:
	case errors.Is(runErr, domain.ErrTransientProvider), errors.Is(runErr, context.Canceled),
		errors.Is(runErr, context.DeadlineExceeded):
		status, msg = domain.TaskStatusPending, runErr.Error()
	default:
		status, msg = domain.TaskStatusFailed, runErr.Error()
	}

	// the status write must survive a cancelled run
	if err := s.tasks.UpdateStatus(context.WithoutCancel(ctx), id, status, msg); err != nil {
		return processed, errors.Join(runErr, fmt.Errorf("mark task %s %s: %w", id, status, err))
	}
	return processed, runErr
}

func (s *TaskService) run(ctx context.Context, task *domain.Task) (int, error) {
	if s.useBatch(task) {
		taskLog.Info("task %s: running batch pipeline from %s/%s", task.ID, task.Batch.Step, task.Batch.Status)
		if err := s.batch.Run(ctx, task); err != nil {
			return 0, err
		}
		return len(task.Items()), nil
	}

	taskLog.Info("task %s: no batch provider, running interactively", task.ID)
	switch task.Type {
	case domain.TaskTypePostGrouping:
		return s.runGrouping(ctx, task)
	case domain.TaskTypeTagsClassification:
		if s.classify == nil {
			return 0, fmt.Errorf("%w: classification", domain.ErrNoHandler)
		}
		return s.classify.Classify(ctx, task.Owner, task.Tags, task.Settings)
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, task.Type)
	}
}

// useBatch reports whether a task goes through the batch pipeline. A task
// whose batch is already under way always does.
func (s *TaskService) useBatch(task *domain.Task) bool {
	if s.batch == nil {
		return false
	}
	if task.Batch.Status != domain.BatchNew && task.Batch.Status != "" {
		return true
	}
	_, ok := s.router.ResolveBatch(domain.ProviderKeyBatch, task.Settings)
	return ok
}

// runGrouping segments every document of the task, skipping failures.
func (s *TaskService) runGrouping(ctx context.Context, task *domain.Task) (int, error) {
	if s.segment == nil {
		return 0, fmt.Errorf("%w: segmentation", domain.ErrNoHandler)
	}

	processed := 0
	for _, docID := range task.DocumentIDs {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		doc, err := s.docs.GetDocument(ctx, docID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				taskLog.Warn("task %s: skipping %s: %v", task.ID, docID, err)
				continue
			}
			return processed, fmt.Errorf("get document %s: %w", docID, err)
		}
		text, err := doc.Text()
		if err != nil {
			taskLog.Warn("task %s: skipping %s: %v", task.ID, docID, err)
			continue
		}

		groups, _ := s.segment.Segment(ctx, text, task.Settings)
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if err := s.docs.SaveGroups(ctx, docID, groups); err != nil {
			return processed, fmt.Errorf("save groups for %s: %w", docID, err)
		}
		processed++
	}
	return processed, nil
}

// dedupe drops blank and repeated items, keeping first occurrences.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
