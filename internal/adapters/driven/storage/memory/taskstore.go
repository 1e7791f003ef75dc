package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// Ensure TaskStore implements the interface.
var _ driven.TaskStore = (*TaskStore)(nil)

// TaskStore is an in-memory implementation of driven.TaskStore.
type TaskStore struct {
	mu      sync.RWMutex
	tasks   map[string]domain.Task
	history map[string][]domain.TaskResult
}

// NewTaskStore creates a new in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:   make(map[string]domain.Task),
		history: make(map[string][]domain.TaskResult),
	}
}

// SaveTask creates or replaces a task.
func (s *TaskStore) SaveTask(_ context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := copyTask(*task)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.UpdatedAt = time.Now()
	s.tasks[t.ID] = t
	return nil
}

// GetTask retrieves a task by ID.
func (s *TaskStore) GetTask(_ context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyTask(t)
	return &out, nil
}

// UpdateBatchState writes only the batch state.
func (s *TaskStore) UpdateBatchState(_ context.Context, id string, state domain.BatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Batch = copyBatchState(state)
	t.UpdatedAt = time.Now()
	s.tasks[id] = t
	return nil
}

// UpdateStatus writes only the status and error.
func (s *TaskStore) UpdateStatus(_ context.Context, id string, status domain.TaskStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = status
	t.Error = errMsg
	t.UpdatedAt = time.Now()
	s.tasks[id] = t
	return nil
}

// ListTasks returns tasks with the given status (all if empty), oldest first.
func (s *TaskStore) ListTasks(_ context.Context, status domain.TaskStatus) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Task
	for _, t := range s.tasks {
		if status == "" || t.Status == status {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// RecordResult appends a worker execution record.
func (s *TaskStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[result.TaskID] = append(s.history[result.TaskID], *result)
	return nil
}

// GetTaskHistory returns recent results, most recent first.
func (s *TaskStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.history[taskID]
	out := make([]domain.TaskResult, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func copyTask(t domain.Task) domain.Task {
	t.DocumentIDs = append([]string(nil), t.DocumentIDs...)
	t.Tags = append([]string(nil), t.Tags...)
	if t.Settings != nil {
		settings := make(domain.UserSettings, len(t.Settings))
		for k, v := range t.Settings {
			settings[k] = v
		}
		t.Settings = settings
	}
	t.Batch = copyBatchState(t.Batch)
	return t
}

func copyBatchState(b domain.BatchState) domain.BatchState {
	b.ItemIDs = append([]string(nil), b.ItemIDs...)
	if b.Topics != nil {
		topics := make(map[string][]string, len(b.Topics))
		for k, v := range b.Topics {
			topics[k] = append([]string(nil), v...)
		}
		b.Topics = topics
	}
	return b
}
