package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// taskStore implements driven.TaskStore.
type taskStore struct {
	store *Store
}

var _ driven.TaskStore = (*taskStore)(nil)

const taskColumns = `id, type, owner, document_ids, tags, settings, batch_state, status, error, created_at, updated_at`

// SaveTask creates or replaces a task.
func (s *taskStore) SaveTask(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}
	stamp(&task.CreatedAt, &task.UpdatedAt)

	docIDs, err := marshalJSON(nonNil(task.DocumentIDs))
	if err != nil {
		return err
	}
	tags, err := marshalJSON(nonNil(task.Tags))
	if err != nil {
		return err
	}
	settings := task.Settings
	if settings == nil {
		settings = domain.UserSettings{}
	}
	settingsJSON, err := marshalJSON(settings)
	if err != nil {
		return err
	}
	batchJSON, err := marshalJSON(task.Batch)
	if err != nil {
		return err
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			owner = excluded.owner,
			document_ids = excluded.document_ids,
			tags = excluded.tags,
			settings = excluded.settings,
			batch_state = excluded.batch_state,
			status = excluded.status,
			error = excluded.error,
			updated_at = excluded.updated_at
	`, task.ID, string(task.Type), task.Owner, docIDs, tags, settingsJSON, batchJSON,
		string(task.Status), nullString(task.Error), formatTime(task.CreatedAt), formatTime(task.UpdatedAt))
	if err != nil {
		return persistErr("saving task", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (s *taskStore) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// UpdateBatchState writes only the batch_state column.
func (s *taskStore) UpdateBatchState(ctx context.Context, id string, state domain.BatchState) error {
	batchJSON, err := marshalJSON(state)
	if err != nil {
		return err
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE tasks SET batch_state = ?, updated_at = ? WHERE id = ?
	`, batchJSON, formatTime(time.Now()), id)
	if err != nil {
		return persistErr("updating batch state", err)
	}
	return requireRow(res)
}

// UpdateStatus writes only the status and error columns.
func (s *taskStore) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, errMsg string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, string(status), nullString(errMsg), formatTime(time.Now()), id)
	if err != nil {
		return persistErr("updating task status", err)
	}
	return requireRow(res)
}

// ListTasks returns tasks ordered by creation time.
func (s *taskStore) ListTasks(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task //nolint:prealloc // size unknown from query
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// RecordResult records a worker execution.
func (s *taskStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO task_results (task_id, queue, started_at, ended_at, success, error, items_processed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.TaskID, result.Queue, formatTime(result.StartedAt), formatTime(result.EndedAt),
		boolToInt(result.Success), nullString(result.Error), result.ItemsProcessed)
	if err != nil {
		return persistErr("recording task result", err)
	}
	return nil
}

// GetTaskHistory returns recent results for a task, most recent first.
func (s *taskStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT task_id, queue, started_at, ended_at, success, error, items_processed
		FROM task_results
		WHERE task_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying task history: %w", err)
	}
	defer rows.Close()

	var results []domain.TaskResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.TaskResult
		var startedAt, endedAt string
		var success int
		var errMsg sql.NullString

		if err := rows.Scan(&r.TaskID, &r.Queue, &startedAt, &endedAt, &success,
			&errMsg, &r.ItemsProcessed); err != nil {
			return nil, fmt.Errorf("scanning task result: %w", err)
		}
		r.StartedAt = parseTime(startedAt)
		r.EndedAt = parseTime(endedAt)
		r.Success = success == 1
		r.Error = errMsg.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// PruneHistory removes results older than the given time.
func (s *taskStore) PruneHistory(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.store.db.ExecContext(ctx, `
		DELETE FROM task_results WHERE started_at < ?
	`, formatTime(olderThan))
	if err != nil {
		return 0, persistErr("pruning task history", err)
	}
	return res.RowsAffected()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var taskType, status string
	var docIDs, tags, settings, batch string
	var errMsg sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&t.ID, &taskType, &t.Owner, &docIDs, &tags, &settings, &batch,
		&status, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, notFound("scanning task", err)
	}

	t.Type = domain.TaskType(taskType)
	t.Status = domain.TaskStatus(status)
	t.Error = errMsg.String
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	if err := unmarshalJSON(docIDs, &t.DocumentIDs); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(tags, &t.Tags); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(settings, &t.Settings); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(batch, &t.Batch); err != nil {
		return nil, err
	}

	return &t, nil
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshalling %T: %w", v, err)
	}
	return string(data), nil
}

func unmarshalJSON(data string, v any) error {
	if data == "" || data == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("unmarshaling %T: %w", v, err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
