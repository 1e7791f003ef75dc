package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

func TestTaskCmd_Use(t *testing.T) {
	assert.Equal(t, "task", taskCmd.Use)
	assert.Equal(t, "create <item>...", taskCreateCmd.Use)
	assert.Equal(t, "status <task-id>", taskStatusCmd.Use)
	assert.Equal(t, "run <task-id>", taskRunCmd.Use)
	assert.Contains(t, taskCreateCmd.Long, "tags_classification")
}

func TestTaskCreateCmd_NotConfigured(t *testing.T) {
	setupServices(t, Services{})

	_, err := execute(t, "", "task", "create", "doc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task service not configured")
}

func TestTaskCreateCmd(t *testing.T) {
	tasks := newMockTaskService()
	setupServices(t, Services{TaskService: tasks})

	out, err := execute(t, "", "task", "create", "--owner", "alice", "doc-1", "doc-2")
	require.NoError(t, err)

	require.NotNil(t, tasks.created)
	assert.Equal(t, domain.TaskTypePostGrouping, tasks.created.Type)
	assert.Equal(t, "alice", tasks.created.Owner)
	assert.Equal(t, []string{"doc-1", "doc-2"}, tasks.created.DocumentIDs)
	assert.Contains(t, out, "Task created: task-1")
	assert.Contains(t, out, "Items: 2")
}

func TestTaskCreateCmd_Classification(t *testing.T) {
	tasks := newMockTaskService()
	setupServices(t, Services{TaskService: tasks})

	_, err := execute(t, "", "task", "create", "--type", "tags_classification", "--owner", "alice", "golang")
	require.NoError(t, err)
	assert.Equal(t, []string{"golang"}, tasks.created.Tags)
}

func TestTaskCreateCmd_UnsupportedType(t *testing.T) {
	setupServices(t, Services{TaskService: newMockTaskService()})

	_, err := execute(t, "", "task", "create", "--type", "reindex", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestTaskStatusCmd(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tasks := newMockTaskService()
	tasks.tasks["task-9"] = &domain.Task{
		ID:          "task-9",
		Type:        domain.TaskTypePostGrouping,
		Owner:       "alice",
		DocumentIDs: []string{"doc-1", "doc-2"},
		Status:      domain.TaskStatusProcessing,
		Batch: domain.BatchState{
			Provider:  "openai",
			Step:      domain.StepMapping,
			Status:    domain.BatchSubmitted,
			BatchID:   "batch_abc",
			LastCheck: start,
		},
	}
	tasks.history = []domain.TaskResult{
		{TaskID: "task-9", StartedAt: start, EndedAt: start.Add(2 * time.Second), Success: false, Error: "429"},
	}
	setupServices(t, Services{TaskService: tasks})

	out, err := execute(t, "", "task", "status", "task-9")
	require.NoError(t, err)

	assert.Contains(t, out, "Status: processing")
	assert.Contains(t, out, "Items: doc-1, doc-2")
	assert.Contains(t, out, "Step: mapping")
	assert.Contains(t, out, "Status: SUBMITTED")
	assert.Contains(t, out, "Batch ID: batch_abc")
	assert.Contains(t, out, "Last check: 2026-03-01T12:00:00Z")
	assert.Contains(t, out, "[History]")
	assert.Contains(t, out, "failed: 429")
}

func TestTaskStatusCmd_NotFound(t *testing.T) {
	setupServices(t, Services{TaskService: newMockTaskService()})

	_, err := execute(t, "", "task", "status", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskStatusCmd_RequiresID(t *testing.T) {
	setupServices(t, Services{TaskService: newMockTaskService()})

	_, err := execute(t, "", "task", "status")
	assert.Error(t, err)
}

func TestTaskRunCmd(t *testing.T) {
	tasks := newMockTaskService()
	tasks.tasks["task-1"] = &domain.Task{ID: "task-1", Type: domain.TaskTypeTagsClassification, Tags: []string{"a", "b"}}
	setupServices(t, Services{TaskService: tasks})

	out, err := execute(t, "", "task", "run", "task-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"task-1"}, tasks.ran)
	assert.Contains(t, out, "2 items processed")
}

func TestTaskRunCmd_Failure(t *testing.T) {
	tasks := newMockTaskService()
	tasks.tasks["task-1"] = &domain.Task{ID: "task-1"}
	tasks.runErr = errors.New("batch expired")
	setupServices(t, Services{TaskService: tasks})

	_, err := execute(t, "", "task", "run", "task-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task failed: batch expired")
}
