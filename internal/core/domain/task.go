package domain

import "time"

// TaskType identifies the kind of work a task performs.
type TaskType string

// Available task types.
const (
	// TaskTypePostGrouping segments documents into topic groups.
	TaskTypePostGrouping TaskType = "post_grouping"

	// TaskTypeTagsClassification assigns categories to tags.
	TaskTypeTagsClassification TaskType = "tags_classification"
)

// IsValid returns true if the task type is recognised.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypePostGrouping, TaskTypeTagsClassification:
		return true
	default:
		return false
	}
}

// FirstStep returns the batch step a fresh task of this type starts with.
func (t TaskType) FirstStep() BatchStep {
	if t == TaskTypeTagsClassification {
		return StepClassification
	}
	return StepTopics
}

// String returns the string representation.
func (t TaskType) String() string {
	return string(t)
}

// TaskStatus is the coarse, externally visible task progress.
type TaskStatus string

// Task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal returns true once the task will not change again.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusFailed
}

// UserSettings is the string-keyed per-user settings map supplied by collaborators.
// Keys are provider keys ("interactive", "batch-worker") mapping to provider
// names, and "<key>_model" / "<provider>_model" mapping to model names.
type UserSettings map[string]string

// Task is a persisted unit of LLM work created by an external scheduler.
type Task struct {
	// ID is the unique identifier for the task.
	ID string

	// Type selects the pipeline.
	Type TaskType

	// Owner is the user whose documents or tags are processed.
	Owner string

	// DocumentIDs lists the documents to process (post_grouping).
	DocumentIDs []string

	// Tags lists the tags to classify (tags_classification).
	Tags []string

	// Settings are the owner's provider settings.
	Settings UserSettings

	// Batch is the persisted batch state machine.
	Batch BatchState

	// Status is the coarse task status.
	Status TaskStatus

	// Error holds the last failure reason, if any.
	Error string

	// CreatedAt is when the task was created.
	CreatedAt time.Time

	// UpdatedAt is when the task was last written.
	UpdatedAt time.Time
}

// Items returns the item identifiers the task processes for its type.
func (t *Task) Items() []string {
	if t.Type == TaskTypeTagsClassification {
		return t.Tags
	}
	return t.DocumentIDs
}

// TagClassification records the category assigned to one of an owner's tags.
type TagClassification struct {
	Owner     string
	Tag       string
	Category  string
	UpdatedAt time.Time
}
