package domain

import "time"

// BatchStep is one provider round-trip in a task's pipeline.
type BatchStep string

// Batch steps.
const (
	// StepTopics asks the model for the topic list of each document.
	StepTopics BatchStep = "topics"

	// StepMapping asks the model to map sentence ranges onto those topics.
	StepMapping BatchStep = "mapping"

	// StepClassification asks the model for the category of each tag.
	StepClassification BatchStep = "classification"
)

// IsValid returns true if the step is recognised.
func (s BatchStep) IsValid() bool {
	switch s {
	case StepTopics, StepMapping, StepClassification:
		return true
	default:
		return false
	}
}

// Next returns the step following s and whether one exists.
func (s BatchStep) Next() (BatchStep, bool) {
	if s == StepTopics {
		return StepMapping, true
	}
	return "", false
}

// String returns the string representation.
func (s BatchStep) String() string {
	return string(s)
}

// BatchStatus is the state of the batch state machine.
//
//	NEW -> SUBMITTING -> SUBMITTED -> RAW_PENDING -> NEW (next step) | COMPLETED
//	SUBMITTING | SUBMITTED | RAW_PENDING -> FAILED
type BatchStatus string

// Batch statuses.
const (
	BatchNew        BatchStatus = "NEW"
	BatchSubmitting BatchStatus = "SUBMITTING"
	BatchSubmitted  BatchStatus = "SUBMITTED"
	BatchRawPending BatchStatus = "RAW_PENDING"
	BatchCompleted  BatchStatus = "COMPLETED"
	BatchFailed     BatchStatus = "FAILED"
)

// IsTerminal returns true for COMPLETED and FAILED.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchCompleted || s == BatchFailed
}

// BatchState is the persisted state of a task's batch pipeline.
type BatchState struct {
	// Provider is the batch provider the current step was submitted to.
	Provider string `json:"provider,omitempty"`

	// Step is the current pipeline step.
	Step BatchStep `json:"step"`

	// Status is the state machine position within Step.
	Status BatchStatus `json:"status"`

	// SubmissionKey tags the provider-side batch of the current step so an
	// interrupted submission can find it again instead of creating another.
	SubmissionKey string `json:"submission_key,omitempty"`

	// BatchID and InputFileID identify the provider-side batch.
	BatchID     string `json:"batch_id,omitempty"`
	InputFileID string `json:"input_file_id,omitempty"`

	// ItemIDs are the documents or tags submitted in the current batch.
	ItemIDs []string `json:"item_ids,omitempty"`

	// RawResultID points at the persisted RawBatchResult.
	RawResultID string `json:"raw_result_id,omitempty"`

	// RawProcessed is set once the raw result has been parsed.
	RawProcessed bool `json:"raw_processed"`

	// LastCheck is when the provider was last polled.
	LastCheck time.Time `json:"last_check,omitempty"`

	// Topics carries the per-document output of the topics step into mapping.
	Topics map[string][]string `json:"topics,omitempty"`

	// FailureReason explains a FAILED state.
	FailureReason string `json:"failure_reason,omitempty"`
}

// NewBatchState returns the initial state for a task type.
func NewBatchState(taskType TaskType) BatchState {
	return BatchState{
		Step:   taskType.FirstStep(),
		Status: BatchNew,
	}
}

// RawBatchResult is the raw provider output of a completed batch.
// It is deleted after a successful parse and retained on failure.
type RawBatchResult struct {
	ID        string
	TaskID    string
	BatchID   string
	Step      BatchStep
	Output    string
	Errors    string
	Processed bool
	CreatedAt time.Time
}
