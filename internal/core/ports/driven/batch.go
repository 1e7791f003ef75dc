package driven

import "context"

// BatchProvider submits and tracks provider-side asynchronous batches.
type BatchProvider interface {
	// CreateBatch uploads the request lines and starts a batch.
	CreateBatch(ctx context.Context, requests []BatchRequest, endpoint, completionWindow string,
		metadata map[string]string) (BatchHandle, error)

	// FindBatch returns the most recent batch whose metadata holds every
	// entry of metadata. ok is false when no batch matches.
	FindBatch(ctx context.Context, metadata map[string]string) (info BatchInfo, ok bool, err error)

	// GetBatch returns the provider status of a batch.
	GetBatch(ctx context.Context, batchID string) (BatchInfo, error)

	// GetFileContent downloads an output or error file.
	GetFileContent(ctx context.Context, fileID string) (string, error)

	// Provider returns the provider name.
	Provider() string

	// ModelName returns the model used for request bodies.
	ModelName() string

	// Endpoint returns the relative URL request lines target.
	Endpoint() string
}

// BatchRequest is one JSON Lines request of a batch.
type BatchRequest struct {
	CustomID string           `json:"custom_id"`
	Method   string           `json:"method"`
	URL      string           `json:"url"`
	Body     BatchRequestBody `json:"body"`
}

// BatchRequestBody is the model call carried by a BatchRequest.
type BatchRequestBody struct {
	Model string           `json:"model"`
	Input []BatchInputItem `json:"input"`
}

// BatchInputItem is one message of a batch request body.
type BatchInputItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BatchHandle identifies a created batch.
type BatchHandle struct {
	BatchID     string
	InputFileID string
}

// Provider batch statuses.
const (
	BatchStatusValidating = "validating"
	BatchStatusInProgress = "in_progress"
	BatchStatusFinalizing = "finalizing"
	BatchStatusCompleted  = "completed"
	BatchStatusFailed     = "failed"
	BatchStatusExpired    = "expired"
	BatchStatusCancelling = "cancelling"
	BatchStatusCancelled  = "cancelled"
)

// BatchInfo is the provider-reported state of a batch.
type BatchInfo struct {
	ID           string
	Status       string
	InputFileID  string
	OutputFileID string
	ErrorFileID  string
}

// IsCompleted reports terminal success.
func (b BatchInfo) IsCompleted() bool {
	return b.Status == BatchStatusCompleted
}

// IsFailed reports terminal failure.
func (b BatchInfo) IsFailed() bool {
	switch b.Status {
	case BatchStatusFailed, BatchStatusExpired, BatchStatusCancelled:
		return true
	default:
		return false
	}
}
