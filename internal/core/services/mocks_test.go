package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// --- Mock implementations for service testing ---

// mockRouter implements driven.LLMRouter with testify expectations.
// ResolveBatch returns batch when it is set.
type mockRouter struct {
	mock.Mock
	batch driven.BatchProvider
}

func (m *mockRouter) Call(
	ctx context.Context,
	key string,
	settings domain.UserSettings,
	messages []string,
	opts driven.CallOptions,
) (string, error) {
	args := m.Called(ctx, key, settings, messages, opts)
	return args.String(0), args.Error(1)
}

func (m *mockRouter) ResolveBatch(string, domain.UserSettings) (driven.BatchProvider, bool) {
	return m.batch, m.batch != nil
}

// fakeBatchProvider is a scripted driven.BatchProvider. respond builds the
// output line text for each request once the batch is polled as completed.
type fakeBatchProvider struct {
	mu sync.Mutex

	// pollsUntilDone is the number of in_progress polls before completion.
	pollsUntilDone int
	// finalStatus overrides "completed" as the terminal status.
	finalStatus string
	// respond returns the output file body for a submitted batch.
	respond func(reqs []driven.BatchRequest) (output, errorsText string)
	createErr error
	getErr    error

	batches  map[string][]driven.BatchRequest
	metadata map[string]map[string]string
	polls    map[string]int
	files    map[string]string
	created  []string
	getCalls int
}

func newFakeBatchProvider(respond func([]driven.BatchRequest) (string, string)) *fakeBatchProvider {
	return &fakeBatchProvider{
		respond: respond,
		batches:  make(map[string][]driven.BatchRequest),
		metadata: make(map[string]map[string]string),
		polls:    make(map[string]int),
		files:   make(map[string]string),
	}
}

func (f *fakeBatchProvider) CreateBatch(
	_ context.Context,
	reqs []driven.BatchRequest,
	_, _ string,
	metadata map[string]string,
) (driven.BatchHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return driven.BatchHandle{}, f.createErr
	}
	id := fmt.Sprintf("batch_%d", len(f.created)+1)
	f.created = append(f.created, id)
	f.batches[id] = reqs
	f.metadata[id] = metadata
	return driven.BatchHandle{BatchID: id, InputFileID: "file_in_" + id}, nil
}

func (f *fakeBatchProvider) FindBatch(_ context.Context, metadata map[string]string) (driven.BatchInfo, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.created) - 1; i >= 0; i-- {
		id := f.created[i]
		if matchesMetadata(f.metadata[id], metadata) {
			return driven.BatchInfo{ID: id, Status: driven.BatchStatusInProgress, InputFileID: "file_in_" + id}, true, nil
		}
	}
	return driven.BatchInfo{}, false, nil
}

func matchesMetadata(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func (f *fakeBatchProvider) GetBatch(_ context.Context, id string) (driven.BatchInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return driven.BatchInfo{}, f.getErr
	}
	reqs, ok := f.batches[id]
	if !ok {
		return driven.BatchInfo{}, fmt.Errorf("%w: batch %s", domain.ErrNotFound, id)
	}
	if f.polls[id] < f.pollsUntilDone {
		f.polls[id]++
		return driven.BatchInfo{ID: id, Status: driven.BatchStatusInProgress}, nil
	}
	if f.finalStatus != "" {
		return driven.BatchInfo{ID: id, Status: f.finalStatus}, nil
	}
	output, errorsText := f.respond(reqs)
	f.files["out_"+id] = output
	info := driven.BatchInfo{ID: id, Status: driven.BatchStatusCompleted, OutputFileID: "out_" + id}
	if errorsText != "" {
		f.files["err_"+id] = errorsText
		info.ErrorFileID = "err_" + id
	}
	return info, nil
}

func (f *fakeBatchProvider) GetFileContent(_ context.Context, fileID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fileID == "" {
		return "", nil
	}
	return f.files[fileID], nil
}

func (f *fakeBatchProvider) Provider() string  { return "openai" }
func (f *fakeBatchProvider) ModelName() string { return "gpt-test" }
func (f *fakeBatchProvider) Endpoint() string  { return "/v1/responses" }

func (f *fakeBatchProvider) requests(id string) []driven.BatchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches[id]
}

// outputLine renders one successful responses-API output line.
func outputLine(customID, text string) string {
	return fmt.Sprintf(
		`{"custom_id":%q,"response":{"status_code":200,"body":{"output":[{"type":"message","content":[{"type":"output_text","text":%q}]}]}}}`,
		customID, text)
}

// errorLine renders one failed output line.
func errorLine(customID, code, message string) string {
	return fmt.Sprintf(`{"custom_id":%q,"response":null,"error":{"code":%q,"message":%q}}`, customID, code, message)
}

// noRetryDelay removes retry sleeps for the duration of a test.
func noRetryDelay(t *testing.T) {
	t.Helper()
	prev := retryBaseDelay
	retryBaseDelay = 0
	t.Cleanup(func() { retryBaseDelay = prev })
}

// saveTestDocument stores a document with a compressed body.
func saveTestDocument(t *testing.T, docs driven.DocumentStore, id, owner, text string) {
	t.Helper()
	body, err := domain.CompressText(text)
	require.NoError(t, err)
	require.NoError(t, docs.SaveDocument(context.Background(), &domain.Document{
		ID:    id,
		Title: "Title " + id,
		Body:  body,
		Owner: owner,
	}))
}

// anyArgs matches every argument of mockRouter.Call.
func anyArgs() []any {
	return []any{mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything}
}
