package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	entries     []driving.SettingEntry
	set         map[string]string
	keys        map[domain.AIProvider]string
	setErr      error
	validateErr error
	providers   map[domain.AIProvider]error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		set:  make(map[string]string),
		keys: make(map[domain.AIProvider]string),
	}
}

func (m *mockSettingsService) Engine() domain.EngineSettings { return domain.DefaultEngineSettings() }

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) SetAPIKey(provider domain.AIProvider, apiKey string) error {
	m.keys[provider] = apiKey
	return nil
}

func (m *mockSettingsService) Entries() []driving.SettingEntry { return m.entries }

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) ValidateProviders() map[domain.AIProvider]error { return m.providers }

// mockSegmentationService implements driving.SegmentationService for testing.
type mockSegmentationService struct {
	groups    domain.Groups
	sentences []domain.Sentence
	strictErr error

	lastText     string
	lastSettings domain.UserSettings
	strictCalled bool
	savedDoc     string
}

func (m *mockSegmentationService) Segment(
	_ context.Context,
	text string,
	settings domain.UserSettings,
) (domain.Groups, []domain.Sentence) {
	m.lastText, m.lastSettings = text, settings
	return m.groups, m.sentences
}

func (m *mockSegmentationService) SegmentStrict(
	_ context.Context,
	text string,
	settings domain.UserSettings,
) (domain.Groups, []domain.Sentence, error) {
	m.lastText, m.lastSettings = text, settings
	m.strictCalled = true
	if m.strictErr != nil {
		return nil, nil, m.strictErr
	}
	return m.groups, m.sentences, nil
}

func (m *mockSegmentationService) SegmentDocument(
	_ context.Context,
	docID string,
	settings domain.UserSettings,
	strict bool,
) (domain.Groups, error) {
	m.savedDoc, m.lastSettings, m.strictCalled = docID, settings, strict
	return m.groups, nil
}

// mockTaggingService implements driving.TaggingService for testing.
type mockTaggingService struct {
	result   *domain.TagResult
	err      error
	lastText string
	lastDoc  string
}

func (m *mockTaggingService) Tag(text string) (*domain.TagResult, error) {
	m.lastText = text
	return m.result, m.err
}

func (m *mockTaggingService) TagDocument(_ context.Context, docID string) (*domain.TagResult, error) {
	m.lastDoc = docID
	return m.result, m.err
}

// mockTaskService implements driving.TaskService for testing.
type mockTaskService struct {
	tasks   map[string]*domain.Task
	history []domain.TaskResult
	runErr  error
	ran     []string
	created *domain.Task
}

func newMockTaskService() *mockTaskService {
	return &mockTaskService{tasks: make(map[string]*domain.Task)}
}

func (m *mockTaskService) CreateTask(
	_ context.Context,
	taskType domain.TaskType,
	owner string,
	items []string,
	settings domain.UserSettings,
) (*domain.Task, error) {
	if !taskType.IsValid() {
		return nil, domain.ErrUnsupportedType
	}
	task := &domain.Task{ID: "task-1", Type: taskType, Owner: owner, Settings: settings}
	if taskType == domain.TaskTypeTagsClassification {
		task.Tags = items
	} else {
		task.DocumentIDs = items
	}
	m.created = task
	m.tasks[task.ID] = task
	return task, nil
}

func (m *mockTaskService) GetTask(_ context.Context, id string) (*domain.Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

func (m *mockTaskService) History(_ context.Context, _ string, limit int) ([]domain.TaskResult, error) {
	if limit < len(m.history) {
		return m.history[:limit], nil
	}
	return m.history, nil
}

func (m *mockTaskService) RunTask(_ context.Context, id string) (int, error) {
	m.ran = append(m.ran, id)
	if m.runErr != nil {
		return 0, m.runErr
	}
	return len(m.tasks[id].Items()), nil
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	docs     map[string]*domain.Document
	imported []string
	opts     []driving.ImportOptions
	err      error
}

func newMockDocumentService() *mockDocumentService {
	return &mockDocumentService{docs: make(map[string]*domain.Document)}
}

func (m *mockDocumentService) Import(
	_ context.Context,
	owner, uri string,
	content []byte,
	opts driving.ImportOptions,
) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.imported = append(m.imported, uri)
	m.opts = append(m.opts, opts)
	id := opts.ID
	if id == "" {
		id = "doc-" + uri
	}
	body, err := domain.CompressText(string(content))
	if err != nil {
		return nil, err
	}
	doc := &domain.Document{ID: id, Title: "Title", Owner: owner, Body: body}
	m.docs[id] = doc
	return doc, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// stubWorker returns from Start once its context is done or Stop is called.
type stubWorker struct {
	queue   string
	started chan struct{}
	stop    chan struct{}
	once    sync.Once
}

func newStubWorker(queue string) *stubWorker {
	return &stubWorker{queue: queue, started: make(chan struct{}), stop: make(chan struct{})}
}

func (w *stubWorker) Start(ctx context.Context) error {
	close(w.started)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stop:
		return nil
	}
}

func (w *stubWorker) Stop() error {
	w.once.Do(func() { close(w.stop) })
	return nil
}

// setupServices installs s for the duration of a test and resets flags.
func setupServices(t *testing.T, s Services) {
	t.Helper()
	old := Services{
		SettingsService:     settingsService,
		SegmentationService: segmentationService,
		TaggingService:      taggingService,
		TaskService:         taskService,
		DocumentService:     documentService,
		WorkQueue:           workQueue,
		NewWorker:           newWorker,
	}
	Configure(s)
	resetFlags()
	t.Cleanup(func() {
		Configure(old)
		resetFlags()
	})
}

func resetFlags() {
	verbose = false
	userSettingsPath = ""
	segmentStrict = false
	segmentDocID = ""
	tagsDocID = ""
	tagsWords = false
	taskType = string(domain.TaskTypePostGrouping)
	taskOwner = ""
	taskHistoryLimit = 5
	docOwner = ""
	docID = ""
	docTag = false
	workerQueues = []string{domain.QueueTagging, domain.QueueTasks}
	workerCount = 1
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	var in io.Reader = strings.NewReader(stdin)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
