package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/logger"
	"github.com/custodia-labs/sercha-segmenter/internal/postprocessors/sentences"
	"github.com/custodia-labs/sercha-segmenter/internal/postprocessors/topics"
)

var batchLog = logger.For("batch")

// BatchOrchestrator drives a task through the provider batch pipeline.
//
// Every call to Advance performs at most one transition of the persisted
// state machine and writes the new state before acting on it, so a process
// that dies between two calls resumes from the last written state. A
// submission is recorded as SUBMITTING before the provider sees it and is
// resumed by looking the batch up by its submission key:
//
//	NEW         -> SUBMITTING -> SUBMITTED (requests built and submitted)
//	SUBMITTED   -> RAW_PENDING | FAILED    (provider reached a terminal status)
//	RAW_PENDING -> NEW (next step) | COMPLETED | FAILED
type BatchOrchestrator struct {
	router   driven.LLMRouter
	tasks    driven.TaskStore
	raws     driven.RawResultStore
	docs     driven.DocumentStore
	tags     driven.TagStore
	prompts  *topics.Prompts
	splitter *sentences.Processor
	cfg      domain.BatchSettings
	now      func() time.Time
}

// BatchOption configures a BatchOrchestrator.
type BatchOption func(*BatchOrchestrator)

// WithBatchClock overrides the clock used for poll throttling.
func WithBatchClock(now func() time.Time) BatchOption {
	return func(o *BatchOrchestrator) {
		o.now = now
	}
}

// WithBatchPrompts sets the prompt renderer.
func WithBatchPrompts(p *topics.Prompts) BatchOption {
	return func(o *BatchOrchestrator) {
		if p != nil {
			o.prompts = p
		}
	}
}

// WithBatchSplitter sets the sentence splitter used to tag documents.
func WithBatchSplitter(s *sentences.Processor) BatchOption {
	return func(o *BatchOrchestrator) {
		if s != nil {
			o.splitter = s
		}
	}
}

// NewBatchOrchestrator creates an orchestrator.
func NewBatchOrchestrator(
	router driven.LLMRouter,
	tasks driven.TaskStore,
	raws driven.RawResultStore,
	docs driven.DocumentStore,
	tags driven.TagStore,
	cfg domain.BatchSettings,
	opts ...BatchOption,
) *BatchOrchestrator {
	if cfg.CompletionWindow == "" {
		cfg.CompletionWindow = domain.DefaultEngineSettings().Batch.CompletionWindow
	}
	o := &BatchOrchestrator{
		router:   router,
		tasks:    tasks,
		raws:     raws,
		docs:     docs,
		tags:     tags,
		prompts:  topics.NewPrompts(nil),
		splitter: sentences.New(),
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run advances task until its batch state is terminal, sleeping until the
// next poll slot while a batch is in flight. It returns an error when the
// batch ends FAILED or a transition cannot be recorded.
func (o *BatchOrchestrator) Run(ctx context.Context, task *domain.Task) error {
	for !task.Batch.Status.IsTerminal() {
		if err := o.Advance(ctx, task); err != nil {
			return err
		}
		if task.Batch.Status == domain.BatchSubmitted {
			wait := task.Batch.LastCheck.Add(o.cfg.PollInterval).Sub(o.now())
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
		}
	}

	if task.Batch.Status == domain.BatchFailed {
		return fmt.Errorf("task %s: batch step %s failed: %s", task.ID, task.Batch.Step, task.Batch.FailureReason)
	}
	return nil
}

// Advance performs at most one transition of task's batch state.
// Failures the task cannot recover from are recorded as FAILED and return
// nil; transient provider errors and persistence errors are returned with
// the state left as it was.
func (o *BatchOrchestrator) Advance(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch task.Batch.Status {
	case domain.BatchNew, domain.BatchSubmitting, "":
		return o.submit(ctx, task)
	case domain.BatchSubmitted:
		return o.poll(ctx, task)
	case domain.BatchRawPending:
		return o.process(ctx, task)
	case domain.BatchCompleted, domain.BatchFailed:
		return nil
	default:
		return o.fail(ctx, task, fmt.Errorf("%w: unknown batch status %q", domain.ErrInvalidInput, task.Batch.Status))
	}
}

func (o *BatchOrchestrator) submit(ctx context.Context, task *domain.Task) error {
	st := task.Batch
	if st.Step == "" {
		st.Step = task.Type.FirstStep()
	}

	bp, ok := o.router.ResolveBatch(domain.ProviderKeyBatch, task.Settings)
	if !ok {
		return o.fail(ctx, task, fmt.Errorf("%w: no batch provider for %q", domain.ErrNoHandler, domain.ProviderKeyBatch))
	}

	items, requests, err := o.buildRequests(ctx, task, st, bp)
	if err != nil {
		return o.fail(ctx, task, err)
	}
	if len(requests) == 0 {
		batchLog.Info("task %s: nothing to submit for step %s", task.ID, st.Step)
		st.Status = domain.BatchCompleted
		return o.transition(ctx, task, st)
	}

	if st.Status != domain.BatchSubmitting {
		st.Provider = bp.Provider()
		st.SubmissionKey = submissionKey(task.ID, st.Step)
		st.BatchID = ""
		st.InputFileID = ""
		st.ItemIDs = items
		st.RawResultID = ""
		st.RawProcessed = false
		st.Status = domain.BatchSubmitting
		if err := o.transition(ctx, task, st); err != nil {
			return err
		}
	} else {
		batchLog.Info("task %s: resuming submission %s", task.ID, st.SubmissionKey)
	}

	var handle driven.BatchHandle
	err = retryTransient(ctx, func(ctx context.Context) error {
		// a batch created before an interruption is adopted, not duplicated
		info, found, callErr := bp.FindBatch(ctx, map[string]string{metaSubmissionKey: st.SubmissionKey})
		if callErr != nil {
			return callErr
		}
		if found {
			handle = driven.BatchHandle{BatchID: info.ID, InputFileID: info.InputFileID}
			return nil
		}
		handle, callErr = bp.CreateBatch(ctx, requests, bp.Endpoint(), o.cfg.CompletionWindow, map[string]string{
			metaTaskID:        task.ID,
			metaStep:          st.Step.String(),
			metaSubmissionKey: st.SubmissionKey,
		})
		return callErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransientProvider) || ctx.Err() != nil {
			return fmt.Errorf("submit batch for task %s: %w", task.ID, err)
		}
		return o.fail(ctx, task, fmt.Errorf("submit batch: %w", err))
	}

	st.Provider = bp.Provider()
	st.BatchID = handle.BatchID
	st.InputFileID = handle.InputFileID
	st.ItemIDs = items
	st.LastCheck = o.now()
	st.Status = domain.BatchSubmitted
	batchLog.Info("task %s: submitted %d requests for step %s as batch %s", task.ID, len(requests), st.Step, st.BatchID)
	return o.transition(ctx, task, st)
}

// buildRequests renders one request per item of the current step. Items
// that cannot be rendered are skipped.
func (o *BatchOrchestrator) buildRequests(
	ctx context.Context,
	task *domain.Task,
	st domain.BatchState,
	bp driven.BatchProvider,
) ([]string, []driven.BatchRequest, error) {
	var items []string
	switch st.Step {
	case domain.StepTopics, domain.StepClassification:
		items = task.Items()
	case domain.StepMapping:
		items = sortedKeys(st.Topics)
	default:
		return nil, nil, fmt.Errorf("%w: unknown batch step %q", domain.ErrInvalidInput, st.Step)
	}

	submitted := make([]string, 0, len(items))
	requests := make([]driven.BatchRequest, 0, len(items))
	for _, item := range items {
		prompt, err := o.promptFor(ctx, st, item)
		if err != nil {
			if errors.Is(err, domain.ErrPersistence) {
				return nil, nil, err
			}
			batchLog.Warn("task %s: skipping %s: %v", task.ID, item, err)
			continue
		}
		if prompt == "" {
			continue
		}
		submitted = append(submitted, item)
		requests = append(requests, driven.BatchRequest{
			CustomID: batchCustomID(task.ID, item, st.Step),
			Method:   "POST",
			URL:      bp.Endpoint(),
			Body: driven.BatchRequestBody{
				Model: bp.ModelName(),
				Input: []driven.BatchInputItem{{Role: "user", Content: prompt}},
			},
		})
	}
	return submitted, requests, nil
}

// promptFor renders the prompt of one item. An empty prompt means the item
// has nothing to segment.
func (o *BatchOrchestrator) promptFor(ctx context.Context, st domain.BatchState, item string) (string, error) {
	if st.Step == domain.StepClassification {
		return o.prompts.TagClassification(item), nil
	}

	tagged, rows, err := o.taggedDocument(ctx, item)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	if st.Step == domain.StepMapping {
		return o.prompts.Mapping(st.Topics[item], tagged), nil
	}
	return o.prompts.Topics(tagged), nil
}

func (o *BatchOrchestrator) taggedDocument(ctx context.Context, docID string) (string, []domain.Sentence, error) {
	doc, err := o.docs.GetDocument(ctx, docID)
	if err != nil {
		return "", nil, fmt.Errorf("get document %s: %w", docID, err)
	}
	text, err := doc.Text()
	if err != nil {
		return "", nil, err
	}
	tagged, rows := topics.AddMarkers(text, o.splitter.SplitText(text))
	return tagged, rows, nil
}

func (o *BatchOrchestrator) poll(ctx context.Context, task *domain.Task) error {
	st := task.Batch
	now := o.now()
	if !st.LastCheck.IsZero() && now.Sub(st.LastCheck) < o.cfg.PollInterval {
		return nil
	}

	bp, ok := o.router.ResolveBatch(domain.ProviderKeyBatch, task.Settings)
	if !ok {
		return o.fail(ctx, task, fmt.Errorf("%w: no batch provider for %q", domain.ErrNoHandler, domain.ProviderKeyBatch))
	}

	var info driven.BatchInfo
	err := retryTransient(ctx, func(ctx context.Context) error {
		var callErr error
		info, callErr = bp.GetBatch(ctx, st.BatchID)
		return callErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransientProvider) || ctx.Err() != nil {
			return fmt.Errorf("poll batch %s: %w", st.BatchID, err)
		}
		return o.fail(ctx, task, fmt.Errorf("poll batch %s: %w", st.BatchID, err))
	}
	st.LastCheck = now

	switch {
	case info.IsCompleted():
		raw, err := o.fetchRaw(ctx, task, bp, info)
		if err != nil {
			return err
		}
		if err := o.raws.SaveRawResult(ctx, raw); err != nil {
			return o.fail(ctx, task, fmt.Errorf("save raw result: %w", err))
		}
		st.RawResultID = raw.ID
		st.RawProcessed = false
		st.Status = domain.BatchRawPending
		batchLog.Info("task %s: batch %s completed", task.ID, st.BatchID)
	case info.IsFailed():
		return o.fail(ctx, task, fmt.Errorf("batch %s ended with status %s", st.BatchID, info.Status))
	default:
		batchLog.Debug("task %s: batch %s is %s", task.ID, st.BatchID, info.Status)
	}
	return o.transition(ctx, task, st)
}

func (o *BatchOrchestrator) fetchRaw(
	ctx context.Context,
	task *domain.Task,
	bp driven.BatchProvider,
	info driven.BatchInfo,
) (*domain.RawBatchResult, error) {
	var output, errorsText string
	err := retryTransient(ctx, func(ctx context.Context) error {
		var callErr error
		if output, callErr = bp.GetFileContent(ctx, info.OutputFileID); callErr != nil {
			return callErr
		}
		errorsText, callErr = bp.GetFileContent(ctx, info.ErrorFileID)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch results of batch %s: %w", info.ID, err)
	}

	return &domain.RawBatchResult{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		BatchID:   task.Batch.BatchID,
		Step:      task.Batch.Step,
		Output:    output,
		Errors:    errorsText,
		CreatedAt: o.now(),
	}, nil
}

func (o *BatchOrchestrator) process(ctx context.Context, task *domain.Task) error {
	st := task.Batch

	raw, err := o.raws.GetRawResult(ctx, st.RawResultID)
	if errors.Is(err, domain.ErrNotFound) {
		// results were never stored; fetch them again
		batchLog.Warn("task %s: raw result %q missing, polling batch %s again", task.ID, st.RawResultID, st.BatchID)
		st.Status = domain.BatchSubmitted
		st.RawResultID = ""
		st.LastCheck = time.Time{}
		return o.transition(ctx, task, st)
	}
	if err != nil {
		return o.fail(ctx, task, fmt.Errorf("load raw result: %w", err))
	}

	answers := make(map[string]string)
	var failed []string
	for _, line := range parseBatchOutput(raw.Output) {
		item, ok := batchItemID(line.CustomID, task.ID, st.Step)
		if !ok {
			batchLog.Warn("task %s: unexpected custom_id %q", task.ID, line.CustomID)
			continue
		}
		if line.Err != "" {
			batchLog.Warn("task %s: %s failed: %s", task.ID, item, line.Err)
			failed = append(failed, line.Err)
			continue
		}
		answers[item] = line.Text
	}
	for _, line := range parseBatchOutput(raw.Errors) {
		if line.Err != "" {
			failed = append(failed, line.Err)
		}
	}

	if len(answers) == 0 {
		if hasCriticalSignature(append(failed, raw.Errors)...) {
			if err := o.raws.DeleteRawResult(ctx, raw.ID); err != nil {
				batchLog.Warn("task %s: delete raw result %s: %v", task.ID, raw.ID, err)
			}
			return o.fail(ctx, task, fmt.Errorf("%w: batch %s step %s", domain.ErrCriticalBatch, st.BatchID, st.Step))
		}
		return o.fail(ctx, task, fmt.Errorf("%w: batch %s returned no usable lines", domain.ErrMalformedResponse, st.BatchID))
	}

	next, err := o.apply(ctx, task, st, answers)
	if err != nil {
		return o.fail(ctx, task, err)
	}

	if err := o.raws.MarkRawProcessed(ctx, raw.ID); err != nil {
		return o.fail(ctx, task, fmt.Errorf("mark raw result processed: %w", err))
	}
	if err := o.transition(ctx, task, next); err != nil {
		return err
	}
	if err := o.raws.DeleteRawResult(ctx, raw.ID); err != nil {
		batchLog.Warn("task %s: delete raw result %s: %v", task.ID, raw.ID, err)
	}
	return nil
}

// apply writes the results of one step and returns the state that follows it.
func (o *BatchOrchestrator) apply(
	ctx context.Context,
	task *domain.Task,
	st domain.BatchState,
	answers map[string]string,
) (domain.BatchState, error) {
	switch st.Step {
	case domain.StepTopics:
		found := make(map[string][]string, len(answers))
		for docID, text := range answers {
			list := topics.ParseTopicList(text)
			if len(list) == 0 {
				batchLog.Warn("task %s: no topics for %s", task.ID, docID)
				continue
			}
			found[docID] = list
		}
		return o.nextStep(st, found), nil

	case domain.StepMapping:
		for _, docID := range sortedKeys(answers) {
			if err := o.saveMapping(ctx, docID, answers[docID]); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					batchLog.Warn("task %s: document %s vanished: %v", task.ID, docID, err)
					continue
				}
				return st, err
			}
		}

	case domain.StepClassification:
		classes := make([]domain.TagClassification, 0, len(answers))
		for _, tag := range sortedKeys(answers) {
			category, err := topics.ParseCategory(answers[tag])
			if err != nil {
				batchLog.Warn("task %s: skipping tag %q: %v", task.ID, tag, err)
				continue
			}
			classes = append(classes, domain.TagClassification{Owner: task.Owner, Tag: tag, Category: category})
		}
		if err := o.tags.SaveTagClassifications(ctx, classes); err != nil {
			return st, fmt.Errorf("save tag classifications: %w", err)
		}

	default:
		return st, fmt.Errorf("%w: unknown batch step %q", domain.ErrInvalidInput, st.Step)
	}

	return o.nextStep(st, nil), nil
}

// nextStep returns the NEW state of the step after st, or COMPLETED when
// st is the last one.
func (o *BatchOrchestrator) nextStep(st domain.BatchState, carried map[string][]string) domain.BatchState {
	step, ok := st.Step.Next()
	if !ok {
		st.Status = domain.BatchCompleted
		st.RawProcessed = true
		return st
	}
	return domain.BatchState{
		Provider: st.Provider,
		Step:     step,
		Status:   domain.BatchNew,
		Topics:   carried,
	}
}

func (o *BatchOrchestrator) saveMapping(ctx context.Context, docID, output string) error {
	_, rows, err := o.taggedDocument(ctx, docID)
	if err != nil {
		return err
	}
	groups := topics.GroupsOrFallback(output, len(rows))
	if err := o.docs.SaveGroups(ctx, docID, groups); err != nil {
		return fmt.Errorf("save groups for %s: %w", docID, err)
	}
	return nil
}

// fail records a FAILED state. It returns nil once the failure is stored.
func (o *BatchOrchestrator) fail(ctx context.Context, task *domain.Task, cause error) error {
	st := task.Batch
	st.Status = domain.BatchFailed
	st.FailureReason = cause.Error()
	batchLog.Error("task %s: step %s failed: %v", task.ID, st.Step, cause)
	return o.transition(ctx, task, st)
}

// transition stores st and only then makes it the task's current state.
func (o *BatchOrchestrator) transition(ctx context.Context, task *domain.Task, st domain.BatchState) error {
	if err := o.tasks.UpdateBatchState(ctx, task.ID, st); err != nil {
		return fmt.Errorf("persist batch state of task %s: %w", task.ID, err)
	}
	task.Batch = st
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
