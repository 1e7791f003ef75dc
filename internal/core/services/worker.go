package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
)

// Ensure Worker implements the interface.
var _ driving.Worker = (*Worker)(nil)

// RecordHandler processes the payload of one claimed record and returns the
// number of items it handled.
type RecordHandler func(ctx context.Context, payload string) (int, error)

// Worker consumes one queue. Records are removed at claim time, so a worker
// that dies mid-record loses that record. A record whose handler is cut
// short by cancellation is put back on the queue.
type Worker struct {
	queueName string
	queue     driven.WorkQueue
	handle    RecordHandler
	results   driven.TaskStore
	cfg       domain.WorkerSettings

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewWorker creates a worker for queueName. results may be nil.
func NewWorker(
	queueName string,
	queue driven.WorkQueue,
	handle RecordHandler,
	results driven.TaskStore,
	cfg domain.WorkerSettings,
) *Worker {
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = cfg.MinBackoff
	}
	return &Worker{
		queueName: queueName,
		queue:     queue,
		handle:    handle,
		results:   results,
		cfg:       cfg,
	}
}

// NewTaggingWorker consumes the tagging queue, whose payloads are document IDs.
func NewTaggingWorker(
	queue driven.WorkQueue,
	tagging driving.TaggingService,
	results driven.TaskStore,
	cfg domain.WorkerSettings,
) *Worker {
	return NewWorker(domain.QueueTagging, queue, func(ctx context.Context, docID string) (int, error) {
		if _, err := tagging.TagDocument(ctx, docID); err != nil {
			return 0, err
		}
		return 1, nil
	}, results, cfg)
}

// NewTaskWorker consumes the tasks queue, whose payloads are task IDs.
func NewTaskWorker(
	queue driven.WorkQueue,
	tasks driving.TaskService,
	results driven.TaskStore,
	cfg domain.WorkerSettings,
) *Worker {
	return NewWorker(domain.QueueTasks, queue, tasks.RunTask, results, cfg)
}

// Start polls the queue until the context is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.wg.Add(1)
	w.mu.Unlock()

	defer w.wg.Done()
	return w.run(ctx, stopCh)
}

// Stop signals the worker and waits for the in-flight record to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

func (w *Worker) run(ctx context.Context, stopCh <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		default:
		}

		handled, err := w.ProcessOne(ctx)
		if err != nil {
			log.Printf("worker %s: %v", w.queueName, err)
		}
		if handled && err == nil {
			continue
		}

		// idle or failing: back off before claiming again
		t := time.NewTimer(jitter(w.cfg.MinBackoff, w.cfg.MaxBackoff))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-stopCh:
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// ProcessOne claims and handles at most one record. It reports whether a
// record was claimed. Handler failures are recorded, not returned.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	rec, err := w.queue.Claim(ctx, w.queueName)
	if err != nil {
		return false, fmt.Errorf("claim: %w", err)
	}
	if rec == nil {
		return false, nil
	}

	result := &domain.TaskResult{
		TaskID:    rec.Payload,
		Queue:     rec.Queue,
		StartedAt: time.Now(),
	}
	result.ItemsProcessed, err = w.handle(ctx, rec.Payload)
	result.EndedAt = time.Now()
	if err != nil {
		result.Error = err.Error()
		log.Printf("worker %s: record %s (%s) failed: %v", w.queueName, rec.ID, rec.Payload, err)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			w.requeue(context.WithoutCancel(ctx), rec)
		}
	} else {
		result.Success = true
	}

	if w.results != nil {
		if recordErr := w.results.RecordResult(context.WithoutCancel(ctx), result); recordErr != nil {
			log.Printf("worker %s: failed to record result for %s: %v", w.queueName, rec.Payload, recordErr)
		}
	}
	return true, nil
}

// requeue hands an interrupted record back to its queue.
func (w *Worker) requeue(ctx context.Context, rec *domain.QueueRecord) {
	id, err := w.queue.Enqueue(ctx, w.queueName, rec.Payload)
	if err != nil {
		log.Printf("worker %s: failed to requeue %s: %v", w.queueName, rec.Payload, err)
		return
	}
	log.Printf("worker %s: record %s interrupted, requeued as %s", w.queueName, rec.Payload, id)
}
