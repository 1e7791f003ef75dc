package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

var fastWorker = domain.WorkerSettings{MinBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

func TestWorker_ProcessOne(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewWorkQueue()
	results := memory.NewTaskStore()

	var handled []string
	w := NewWorker("jobs", queue, func(_ context.Context, payload string) (int, error) {
		handled = append(handled, payload)
		if payload == "bad" {
			return 0, errors.New("boom")
		}
		return 3, nil
	}, results, fastWorker)

	ok, err := w.ProcessOne(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty queue")

	_, err = queue.Enqueue(ctx, "jobs", "good")
	require.NoError(t, err)
	_, err = queue.Enqueue(ctx, "jobs", "bad")
	require.NoError(t, err)

	ok, err = w.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = w.ProcessOne(ctx)
	require.NoError(t, err, "handler failures are recorded, not returned")
	assert.True(t, ok)

	assert.Equal(t, []string{"good", "bad"}, handled)

	good, err := results.GetTaskHistory(ctx, "good", 0)
	require.NoError(t, err)
	require.Len(t, good, 1)
	assert.True(t, good[0].Success)
	assert.Equal(t, 3, good[0].ItemsProcessed)
	assert.Equal(t, "jobs", good[0].Queue)

	bad, err := results.GetTaskHistory(ctx, "bad", 0)
	require.NoError(t, err)
	require.Len(t, bad, 1)
	assert.False(t, bad[0].Success)
	assert.Equal(t, "boom", bad[0].Error)

	n, err := queue.Len(ctx, "jobs")
	require.NoError(t, err)
	assert.Zero(t, n, "records are removed at claim time")
}

func TestWorker_StartStop(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewWorkQueue()

	var mu sync.Mutex
	seen := make(map[string]int)
	done := make(chan struct{})
	w := NewWorker("jobs", queue, func(_ context.Context, payload string) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		seen[payload]++
		if len(seen) == 5 {
			close(done)
		}
		return 1, nil
	}, nil, fastWorker)

	for _, p := range []string{"a", "b", "c", "d", "e"} {
		_, err := queue.Enqueue(ctx, "jobs", p)
		require.NoError(t, err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not drain the queue")
	}

	require.NoError(t, w.Stop())
	require.NoError(t, <-errCh)

	mu.Lock()
	defer mu.Unlock()
	for p, count := range seen {
		assert.Equal(t, 1, count, "record %s handled more than once", p)
	}
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker("jobs", memory.NewWorkQueue(), func(context.Context, string) (int, error) {
		return 0, nil
	}, nil, fastWorker)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_InterruptedRecordIsRequeued(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue := memory.NewWorkQueue()

	started := make(chan struct{})
	w := NewWorker("jobs", queue, func(ctx context.Context, _ string) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, fmt.Errorf("run task: %w", ctx.Err())
	}, nil, fastWorker)

	_, err := queue.Enqueue(ctx, "jobs", "task-1")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("record was not claimed")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	rec, err := queue.Claim(context.Background(), "jobs")
	require.NoError(t, err)
	require.NotNil(t, rec, "interrupted record must be back on the queue")
	assert.Equal(t, "task-1", rec.Payload)
}

func TestWorker_FailedRecordIsNotRequeued(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewWorkQueue()
	w := NewWorker("jobs", queue, func(context.Context, string) (int, error) {
		return 0, context.Canceled
	}, nil, fastWorker)

	_, err := queue.Enqueue(ctx, "jobs", "task-1")
	require.NoError(t, err)

	handled, err := w.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, handled)

	n, err := queue.Len(ctx, "jobs")
	require.NoError(t, err)
	assert.Zero(t, n, "only records cut short by the worker's own context return")
}

func TestWorker_StopWithoutStart(t *testing.T) {
	w := NewWorker("jobs", memory.NewWorkQueue(), nil, nil, fastWorker)
	assert.NoError(t, w.Stop())
}

func TestWorker_CompetingConsumersNeverShareRecords(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewWorkQueue()
	const total = 40
	for i := 0; i < total; i++ {
		_, err := queue.Enqueue(ctx, domain.QueueTagging, string(rune('A'+i)))
		require.NoError(t, err)
	}

	var mu sync.Mutex
	counts := make(map[string]int)
	handler := func(_ context.Context, payload string) (int, error) {
		mu.Lock()
		counts[payload]++
		mu.Unlock()
		return 1, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		w := NewWorker(domain.QueueTagging, queue, handler, nil, fastWorker)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				ok, err := w.ProcessOne(ctx)
				if err != nil || !ok {
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, counts, total)
	for p, c := range counts {
		assert.Equal(t, 1, c, "record %s claimed twice", p)
	}
}

func TestNewTaggingWorker(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewWorkQueue()
	docs := memory.NewDocumentStore()
	saveTestDocument(t, docs, "doc-1", "alice", "Connections matter")

	tagging, err := NewTaggingService(docs, domain.TaggerSettings{})
	require.NoError(t, err)
	w := NewTaggingWorker(queue, tagging, nil, fastWorker)

	_, err = queue.Enqueue(ctx, domain.QueueTagging, "doc-1")
	require.NoError(t, err)

	ok, err := w.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	doc, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Contains(t, doc.Tags, "connect")
}

func TestNewTaskWorker(t *testing.T) {
	f := newTaskFixture(t, false)
	ctx := context.Background()
	f.router.On("Call", anyArgs()...).Return("Technology", nil)

	task, err := f.svc.CreateTask(ctx, domain.TaskTypeTagsClassification, "alice", []string{"golang"}, nil)
	require.NoError(t, err)

	w := NewTaskWorker(f.queue, f.svc, f.tasks, fastWorker)
	ok, err := w.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := f.svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusDone, stored.Status)

	history, err := f.svc.History(ctx, task.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, 1, history[0].ItemsProcessed)
}
