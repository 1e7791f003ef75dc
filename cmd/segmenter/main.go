// Command segmenter runs the segmentation and tagging engine.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-segmenter/internal/core/services"
	"github.com/custodia-labs/sercha-segmenter/internal/logger"
	"github.com/custodia-labs/sercha-segmenter/internal/normalisers"
	"github.com/custodia-labs/sercha-segmenter/internal/postprocessors/sentences"
	"github.com/custodia-labs/sercha-segmenter/internal/postprocessors/topics"
)

// Set by the release build.
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return report("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	engine := settingsService.Engine()

	store, err := sqlite.NewStore("")
	if err != nil {
		return report("opening store: %w", err)
	}
	defer store.Close()

	queue, closeQueue, err := openQueue(engine.Queue, store)
	if err != nil {
		return report("opening queue: %w", err)
	}
	defer closeQueue()

	promptStore, err := file.NewPromptStore("", topics.DefaultTemplates())
	if err != nil {
		return report("opening prompts: %w", err)
	}
	prompts := topics.NewPrompts(promptStore)
	splitter := sentences.New()
	router := ai.NewRouter(engine.Router)
	defer func() {
		if err := router.Close(); err != nil {
			logger.Warn("closing providers: %v", err)
		}
	}()

	docs, tags, tasks := store.DocumentStore(), store.TagStore(), store.TaskStore()

	segmentation := services.NewSegmentationService(router, docs, prompts, splitter, engine.Segment)
	tagging, err := services.NewTaggingService(docs, engine.Tagger)
	if err != nil {
		return report("configuring tagger: %w", err)
	}
	classification := services.NewClassificationService(router, tags, prompts)
	batch := services.NewBatchOrchestrator(router, tasks, store.RawResultStore(), docs, tags, engine.Batch,
		services.WithBatchPrompts(prompts),
		services.WithBatchSplitter(splitter),
	)
	taskService := services.NewTaskService(tasks, queue, router, docs, batch, segmentation, classification)
	documents := services.NewDocumentService(docs, queue, normalisers.Defaults()...)

	cli.Configure(cli.Services{
		SettingsService:     settingsService,
		SegmentationService: segmentation,
		TaggingService:      tagging,
		TaskService:         taskService,
		DocumentService:     documents,
		WorkQueue:           queue,
		NewWorker: func(name string) (driving.Worker, error) {
			switch name {
			case domain.QueueTagging:
				return services.NewTaggingWorker(queue, tagging, tasks, engine.Worker), nil
			case domain.QueueTasks:
				return services.NewTaskWorker(queue, taskService, tasks, engine.Worker), nil
			default:
				return nil, fmt.Errorf("%w: queue %q", domain.ErrUnsupportedType, name)
			}
		},
	})

	return cli.Execute(version)
}

// openQueue selects the work queue backend. The postgres queue is shared
// across hosts; the sqlite queue lives next to the local store.
func openQueue(cfg domain.QueueSettings, store *sqlite.Store) (driven.WorkQueue, func(), error) {
	if cfg.Backend != domain.QueueBackendPostgres {
		return store.WorkQueue(), func() {}, nil
	}

	q, err := postgres.Open(context.Background(), cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	return q, func() {
		if err := q.Close(); err != nil {
			logger.Warn("closing postgres queue: %v", err)
		}
	}, nil
}

// report logs a startup failure and returns it.
func report(format string, err error) error {
	err = fmt.Errorf(format, err)
	logger.Error("%v", err)
	return err
}
