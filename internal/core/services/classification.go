package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/logger"
	"github.com/custodia-labs/sercha-segmenter/internal/postprocessors/topics"
)

// classifyConcurrency bounds interactive fan-out per task.
const classifyConcurrency = 4

var classifyLog = logger.For("classify")

// ClassificationService assigns categories to tags with interactive calls.
// It serves tags_classification tasks when no batch provider resolves.
type ClassificationService struct {
	router  driven.LLMRouter
	tags    driven.TagStore
	prompts *topics.Prompts
}

// NewClassificationService creates a classification service.
func NewClassificationService(router driven.LLMRouter, tags driven.TagStore, prompts *topics.Prompts) *ClassificationService {
	if prompts == nil {
		prompts = topics.NewPrompts(nil)
	}
	return &ClassificationService{router: router, tags: tags, prompts: prompts}
}

// Classify asks the model for the category of every tag, at most
// classifyConcurrency calls at a time, and commits all results in one write
// after every call has finished. Tags whose answer cannot be used are
// skipped. It returns the number of tags classified.
func (s *ClassificationService) Classify(
	ctx context.Context,
	owner string,
	tags []string,
	settings domain.UserSettings,
) (int, error) {
	if len(tags) == 0 {
		return 0, nil
	}

	var mu sync.Mutex
	var results []domain.TagClassification

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(classifyConcurrency)

	for _, tag := range tags {
		g.Go(func() error {
			category, err := s.classifyOne(gctx, tag, settings)
			if err != nil {
				// a missing handler fails every tag alike
				if errors.Is(err, domain.ErrNoHandler) {
					return err
				}
				classifyLog.Warn("skipping tag %q: %v", tag, err)
				return nil
			}
			mu.Lock()
			results = append(results, domain.TagClassification{Owner: owner, Tag: tag, Category: category})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Tag < results[j].Tag })
	if err := s.tags.SaveTagClassifications(ctx, results); err != nil {
		return 0, fmt.Errorf("save tag classifications: %w", err)
	}
	return len(results), nil
}

func (s *ClassificationService) classifyOne(ctx context.Context, tag string, settings domain.UserSettings) (string, error) {
	prompt := s.prompts.TagClassification(tag)
	var output string
	err := retryTransient(ctx, func(ctx context.Context) error {
		var callErr error
		output, callErr = s.router.Call(ctx, domain.ProviderKeyInteractive, settings, []string{prompt},
			driven.CallOptions{Temperature: driven.Temperature(0)})
		return callErr
	})
	if err != nil {
		return "", err
	}
	return topics.ParseCategory(output)
}
