package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-segmenter/internal/logger"
	"github.com/custodia-labs/sercha-segmenter/internal/postprocessors/sentences"
	"github.com/custodia-labs/sercha-segmenter/internal/postprocessors/topics"
)

// Ensure SegmentationService implements the interface.
var _ driving.SegmentationService = (*SegmentationService)(nil)

var segLog = logger.For("segment")

// SegmentationService splits text into sentences, asks the model for topic
// ranges over the marker-tagged text and turns the answer into groups.
type SegmentationService struct {
	router   driven.LLMRouter
	docs     driven.DocumentStore
	prompts  *topics.Prompts
	splitter *sentences.Processor
	cfg      domain.SegmentSettings
}

// NewSegmentationService creates a segmentation service.
// A nil prompts or splitter uses the defaults.
func NewSegmentationService(
	router driven.LLMRouter,
	docs driven.DocumentStore,
	prompts *topics.Prompts,
	splitter *sentences.Processor,
	cfg domain.SegmentSettings,
) *SegmentationService {
	if prompts == nil {
		prompts = topics.NewPrompts(nil)
	}
	if splitter == nil {
		splitter = sentences.New()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &SegmentationService{
		router:   router,
		docs:     docs,
		prompts:  prompts,
		splitter: splitter,
		cfg:      cfg,
	}
}

// Segment is the best-effort path.
func (s *SegmentationService) Segment(
	ctx context.Context,
	text string,
	settings domain.UserSettings,
) (domain.Groups, []domain.Sentence) {
	groups, rows, err := s.generate(ctx, text, settings, false)
	if err != nil {
		segLog.Warn("falling back to a single group: %v", err)
		return domain.SingleGroup(len(rows)), rows
	}
	return groups, rows
}

// SegmentStrict is the validated path.
func (s *SegmentationService) SegmentStrict(
	ctx context.Context,
	text string,
	settings domain.UserSettings,
) (domain.Groups, []domain.Sentence, error) {
	return s.generate(ctx, text, settings, true)
}

// SegmentDocument segments a stored document and writes its groups.
// On the strict path a failure leaves the stored groups untouched.
func (s *SegmentationService) SegmentDocument(
	ctx context.Context,
	docID string,
	settings domain.UserSettings,
	strict bool,
) (domain.Groups, error) {
	doc, err := s.docs.GetDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", docID, err)
	}
	text, err := doc.Text()
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", docID, err)
	}

	var groups domain.Groups
	if strict {
		groups, _, err = s.SegmentStrict(ctx, text, settings)
		if err != nil {
			return nil, err
		}
	} else {
		groups, _ = s.Segment(ctx, text, settings)
	}

	if err := s.docs.SaveGroups(ctx, docID, groups); err != nil {
		return nil, fmt.Errorf("save groups for %s: %w", docID, err)
	}
	return groups, nil
}

// generate runs up to MaxAttempts model calls. Transient, malformed and
// (when validate is set) invalid answers trigger another attempt. The rows
// are returned even on failure so callers can build a fallback.
func (s *SegmentationService) generate(
	ctx context.Context,
	text string,
	settings domain.UserSettings,
	validate bool,
) (domain.Groups, []domain.Sentence, error) {
	tagged, rows := topics.AddMarkers(text, s.splitter.SplitText(text))
	if len(rows) == 0 {
		return domain.Groups{}, nil, nil
	}

	prompt := s.prompts.TopicRanges(tagged)
	opts := driven.CallOptions{Temperature: driven.Temperature(s.cfg.Temperature)}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		var output string
		err := retryTransient(ctx, func(ctx context.Context) error {
			var callErr error
			output, callErr = s.router.Call(ctx, domain.ProviderKeyInteractive, settings, []string{prompt}, opts)
			return callErr
		})
		if err != nil {
			if errors.Is(err, domain.ErrNoHandler) || ctx.Err() != nil {
				return nil, rows, err
			}
			lastErr = err
			segLog.Debug("attempt %d: %v", attempt, err)
			continue
		}

		groups, parsed, err := topics.GroupsFromOutput(output, len(rows))
		if err == nil && validate {
			err = topics.ValidateRanges(parsed)
		}
		if err == nil {
			return groups, rows, nil
		}
		lastErr = err
		segLog.Debug("attempt %d: %v", attempt, err)
	}

	return nil, rows, fmt.Errorf("segmentation failed after %d attempts: %w", s.cfg.MaxAttempts, lastErr)
}
