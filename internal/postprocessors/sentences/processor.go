package sentences

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// DefaultMaxSentences bounds how many sentences one document contributes to a prompt.
const DefaultMaxSentences = 2000

// Processor turns documents into sentence spans.
type Processor struct {
	minLength    int
	maxSentences int
}

// Option configures the sentence processor.
type Option func(*Processor)

// WithMinLength drops trimmed spans shorter than n bytes. Dropped spans do not consume a number.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minLength = n
		}
	}
}

// WithMaxSentences truncates the result to the first n sentences.
func WithMaxSentences(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxSentences = n
		}
	}
}

// New creates a new sentence processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		minLength:    1,
		maxSentences: DefaultMaxSentences,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "sentences"
}

// SplitText splits text with the processor's options applied.
func (p *Processor) SplitText(text string) []domain.Sentence {
	sents := split(text, p.minLength)
	if len(sents) > p.maxSentences {
		sents = sents[:p.maxSentences]
	}
	return sents
}

// Process decompresses the document body and splits it.
// It returns the decoded text alongside the spans that index into it.
func (p *Processor) Process(ctx context.Context, doc *domain.Document) (string, []domain.Sentence, error) {
	if doc == nil {
		return "", nil, fmt.Errorf("document is nil: %w", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	text, err := doc.Text()
	if err != nil {
		return "", nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if text == "" {
		return "", nil, nil
	}

	return text, p.SplitText(text), nil
}
