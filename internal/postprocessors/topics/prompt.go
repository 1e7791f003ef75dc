package topics

import (
	"strings"

	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// Template placeholders.
const (
	PlaceholderText   = "{{text}}"
	PlaceholderTopics = "{{topics}}"
	PlaceholderTag    = "{{tag}}"
)

const topicRangesTemplate = `You split a document into topics.

Every line of the document below starts with a sentence marker in curly braces, like {0}.
Assign every sentence to exactly one topic.

Naming rules:
- Use short canonical names that a reader would search for (e.g. "Artificial Intelligence", not "Stuff about AI").
- Build a hierarchy from general to specific, separated by ">" (e.g. Technology>Artificial Intelligence>Language Models).
- Use at most 4 levels. Never leave a level empty.
- Reuse the same path for sentences about the same subject, even when they are not adjacent.

Output format, one topic per line and nothing else:
<topic path>: <ranges>
where <ranges> is a comma-separated list of marker numbers or inclusive intervals, e.g.
Technology>Artificial Intelligence: 0-3, 7
Sport>Football: 4-6

Document:
{{text}}`

const topicsTemplate = `List the topics of the document below.

Every line starts with a sentence marker in curly braces, like {0}.
Use short canonical names, hierarchical from general to specific, separated by ">".
Use at most 4 levels.

Output one topic path per line and nothing else.

Document:
{{text}}`

const mappingTemplate = `Assign every sentence of the document below to one of these topics:
{{topics}}

Every line of the document starts with a sentence marker in curly braces, like {0}.
Use only the topic paths listed above, spelled exactly as given.

Output format, one topic per line and nothing else:
<topic path>: <ranges>
where <ranges> is a comma-separated list of marker numbers or inclusive intervals, e.g. 0-3, 7

Document:
{{text}}`

const tagClassificationTemplate = `Classify the tag below into a hierarchical category path from general to specific, separated by ">" (e.g. Science>Physics).
Use at most 3 levels and short canonical names.
Answer with the category path only.

Tag: {{tag}}`

// DefaultTemplates returns the built-in prompt templates keyed by prompt name.
func DefaultTemplates() map[string]string {
	return map[string]string{
		driven.PromptTopicRanges:       topicRangesTemplate,
		driven.PromptTopics:            topicsTemplate,
		driven.PromptMapping:           mappingTemplate,
		driven.PromptTagClassification: tagClassificationTemplate,
	}
}

// BuildTopicRangesPrompt renders the single-call segmentation prompt.
func BuildTopicRangesPrompt(tagged string) string {
	return render(topicRangesTemplate, PlaceholderText, tagged)
}

// BuildTopicsPrompt renders the prompt of the batch "topics" step.
func BuildTopicsPrompt(tagged string) string {
	return render(topicsTemplate, PlaceholderText, tagged)
}

// BuildMappingPrompt renders the prompt of the batch "mapping" step.
func BuildMappingPrompt(topicList []string, tagged string) string {
	return render(mappingTemplate, PlaceholderTopics, strings.Join(topicList, "\n"), PlaceholderText, tagged)
}

// BuildTagClassificationPrompt renders the tag classification prompt.
func BuildTagClassificationPrompt(tag string) string {
	return render(tagClassificationTemplate, PlaceholderTag, tag)
}

// Prompts renders templates, preferring overrides from a PromptStore.
type Prompts struct {
	store driven.PromptStore
}

// NewPrompts creates a renderer. A nil store uses the built-in templates.
func NewPrompts(store driven.PromptStore) *Prompts {
	return &Prompts{store: store}
}

// TopicRanges renders the single-call segmentation prompt.
func (p *Prompts) TopicRanges(tagged string) string {
	return render(p.template(driven.PromptTopicRanges), PlaceholderText, tagged)
}

// Topics renders the "topics" step prompt.
func (p *Prompts) Topics(tagged string) string {
	return render(p.template(driven.PromptTopics), PlaceholderText, tagged)
}

// Mapping renders the "mapping" step prompt.
func (p *Prompts) Mapping(topicList []string, tagged string) string {
	return render(p.template(driven.PromptMapping),
		PlaceholderTopics, strings.Join(topicList, "\n"), PlaceholderText, tagged)
}

// TagClassification renders the tag classification prompt.
func (p *Prompts) TagClassification(tag string) string {
	return render(p.template(driven.PromptTagClassification), PlaceholderTag, tag)
}

func (p *Prompts) template(name string) string {
	if p != nil && p.store != nil {
		if tmpl, err := p.store.Load(name); err == nil && strings.TrimSpace(tmpl) != "" {
			return tmpl
		}
	}
	return DefaultTemplates()[name]
}

// render substitutes placeholders in a single pass so that values containing
// placeholder text are never expanded again.
func render(tmpl string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
