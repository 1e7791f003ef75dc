package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the built-in default
	// or an error when no default exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Every template expects a single %s placeholder
// except PromptMapping, which expects the topic list and then the tagged text.
const (
	// PromptTopicRanges asks for "<topic path>: <ranges>" lines over tagged text.
	PromptTopicRanges = "topic_ranges"

	// PromptTopics asks for the hierarchical topic list of a text.
	PromptTopics = "topics"

	// PromptMapping asks for ranges restricted to a given topic list.
	PromptMapping = "mapping"

	// PromptTagClassification asks for the category path of a tag.
	PromptTagClassification = "tag_classification"
)
