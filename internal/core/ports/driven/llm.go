package driven

import (
	"context"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// LLMService is the single capability every provider variant implements.
//
// Implementations:
//   - OpenAI (also a BatchProvider)
//   - Anthropic
//   - Gemini
//   - Ollama (local models)
type LLMService interface {
	// Call sends the conversation and returns the model's text reply.
	// Options outside SupportedOptions are ignored by the implementation;
	// callers going through the router receive already-filtered options.
	Call(ctx context.Context, messages []ChatMessage, opts CallOptions) (string, error)

	// SupportedOptions declares which CallOptions fields the provider honours.
	SupportedOptions() OptionSet

	// Provider returns the provider name ("openai", "ollama", ...).
	Provider() string

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// UserMessages wraps plain strings as user messages.
func UserMessages(contents ...string) []ChatMessage {
	msgs := make([]ChatMessage, len(contents))
	for i, c := range contents {
		msgs[i] = ChatMessage{Role: "user", Content: c}
	}
	return msgs
}

// CallOptions configures a call. Nil or zero fields are unset.
type CallOptions struct {
	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature *float64

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// TopP is nucleus sampling mass.
	TopP *float64

	// Seed requests deterministic sampling where supported.
	Seed *int

	// StopWords are sequences that stop generation when encountered.
	StopWords []string

	// JSONOutput asks for a JSON-only reply where supported.
	JSONOutput bool
}

// OptionSet declares which CallOptions fields a provider accepts.
type OptionSet struct {
	Temperature bool
	MaxTokens   bool
	TopP        bool
	Seed        bool
	StopWords   bool
	JSONOutput  bool
}

// Filter returns a copy of opts with every field outside the set cleared.
func (s OptionSet) Filter(opts CallOptions) CallOptions {
	var out CallOptions
	if s.Temperature {
		out.Temperature = opts.Temperature
	}
	if s.MaxTokens {
		out.MaxTokens = opts.MaxTokens
	}
	if s.TopP {
		out.TopP = opts.TopP
	}
	if s.Seed {
		out.Seed = opts.Seed
	}
	if s.StopWords {
		out.StopWords = opts.StopWords
	}
	if s.JSONOutput {
		out.JSONOutput = opts.JSONOutput
	}
	return out
}

// Temperature is a convenience for building CallOptions.
func Temperature(t float64) *float64 {
	return &t
}

// LLMRouter resolves logical provider keys to handlers.
type LLMRouter interface {
	// Call resolves key for settings and sends messages as user turns.
	// Returns domain.ErrNoHandler when nothing resolves.
	Call(ctx context.Context, key string, settings domain.UserSettings, messages []string, opts CallOptions) (string, error)

	// ResolveBatch returns a batch-capable provider for key, if any.
	ResolveBatch(key string, settings domain.UserSettings) (BatchProvider, bool)
}

// ProviderValidator checks provider configurations by contacting them.
type ProviderValidator interface {
	// ValidateAll pings every configured provider and returns failures by provider.
	ValidateAll(cfg domain.RouterConfig) map[domain.AIProvider]error
}
