package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// AllProviders lists every provider in fallback preference order.
func AllProviders() []AIProvider {
	return []AIProvider{AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderOllama}
}

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsBatch returns true if this provider exposes an asynchronous batch API.
func (p AIProvider) SupportsBatch() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// Logical provider keys used by callers of the router.
const (
	// ProviderKeyInteractive resolves the handler for synchronous calls.
	ProviderKeyInteractive = "interactive"

	// ProviderKeyBatch resolves the handler for batch submissions.
	ProviderKeyBatch = "batch-worker"
)

// ModelKey returns the settings key holding the model override for key.
func ModelKey(key string) string {
	return key + "_model"
}

// ProviderSettings holds connection configuration for one provider.
type ProviderSettings struct {
	// APIKey is the API key (for cloud providers).
	APIKey string

	// BaseURL is the API endpoint override.
	BaseURL string

	// Model is the default model name for the provider.
	Model string

	// RequestsPerSecond throttles calls to the provider. Zero means the adapter default.
	RequestsPerSecond float64
}

// IsConfigured returns true if the provider can be constructed.
func (s ProviderSettings) IsConfigured(p AIProvider) bool {
	if !p.IsValid() {
		return false
	}
	if p.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// RouterConfig configures the LLM router.
type RouterConfig struct {
	// DefaultProvider serves interactive keys without an explicit override.
	DefaultProvider AIProvider

	// BatchProvider serves batch keys without an explicit override.
	BatchProvider AIProvider

	// Providers holds per-provider connection settings.
	Providers map[AIProvider]ProviderSettings
}

// BatchSettings configures the batch orchestrator.
type BatchSettings struct {
	// PollInterval is the minimum time between two status polls of one batch.
	PollInterval time.Duration

	// CompletionWindow is the provider completion window ("24h").
	CompletionWindow string
}

// SegmentSettings configures the segmentation pipeline.
type SegmentSettings struct {
	// MaxAttempts bounds regeneration on the strict path.
	MaxAttempts int

	// Temperature is passed to interactive segmentation calls.
	Temperature float64
}

// TaggerSettings configures tag extraction.
type TaggerSettings struct {
	// NoisePattern is a regular expression of characters replaced by spaces.
	NoisePattern string
}

// QueueBackend selects the work-queue implementation.
type QueueBackend string

// Queue backends.
const (
	QueueBackendSQLite   QueueBackend = "sqlite"
	QueueBackendPostgres QueueBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b QueueBackend) IsValid() bool {
	return b == QueueBackendSQLite || b == QueueBackendPostgres
}

// QueueSettings configures the shared work queue.
type QueueSettings struct {
	Backend     QueueBackend
	PostgresDSN string
}

// WorkerSettings configures queue consumers.
type WorkerSettings struct {
	// MinBackoff and MaxBackoff bound the randomized idle sleep.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// EngineSettings aggregates all engine configuration.
type EngineSettings struct {
	Router  RouterConfig
	Batch   BatchSettings
	Segment SegmentSettings
	Tagger  TaggerSettings
	Queue   QueueSettings
	Worker  WorkerSettings
}

// DefaultNoisePattern matches characters that never belong to a tag.
const DefaultNoisePattern = `[^\p{L}\p{N}\s-]+`

// DefaultEngineSettings returns sensible defaults for the engine.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		Router: RouterConfig{
			DefaultProvider: AIProviderOpenAI,
			BatchProvider:   AIProviderOpenAI,
			Providers:       map[AIProvider]ProviderSettings{},
		},
		Batch: BatchSettings{
			PollInterval:     60 * time.Second,
			CompletionWindow: "24h",
		},
		Segment: SegmentSettings{
			MaxAttempts: 3,
			Temperature: 0,
		},
		Tagger: TaggerSettings{
			NoisePattern: DefaultNoisePattern,
		},
		Queue: QueueSettings{
			Backend: QueueBackendSQLite,
		},
		Worker: WorkerSettings{
			MinBackoff: 500 * time.Millisecond,
			MaxBackoff: 3 * time.Second,
		},
	}
}
