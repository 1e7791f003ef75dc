// Package gemini provides an LLM service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/llm/httpx"
	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the LLM model to use (default: gemini-1.5-flash).
	Model string

	// RequestsPerSecond throttles outgoing requests (0 = unlimited).
	RequestsPerSecond float64
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	client  *genai.Client
	model   string
	limiter *httpx.RateLimiter
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{
		client:  cl,
		model:   cfg.Model,
		limiter: httpx.NewRateLimiter(cfg.RequestsPerSecond),
	}, nil
}

// Call runs the conversation as a chat session and returns the first text part.
func (s *LLMService) Call(ctx context.Context, messages []driven.ChatMessage, opts driven.CallOptions) (string, error) {
	system, history := splitMessages(messages)
	if len(history) == 0 {
		return "", fmt.Errorf("%w: gemini: no user message", domain.ErrInvalidInput)
	}

	m := s.client.GenerativeModel(s.model)
	m.GenerationConfig = generationConfig(opts)
	if len(system) > 0 {
		m.SystemInstruction = &genai.Content{Parts: system}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	cs := m.StartChat()
	cs.History = history[:len(history)-1]
	resp, err := cs.SendMessage(ctx, history[len(history)-1].Parts...)
	if err != nil {
		return "", classify(err)
	}

	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("%w: gemini: empty response", domain.ErrMalformedResponse)
	}
	return txt, nil
}

// SupportedOptions declares the generation parameters Gemini accepts.
func (s *LLMService) SupportedOptions() driven.OptionSet {
	return driven.OptionSet{
		Temperature: true,
		MaxTokens:   true,
		TopP:        true,
		StopWords:   true,
		JSONOutput:  true,
	}
}

// Provider returns the provider name.
func (s *LLMService) Provider() string {
	return string(domain.AIProviderGemini)
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping fetches the model metadata, which validates the key and model name.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.GenerativeModel(s.model).Info(ctx); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", classify(err))
	}
	return nil
}

// Close releases the underlying client.
func (s *LLMService) Close() error {
	return s.client.Close()
}

// splitMessages converts chat messages into system parts and chat history.
// Gemini names the assistant role "model".
func splitMessages(messages []driven.ChatMessage) ([]genai.Part, []*genai.Content) {
	var system []genai.Part
	var history []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, genai.Text(msg.Content))
		case "assistant", "model":
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	return system, history
}

func generationConfig(opts driven.CallOptions) genai.GenerationConfig {
	cfg := genai.GenerationConfig{StopSequences: opts.StopWords}
	if opts.Temperature != nil {
		cfg.Temperature = ptrFloat32(float32(*opts.Temperature))
	}
	if opts.TopP != nil {
		cfg.TopP = ptrFloat32(float32(*opts.TopP))
	}
	if opts.MaxTokens > 0 {
		n := int32(opts.MaxTokens)
		cfg.MaxOutputTokens = &n
	}
	if opts.JSONOutput {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

// classify wraps retryable API failures with domain.ErrTransientProvider.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && httpx.IsRetryableStatus(apiErr.Code) {
		return fmt.Errorf("%w: gemini: %w", domain.ErrTransientProvider, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") ||
		strings.Contains(err.Error(), "UNAVAILABLE") {
		return fmt.Errorf("%w: gemini: %w", domain.ErrTransientProvider, err)
	}
	return fmt.Errorf("gemini: %w", err)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
