// Package ai constructs LLM provider adapters and routes calls between them.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Constructor builds a handler for one provider and model.
// An empty model selects the provider settings' model, then the adapter default.
type Constructor func(provider domain.AIProvider, settings domain.ProviderSettings, model string) (driven.LLMService, error)

// CreateLLMService creates the adapter for provider.
func CreateLLMService(provider domain.AIProvider, settings domain.ProviderSettings, model string) (driven.LLMService, error) {
	if !settings.IsConfigured(provider) {
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrInvalidInput, provider)
	}
	if model == "" {
		model = settings.Model
	}

	switch provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL:           settings.BaseURL,
			Model:             model,
			RequestsPerSecond: settings.RequestsPerSecond,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             model,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             model,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(context.Background(), geminillm.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             model,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, provider)
	}
}

// ValidateProvider creates a handler and pings it.
// This is intended for the settings commands to validate credentials on configuration.
func ValidateProvider(provider domain.AIProvider, settings domain.ProviderSettings) error {
	return validateWith(CreateLLMService, provider, settings)
}

func validateWith(build Constructor, provider domain.AIProvider, settings domain.ProviderSettings) error {
	svc, err := build(provider, settings, "")
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
