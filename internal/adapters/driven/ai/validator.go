package ai

import (
	"fmt"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

var _ driven.ProviderValidator = (*ConfigValidator)(nil)

// ConfigValidator validates provider configurations by pinging them.
type ConfigValidator struct {
	build Constructor
}

// NewConfigValidator creates a validator using the real adapters.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{build: CreateLLMService}
}

// ValidateProvider pings one provider.
func (v *ConfigValidator) ValidateProvider(provider domain.AIProvider, settings domain.ProviderSettings) error {
	return validateWith(v.build, provider, settings)
}

// ValidateAll pings every configured provider and returns the failures keyed by provider.
func (v *ConfigValidator) ValidateAll(cfg domain.RouterConfig) map[domain.AIProvider]error {
	failures := make(map[domain.AIProvider]error)
	for _, p := range domain.AllProviders() {
		ps, ok := cfg.Providers[p]
		if !ok || !ps.IsConfigured(p) {
			continue
		}
		if err := v.ValidateProvider(p, ps); err != nil {
			failures[p] = fmt.Errorf("%s: %w", p.Description(), err)
		}
	}
	return failures
}
