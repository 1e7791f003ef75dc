package driving

import "github.com/custodia-labs/sercha-segmenter/internal/core/domain"

// SettingEntry is one configuration key as shown to the user.
type SettingEntry struct {
	Key   string
	Value string
	IsSet bool
}

// SettingsService manages engine settings.
type SettingsService interface {
	// Engine returns the effective engine settings.
	Engine() domain.EngineSettings

	// Set parses and stores one key.
	Set(key, value string) error

	// SetAPIKey stores a provider API key.
	SetAPIKey(provider domain.AIProvider, apiKey string) error

	// Entries lists every known key with its effective value, secrets masked.
	Entries() []SettingEntry

	// Validate checks settings without contacting providers.
	Validate() error

	// ValidateProviders pings every configured provider.
	ValidateProviders() map[domain.AIProvider]error
}
