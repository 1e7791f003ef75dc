package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDefaultProvider = "router.default_provider"
	keyBatchProvider   = "router.batch_provider"
	keyPollInterval    = "batch.poll_interval_seconds"
	keyWindow          = "batch.completion_window"
	keyMaxAttempts     = "segment.max_attempts"
	keyTemperature     = "segment.temperature"
	keyNoisePattern    = "tagger.noise_pattern"
	keyQueueBackend    = "queue.backend"
	keyPostgresDSN     = "queue.postgres_dsn"
	keyMinBackoff      = "worker.min_backoff_ms"
	keyMaxBackoff      = "worker.max_backoff_ms"

	providerKeyPrefix = "llm."
	fieldAPIKey       = "api_key"
	fieldBaseURL      = "base_url"
	fieldModel        = "model"
	fieldRPS          = "rps"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindProvider
	kindBackend
	kindSecret
)

var engineKeys = map[string]keyKind{
	keyDefaultProvider: kindProvider,
	keyBatchProvider:   kindProvider,
	keyPollInterval:    kindInt,
	keyWindow:          kindString,
	keyMaxAttempts:     kindInt,
	keyTemperature:     kindFloat,
	keyNoisePattern:    kindString,
	keyQueueBackend:    kindBackend,
	keyPostgresDSN:     kindSecret,
	keyMinBackoff:      kindInt,
	keyMaxBackoff:      kindInt,
}

// SettingsService maps flat configuration keys onto domain.EngineSettings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.ProviderValidator
}

// NewSettingsService creates a new settings service. validator may be nil.
func NewSettingsService(configStore driven.ConfigStore, validator driven.ProviderValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Engine returns the effective engine settings: stored values over defaults.
func (s *SettingsService) Engine() domain.EngineSettings {
	d := domain.DefaultEngineSettings()

	cfg := domain.EngineSettings{
		Router: domain.RouterConfig{
			DefaultProvider: s.getProvider(keyDefaultProvider, d.Router.DefaultProvider),
			BatchProvider:   s.getProvider(keyBatchProvider, d.Router.BatchProvider),
			Providers:       make(map[domain.AIProvider]domain.ProviderSettings),
		},
		Batch: domain.BatchSettings{
			PollInterval:     s.getSeconds(keyPollInterval, d.Batch.PollInterval),
			CompletionWindow: s.getString(keyWindow, d.Batch.CompletionWindow),
		},
		Segment: domain.SegmentSettings{
			MaxAttempts: s.getInt(keyMaxAttempts, d.Segment.MaxAttempts),
			Temperature: s.getFloat(keyTemperature, d.Segment.Temperature),
		},
		Tagger: domain.TaggerSettings{
			NoisePattern: s.getString(keyNoisePattern, d.Tagger.NoisePattern),
		},
		Queue: domain.QueueSettings{
			Backend:     s.getBackend(d.Queue.Backend),
			PostgresDSN: s.configStore.GetString(keyPostgresDSN),
		},
		Worker: domain.WorkerSettings{
			MinBackoff: s.getMillis(keyMinBackoff, d.Worker.MinBackoff),
			MaxBackoff: s.getMillis(keyMaxBackoff, d.Worker.MaxBackoff),
		},
	}

	if cfg.Worker.MaxBackoff < cfg.Worker.MinBackoff {
		cfg.Worker.MaxBackoff = cfg.Worker.MinBackoff
	}
	if cfg.Segment.MaxAttempts < 1 {
		cfg.Segment.MaxAttempts = 1
	}

	for _, p := range domain.AllProviders() {
		ps := domain.ProviderSettings{
			APIKey:            s.configStore.GetString(providerKey(p, fieldAPIKey)),
			BaseURL:           s.configStore.GetString(providerKey(p, fieldBaseURL)),
			Model:             s.configStore.GetString(providerKey(p, fieldModel)),
			RequestsPerSecond: s.getFloat(providerKey(p, fieldRPS), 0),
		}
		if ps != (domain.ProviderSettings{}) || p.IsLocal() {
			cfg.Router.Providers[p] = ps
		}
	}

	return cfg
}

// Set parses and stores one key. Unknown keys and unparsable values are rejected.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := keyKindOf(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var stored any = value
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		stored = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		stored = f
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
	case kindBackend:
		if !domain.QueueBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown queue backend %q", domain.ErrInvalidInput, value)
		}
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetAPIKey stores the API key of a provider.
func (s *SettingsService) SetAPIKey(provider domain.AIProvider, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, provider)
	}
	if err := s.configStore.Set(providerKey(provider, fieldAPIKey), apiKey); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	return nil
}

// Entries lists every known key with its effective value.
// Secrets are masked.
func (s *SettingsService) Entries() []driving.SettingEntry {
	keys := make([]string, 0, len(engineKeys)+4*len(domain.AllProviders()))
	for k := range engineKeys {
		keys = append(keys, k)
	}
	for _, p := range domain.AllProviders() {
		for _, f := range []string{fieldAPIKey, fieldBaseURL, fieldModel, fieldRPS} {
			keys = append(keys, providerKey(p, f))
		}
	}
	sort.Strings(keys)

	cfg := s.Engine()
	entries := make([]driving.SettingEntry, 0, len(keys))
	for _, k := range keys {
		val, set := s.configStore.Get(k)
		value := effectiveValue(cfg, k)
		if set && value == "" {
			value = fmt.Sprint(val)
		}
		kind, _ := keyKindOf(k)
		if kind == kindSecret && value != "" {
			value = maskSecret(value)
		}
		entries = append(entries, driving.SettingEntry{Key: k, Value: value, IsSet: set})
	}
	return entries
}

// Validate checks settings without contacting any provider.
func (s *SettingsService) Validate() error {
	cfg := s.Engine()
	if !cfg.Router.Providers[cfg.Router.DefaultProvider].IsConfigured(cfg.Router.DefaultProvider) {
		return fmt.Errorf("%w: default provider %s is not configured", domain.ErrInvalidInput, cfg.Router.DefaultProvider)
	}
	if cfg.Queue.Backend == domain.QueueBackendPostgres && cfg.Queue.PostgresDSN == "" {
		return fmt.Errorf("%w: %s is required for the postgres queue", domain.ErrInvalidInput, keyPostgresDSN)
	}
	return nil
}

// ValidateProviders pings every configured provider.
func (s *SettingsService) ValidateProviders() map[domain.AIProvider]error {
	if s.validator == nil {
		return nil
	}
	return s.validator.ValidateAll(s.Engine().Router)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Second
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Millisecond
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	if p := domain.AIProvider(s.configStore.GetString(key)); p.IsValid() {
		return p
	}
	return defaultVal
}

func (s *SettingsService) getBackend(defaultVal domain.QueueBackend) domain.QueueBackend {
	if b := domain.QueueBackend(s.configStore.GetString(keyQueueBackend)); b.IsValid() {
		return b
	}
	return defaultVal
}

func providerKey(p domain.AIProvider, field string) string {
	return providerKeyPrefix + string(p) + "." + field
}

// keyKindOf classifies engine keys and llm.<provider>.<field> keys.
func keyKindOf(key string) (keyKind, bool) {
	if kind, ok := engineKeys[key]; ok {
		return kind, true
	}
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0]+"." != providerKeyPrefix || !domain.AIProvider(parts[1]).IsValid() {
		return 0, false
	}
	switch parts[2] {
	case fieldAPIKey:
		return kindSecret, true
	case fieldBaseURL, fieldModel:
		return kindString, true
	case fieldRPS:
		return kindFloat, true
	}
	return 0, false
}

// effectiveValue renders the value of key that Engine() resolved.
func effectiveValue(cfg domain.EngineSettings, key string) string {
	switch key {
	case keyDefaultProvider:
		return string(cfg.Router.DefaultProvider)
	case keyBatchProvider:
		return string(cfg.Router.BatchProvider)
	case keyPollInterval:
		return strconv.Itoa(int(cfg.Batch.PollInterval / time.Second))
	case keyWindow:
		return cfg.Batch.CompletionWindow
	case keyMaxAttempts:
		return strconv.Itoa(cfg.Segment.MaxAttempts)
	case keyTemperature:
		return strconv.FormatFloat(cfg.Segment.Temperature, 'g', -1, 64)
	case keyNoisePattern:
		return cfg.Tagger.NoisePattern
	case keyQueueBackend:
		return string(cfg.Queue.Backend)
	case keyPostgresDSN:
		return cfg.Queue.PostgresDSN
	case keyMinBackoff:
		return strconv.Itoa(int(cfg.Worker.MinBackoff / time.Millisecond))
	case keyMaxBackoff:
		return strconv.Itoa(int(cfg.Worker.MaxBackoff / time.Millisecond))
	}
	return ""
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
