package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/logger"
)

// handlerKey identifies a cached handler.
type handlerKey struct {
	provider domain.AIProvider
	model    string
}

// Router resolves a logical provider key plus per-user settings to a handler.
//
// Handlers are built lazily and cached by (provider, model) for the router's
// lifetime. A construction failure is logged and cached as a miss, so a
// misconfigured provider is attempted once. Interactive and batch handlers
// live in separate caches with separate fallback orders.
type Router struct {
	cfg   domain.RouterConfig
	build Constructor

	mu       sync.Mutex
	handlers map[handlerKey]driven.LLMService
	batch    map[handlerKey]driven.BatchProvider
}

var _ driven.LLMRouter = (*Router)(nil)

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithConstructor replaces the adapter constructor.
func WithConstructor(build Constructor) RouterOption {
	return func(r *Router) {
		if build != nil {
			r.build = build
		}
	}
}

// NewRouter creates a router for cfg.
func NewRouter(cfg domain.RouterConfig, opts ...RouterOption) *Router {
	if cfg.Providers == nil {
		cfg.Providers = map[domain.AIProvider]domain.ProviderSettings{}
	}
	r := &Router{
		cfg:      cfg,
		build:    CreateLLMService,
		handlers: make(map[handlerKey]driven.LLMService),
		batch:    make(map[handlerKey]driven.BatchProvider),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the interactive handler for key.
//
// Provider: settings[key], else the configured default.
// Model: settings[key+"_model"], else settings[provider+"_model"], else the handler default.
// On failure it falls back to the default provider, then to any provider that
// initializes. It returns false when nothing resolves.
func (r *Router) Resolve(key string, settings domain.UserSettings) (driven.LLMService, bool) {
	provider, model := r.selection(key, settings, r.cfg.DefaultProvider)

	r.mu.Lock()
	defer r.mu.Unlock()

	if h := r.handlerLocked(provider, model); h != nil {
		return h, true
	}

	if provider != r.cfg.DefaultProvider || model != "" {
		if h := r.handlerLocked(r.cfg.DefaultProvider, providerModel(settings, r.cfg.DefaultProvider)); h != nil {
			logger.Debug("router: %s fell back to default provider %s", key, r.cfg.DefaultProvider)
			return h, true
		}
	}

	for _, p := range domain.AllProviders() {
		if !r.configured(p) {
			continue
		}
		if h := r.handlerLocked(p, ""); h != nil {
			logger.Debug("router: %s fell back to %s", key, p)
			return h, true
		}
	}

	return nil, false
}

// ResolveBatch returns the batch handler for key, following the same
// resolution rules restricted to batch-capable providers.
func (r *Router) ResolveBatch(key string, settings domain.UserSettings) (driven.BatchProvider, bool) {
	provider, model := r.selection(key, settings, r.cfg.BatchProvider)

	r.mu.Lock()
	defer r.mu.Unlock()

	if h := r.batchLocked(provider, model); h != nil {
		return h, true
	}
	if provider != r.cfg.BatchProvider || model != "" {
		if h := r.batchLocked(r.cfg.BatchProvider, providerModel(settings, r.cfg.BatchProvider)); h != nil {
			return h, true
		}
	}
	for _, p := range domain.AllProviders() {
		if !p.SupportsBatch() || !r.configured(p) {
			continue
		}
		if h := r.batchLocked(p, ""); h != nil {
			return h, true
		}
	}

	return nil, false
}

// Call resolves key and sends messages as user turns.
// Options the handler does not declare are dropped before the call.
func (r *Router) Call(
	ctx context.Context,
	key string,
	settings domain.UserSettings,
	messages []string,
	opts driven.CallOptions,
) (string, error) {
	return r.CallMessages(ctx, key, settings, driven.UserMessages(messages...), opts)
}

// CallMessages is Call with explicit roles.
func (r *Router) CallMessages(
	ctx context.Context,
	key string,
	settings domain.UserSettings,
	messages []driven.ChatMessage,
	opts driven.CallOptions,
) (string, error) {
	h, ok := r.Resolve(key, settings)
	if !ok {
		return "", fmt.Errorf("%w: key %q", domain.ErrNoHandler, key)
	}
	return h.Call(ctx, messages, h.SupportedOptions().Filter(opts))
}

// Close releases every cached handler.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := make(map[driven.LLMService]bool)
	for k, h := range r.handlers {
		if h != nil && !closed[h] {
			closed[h] = true
			if err := h.Close(); err != nil {
				logger.Warn("router: close %s/%s: %v", k.provider, k.model, err)
			}
		}
	}
	r.handlers = make(map[handlerKey]driven.LLMService)
	r.batch = make(map[handlerKey]driven.BatchProvider)
	return nil
}

func (r *Router) selection(key string, settings domain.UserSettings, fallback domain.AIProvider) (domain.AIProvider, string) {
	provider := fallback
	if p := domain.AIProvider(settings[key]); p.IsValid() {
		provider = p
	}
	model := settings[domain.ModelKey(key)]
	if model == "" {
		model = providerModel(settings, provider)
	}
	return provider, model
}

func providerModel(settings domain.UserSettings, provider domain.AIProvider) string {
	return settings[domain.ModelKey(string(provider))]
}

func (r *Router) configured(p domain.AIProvider) bool {
	ps, ok := r.cfg.Providers[p]
	return ok && ps.IsConfigured(p)
}

// handlerLocked returns a cached or newly built handler, or nil on a miss.
func (r *Router) handlerLocked(provider domain.AIProvider, model string) driven.LLMService {
	k := handlerKey{provider: provider, model: model}
	if h, ok := r.handlers[k]; ok {
		return h
	}

	h, err := r.build(provider, r.cfg.Providers[provider], model)
	if err != nil {
		logger.Warn("router: cannot initialize %s (model %q): %v", provider, model, err)
		h = nil
	}
	r.handlers[k] = h
	return h
}

func (r *Router) batchLocked(provider domain.AIProvider, model string) driven.BatchProvider {
	if !provider.SupportsBatch() {
		return nil
	}
	k := handlerKey{provider: provider, model: model}
	if h, ok := r.batch[k]; ok {
		return h
	}

	var bp driven.BatchProvider
	if h := r.handlerLocked(provider, model); h != nil {
		if b, ok := h.(driven.BatchProvider); ok {
			bp = b
		} else {
			logger.Warn("router: %s handler has no batch support", provider)
		}
	}
	r.batch[k] = bp
	return bp
}
