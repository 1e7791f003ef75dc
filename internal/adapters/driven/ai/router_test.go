package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

type fakeLLM struct {
	provider string
	model    string
	opts     driven.OptionSet
	lastOpts driven.CallOptions
	lastMsgs []driven.ChatMessage
	closed   bool
}

func (f *fakeLLM) Call(_ context.Context, msgs []driven.ChatMessage, opts driven.CallOptions) (string, error) {
	f.lastMsgs = msgs
	f.lastOpts = opts
	return f.provider + ":" + f.model, nil
}
func (f *fakeLLM) SupportedOptions() driven.OptionSet { return f.opts }
func (f *fakeLLM) Provider() string                   { return f.provider }
func (f *fakeLLM) ModelName() string                  { return f.model }
func (f *fakeLLM) Ping(context.Context) error         { return nil }
func (f *fakeLLM) Close() error                       { f.closed = true; return nil }

type fakeBatchLLM struct {
	fakeLLM
}

func (f *fakeBatchLLM) CreateBatch(context.Context, []driven.BatchRequest, string, string, map[string]string) (driven.BatchHandle, error) {
	return driven.BatchHandle{}, nil
}
func (f *fakeBatchLLM) FindBatch(context.Context, map[string]string) (driven.BatchInfo, bool, error) {
	return driven.BatchInfo{}, false, nil
}
func (f *fakeBatchLLM) GetBatch(context.Context, string) (driven.BatchInfo, error) {
	return driven.BatchInfo{}, nil
}
func (f *fakeBatchLLM) GetFileContent(context.Context, string) (string, error) { return "", nil }
func (f *fakeBatchLLM) Endpoint() string                                       { return "/v1/responses" }

// recordingConstructor builds fakes and counts constructions per provider.
type recordingConstructor struct {
	calls   map[domain.AIProvider]int
	failing map[domain.AIProvider]bool
}

func newRecorder(failing ...domain.AIProvider) *recordingConstructor {
	rc := &recordingConstructor{calls: map[domain.AIProvider]int{}, failing: map[domain.AIProvider]bool{}}
	for _, p := range failing {
		rc.failing[p] = true
	}
	return rc
}

func (rc *recordingConstructor) build(p domain.AIProvider, ps domain.ProviderSettings, model string) (driven.LLMService, error) {
	rc.calls[p]++
	if rc.failing[p] {
		return nil, errors.New("boom")
	}
	if model == "" {
		model = ps.Model
	}
	if model == "" {
		model = "default"
	}
	base := fakeLLM{provider: string(p), model: model, opts: driven.OptionSet{Temperature: true}}
	if p.SupportsBatch() {
		return &fakeBatchLLM{fakeLLM: base}, nil
	}
	return &base, nil
}

func testConfig() domain.RouterConfig {
	return domain.RouterConfig{
		DefaultProvider: domain.AIProviderOpenAI,
		BatchProvider:   domain.AIProviderOpenAI,
		Providers: map[domain.AIProvider]domain.ProviderSettings{
			domain.AIProviderOpenAI: {APIKey: "k", Model: "gpt"},
			domain.AIProviderOllama: {Model: "llama"},
		},
	}
}

func TestRouter_Resolve(t *testing.T) {
	tests := []struct {
		name         string
		settings     domain.UserSettings
		wantProvider string
		wantModel    string
	}{
		{"config default", nil, "openai", "gpt"},
		{"provider override", domain.UserSettings{"interactive": "ollama"}, "ollama", "llama"},
		{"key model override", domain.UserSettings{"interactive": "ollama", "interactive_model": "qwen"}, "ollama", "qwen"},
		{"provider model override", domain.UserSettings{"interactive": "ollama", "ollama_model": "phi"}, "ollama", "phi"},
		{
			"key model wins over provider model",
			domain.UserSettings{"interactive_model": "a", "openai_model": "b"},
			"openai", "a",
		},
		{"unknown provider ignored", domain.UserSettings{"interactive": "nope"}, "openai", "gpt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(testConfig(), WithConstructor(newRecorder().build))
			h, ok := r.Resolve(domain.ProviderKeyInteractive, tt.settings)
			require.True(t, ok)
			assert.Equal(t, tt.wantProvider, h.Provider())
			assert.Equal(t, tt.wantModel, h.ModelName())
		})
	}
}

func TestRouter_CachesByProviderAndModel(t *testing.T) {
	rec := newRecorder()
	r := NewRouter(testConfig(), WithConstructor(rec.build))

	h1, _ := r.Resolve("interactive", nil)
	h2, _ := r.Resolve("other-key", nil)
	h3, _ := r.Resolve("interactive", domain.UserSettings{"interactive_model": "x"})

	assert.Same(t, h1, h2)
	assert.NotSame(t, h1, h3)
	assert.Equal(t, 2, rec.calls[domain.AIProviderOpenAI])
}

func TestRouter_FailureCachedAsMiss(t *testing.T) {
	rec := newRecorder(domain.AIProviderAnthropic)
	cfg := testConfig()
	cfg.Providers[domain.AIProviderAnthropic] = domain.ProviderSettings{APIKey: "k"}
	r := NewRouter(cfg, WithConstructor(rec.build))

	settings := domain.UserSettings{"interactive": "anthropic"}
	h, ok := r.Resolve("interactive", settings)
	require.True(t, ok)
	assert.Equal(t, "openai", h.Provider(), "falls back to default provider")

	_, _ = r.Resolve("interactive", settings)
	assert.Equal(t, 1, rec.calls[domain.AIProviderAnthropic], "failed construction is not retried")
}

func TestRouter_FallbackToAnyProvider(t *testing.T) {
	rec := newRecorder(domain.AIProviderOpenAI)
	r := NewRouter(testConfig(), WithConstructor(rec.build))

	h, ok := r.Resolve("interactive", nil)
	require.True(t, ok)
	assert.Equal(t, "ollama", h.Provider())
}

func TestRouter_NoHandler(t *testing.T) {
	rec := newRecorder(domain.AIProviderOpenAI, domain.AIProviderOllama)
	r := NewRouter(testConfig(), WithConstructor(rec.build))

	h, ok := r.Resolve("interactive", nil)
	assert.False(t, ok)
	assert.Nil(t, h)

	_, err := r.Call(context.Background(), "interactive", nil, []string{"hi"}, driven.CallOptions{})
	assert.ErrorIs(t, err, domain.ErrNoHandler)
}

func TestRouter_CallFiltersOptions(t *testing.T) {
	r := NewRouter(testConfig(), WithConstructor(newRecorder().build))
	seed := 42

	out, err := r.Call(context.Background(), "interactive", nil, []string{"a", "b"}, driven.CallOptions{
		Temperature: driven.Temperature(0.2),
		Seed:        &seed,
		MaxTokens:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt", out)

	h, _ := r.Resolve("interactive", nil)
	fake := h.(*fakeBatchLLM)
	require.NotNil(t, fake.lastOpts.Temperature)
	assert.Nil(t, fake.lastOpts.Seed)
	assert.Zero(t, fake.lastOpts.MaxTokens)
	assert.Equal(t, driven.UserMessages("a", "b"), fake.lastMsgs)
}

func TestRouter_ResolveBatch(t *testing.T) {
	r := NewRouter(testConfig(), WithConstructor(newRecorder().build))

	bp, ok := r.ResolveBatch(domain.ProviderKeyBatch, domain.UserSettings{"batch-worker": "ollama"})
	require.True(t, ok, "non-batch provider falls back to a batch-capable one")
	assert.Equal(t, "openai", bp.Provider())

	bp2, ok := r.ResolveBatch(domain.ProviderKeyBatch, nil)
	require.True(t, ok)
	assert.Same(t, bp, bp2)
}

func TestRouter_ResolveBatch_None(t *testing.T) {
	cfg := testConfig()
	delete(cfg.Providers, domain.AIProviderOpenAI)
	r := NewRouter(cfg, WithConstructor(newRecorder(domain.AIProviderOpenAI).build))

	_, ok := r.ResolveBatch(domain.ProviderKeyBatch, nil)
	assert.False(t, ok)

	_, ok = r.Resolve(domain.ProviderKeyInteractive, nil)
	assert.True(t, ok, "interactive calls still resolve to ollama")
}

func TestRouter_Close(t *testing.T) {
	r := NewRouter(testConfig(), WithConstructor(newRecorder().build))
	h, _ := r.Resolve("interactive", nil)

	require.NoError(t, r.Close())
	assert.True(t, h.(*fakeBatchLLM).closed)
}

func TestCreateLLMService(t *testing.T) {
	svc, err := CreateLLMService(domain.AIProviderOllama, domain.ProviderSettings{Model: "m"}, "")
	require.NoError(t, err)
	assert.Equal(t, "m", svc.ModelName())

	svc, err = CreateLLMService(domain.AIProviderOpenAI, domain.ProviderSettings{APIKey: "k"}, "gpt-x")
	require.NoError(t, err)
	assert.Equal(t, "gpt-x", svc.ModelName())
	_, isBatch := svc.(driven.BatchProvider)
	assert.True(t, isBatch)

	_, err = CreateLLMService(domain.AIProviderAnthropic, domain.ProviderSettings{}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = CreateLLMService("bogus", domain.ProviderSettings{}, "")
	assert.Error(t, err)
}

func TestConfigValidator_ValidateAll(t *testing.T) {
	rec := newRecorder(domain.AIProviderOllama)
	v := &ConfigValidator{build: rec.build}

	failures := v.ValidateAll(testConfig())

	assert.Len(t, failures, 1)
	assert.Contains(t, failures, domain.AIProviderOllama)
}
