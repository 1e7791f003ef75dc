package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(
		map[string]any{"router.default_provider": "openai", "segment.max_attempts": 3},
		map[string]any{"router.default_provider": "ollama"},
	)

	assert.Equal(t, "ollama", store.GetString("router.default_provider"), "later seeds win")
	assert.Equal(t, 3, store.GetInt("segment.max_attempts"))
	assert.Equal(t, []string{"router.default_provider", "segment.max_attempts"}, store.Keys())
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_IntegersStoredAsTOMLWould(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("batch.poll_interval_seconds", 30))

	raw, ok := store.Get("batch.poll_interval_seconds")
	require.True(t, ok)
	assert.IsType(t, int64(0), raw)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("llm.openai.api_key", "sk-test"))
	require.NoError(t, store.Set("batch.poll_interval_seconds", int64(30)))
	require.NoError(t, store.Set("worker.max_backoff_ms", float64(2500)))
	require.NoError(t, store.Set("llm.ollama.rps", 2.5))
	require.NoError(t, store.Set("segment.temperature", " 0.3"))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("llm.openai.api_key"), "sk-test"},
		{"int from int64", store.GetInt("batch.poll_interval_seconds"), 30},
		{"int from float64", store.GetInt("worker.max_backoff_ms"), 2500},
		{"float", store.GetFloat("llm.ollama.rps"), 2.5},
		{"float from string", store.GetFloat("segment.temperature"), 0.3},
		{"int truncates float", store.GetInt("llm.ollama.rps"), 2},
		{"missing string", store.GetString("nope"), ""},
		{"missing float", store.GetFloat("nope"), 0.0},
		{"non-numeric string", store.GetInt("llm.openai.api_key"), 0},
		{"int ignores numeric string", store.GetInt("segment.temperature"), 0},
		{"number as string", store.GetString("llm.ollama.rps"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_ConcurrentSetAndGet(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("worker.min_backoff_ms", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("worker.min_backoff_ms")
		}()
	}
	wg.Wait()

	_, ok := store.Get("worker.min_backoff_ms")
	assert.True(t, ok)
}
