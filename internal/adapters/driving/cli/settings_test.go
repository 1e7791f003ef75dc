package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
)

func TestSettingsCmd_Use(t *testing.T) {
	assert.Equal(t, "settings", settingsCmd.Use)
	assert.Equal(t, "Manage engine settings", settingsCmd.Short)
	assert.Contains(t, settingsCmd.Long, "config.toml")
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	setupServices(t, Services{})

	for _, args := range [][]string{
		{"settings"},
		{"settings", "show"},
		{"settings", "set", "a", "b"},
		{"settings", "set-key", "openai"},
		{"settings", "validate"},
	} {
		_, err := execute(t, "", args...)
		require.Error(t, err, strings.Join(args, " "))
		assert.Contains(t, err.Error(), "settings service not configured")
	}
}

func TestSettingsShowCmd(t *testing.T) {
	svc := newMockSettingsService()
	svc.entries = []driving.SettingEntry{
		{Key: "batch.poll_interval_seconds", Value: "60"},
		{Key: "llm.openai.api_key", Value: "sk-1...cdef", IsSet: true},
		{Key: "llm.openai.base_url", Value: ""},
		{Key: "router.default_provider", Value: "anthropic", IsSet: true},
	}
	setupServices(t, Services{SettingsService: svc})

	out, err := execute(t, "", "settings", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "[batch]")
	assert.Contains(t, out, "[llm]")
	assert.Contains(t, out, "[router]")
	assert.Equal(t, 1, strings.Count(out, "[llm]"))
	assert.Contains(t, out, "batch.poll_interval_seconds: 60 (default)")
	assert.Contains(t, out, "llm.openai.api_key: sk-1...cdef\n")
	assert.Contains(t, out, "llm.openai.base_url: (not set) (default)")
	assert.Contains(t, out, "router.default_provider: anthropic\n")
}

func TestSettingsSetCmd(t *testing.T) {
	svc := newMockSettingsService()
	setupServices(t, Services{SettingsService: svc})

	out, err := execute(t, "", "settings", "set", "segment.max_attempts", "5")
	require.NoError(t, err)
	assert.Equal(t, "5", svc.set["segment.max_attempts"])
	assert.Contains(t, out, "segment.max_attempts updated.")
}

func TestSettingsSetCmd_Error(t *testing.T) {
	svc := newMockSettingsService()
	svc.setErr = domain.ErrInvalidInput
	setupServices(t, Services{SettingsService: svc})

	_, err := execute(t, "", "settings", "set", "nope", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsSetKeyCmd(t *testing.T) {
	svc := newMockSettingsService()
	setupServices(t, Services{SettingsService: svc})

	out, err := execute(t, "sk-secret-123\n", "settings", "set-key", "anthropic")
	require.NoError(t, err)
	assert.Equal(t, "sk-secret-123", svc.keys[domain.AIProviderAnthropic])
	assert.Contains(t, out, "API key for anthropic saved.")
	assert.NotContains(t, out, "sk-secret-123")
}

func TestSettingsSetKeyCmd_Validation(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		arg     string
		wantErr string
	}{
		{name: "local provider", stdin: "x\n", arg: "ollama", wantErr: "does not use an API key"},
		{name: "unknown provider", stdin: "x\n", arg: "mistral", wantErr: "does not use an API key"},
		{name: "empty key", stdin: "\n", arg: "openai", wantErr: "API key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupServices(t, Services{SettingsService: newMockSettingsService()})

			_, err := execute(t, tt.stdin, "settings", "set-key", tt.arg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSettingsValidateCmd(t *testing.T) {
	svc := newMockSettingsService()
	svc.providers = map[domain.AIProvider]error{
		domain.AIProviderOpenAI: nil,
		domain.AIProviderOllama: nil,
	}
	setupServices(t, Services{SettingsService: svc})

	out, err := execute(t, "", "settings", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ollama: ok")
	assert.Contains(t, out, "openai: ok")
	assert.Less(t, strings.Index(out, "ollama"), strings.Index(out, "openai"))
	assert.Contains(t, out, "Settings are valid.")
}

func TestSettingsValidateCmd_Failures(t *testing.T) {
	svc := newMockSettingsService()
	svc.providers = map[domain.AIProvider]error{domain.AIProviderOpenAI: errors.New("401 unauthorized")}
	setupServices(t, Services{SettingsService: svc})

	out, err := execute(t, "", "settings", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "openai: 401 unauthorized")
	assert.Contains(t, err.Error(), "1 providers unreachable")

	svc.validateErr = domain.ErrValidation
	_, err = execute(t, "", "settings", "validate")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReadPassword_FallsBackToLine(t *testing.T) {
	assert.Equal(t, "abc", readPassword(strings.NewReader("  abc  \nrest")))
	assert.Equal(t, "", readPassword(strings.NewReader("")))
}
