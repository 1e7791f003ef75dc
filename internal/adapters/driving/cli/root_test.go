package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/logger"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "segmenter", rootCmd.Use)
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"doc", "segment", "tags", "task", "queue", "worker", "settings", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("user-settings"))
}

func TestRootCmd_VerboseEnablesDebugLogging(t *testing.T) {
	setupServices(t, Services{})
	t.Cleanup(func() { logger.SetVerbose(false) })

	_, err := execute(t, "", "--verbose", "version")
	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestUserSettings_LoadsYAML(t *testing.T) {
	setupServices(t, Services{})

	path := filepath.Join(t.TempDir(), "alice.yaml")
	require.NoError(t, os.WriteFile(path, []byte("owner: alice\nsettings:\n  interactive: anthropic\n"), 0600))
	userSettingsPath = path

	owner, settings, err := userSettings()
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
	assert.Equal(t, domain.UserSettings{"interactive": "anthropic"}, settings)
}

func TestUserSettings_EmptyPath(t *testing.T) {
	setupServices(t, Services{})

	owner, settings, err := userSettings()
	require.NoError(t, err)
	assert.Empty(t, owner)
	assert.Empty(t, settings)
}

func TestExecute_SetsVersion(t *testing.T) {
	setupServices(t, Services{})
	originalVersion := version
	defer func() { version = originalVersion }()

	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)
	require.NoError(t, Execute("1.2.3"))
	assert.Equal(t, "1.2.3", version)
}
