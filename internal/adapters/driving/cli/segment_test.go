package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

const segmentText = "Goals were scored. The crowd cheered. Markets fell."

func segmentFixture() *mockSegmentationService {
	return &mockSegmentationService{
		groups: domain.Groups{"Sport>Football": {1, 2}, "Economy": {3}},
		sentences: []domain.Sentence{
			{Number: 1, Start: 0, End: 18},
			{Number: 2, Start: 19, End: 37},
			{Number: 3, Start: 38, End: 51},
		},
	}
}

func writeInput(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0600))
	return path
}

func TestSegmentCmd_Use(t *testing.T) {
	assert.Equal(t, "segment [file]", segmentCmd.Use)
	assert.Contains(t, segmentCmd.Long, "Main Content")
	assert.NotNil(t, segmentCmd.Flags().Lookup("strict"))
	assert.NotNil(t, segmentCmd.Flags().Lookup("doc"))
}

func TestSegmentCmd_NotConfigured(t *testing.T) {
	setupServices(t, Services{})

	_, err := execute(t, "", "segment", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segmentation service not configured")
}

func TestSegmentCmd_BestEffortFromFile(t *testing.T) {
	seg := segmentFixture()
	setupServices(t, Services{SegmentationService: seg})

	out, err := execute(t, "", "segment", writeInput(t, segmentText))
	require.NoError(t, err)

	assert.False(t, seg.strictCalled)
	assert.Equal(t, segmentText, seg.lastText)
	assert.Contains(t, out, "3 sentences, 2 topics")
	assert.Contains(t, out, "Sport>Football (1, 2)")
	assert.Contains(t, out, "  2. The crowd cheered.")
	assert.Contains(t, out, "  3. Markets fell.")
}

func TestSegmentCmd_StrictFromStdin(t *testing.T) {
	seg := segmentFixture()
	setupServices(t, Services{SegmentationService: seg})

	out, err := execute(t, segmentText, "segment", "--strict", "-")
	require.NoError(t, err)

	assert.True(t, seg.strictCalled)
	assert.Equal(t, segmentText, seg.lastText)
	assert.Contains(t, out, "Economy (3)")
}

func TestSegmentCmd_StrictFailure(t *testing.T) {
	seg := segmentFixture()
	seg.strictErr = domain.ErrValidation
	setupServices(t, Services{SegmentationService: seg})

	_, err := execute(t, segmentText, "segment", "--strict", "-")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSegmentCmd_Document(t *testing.T) {
	seg := segmentFixture()
	setupServices(t, Services{SegmentationService: seg})

	out, err := execute(t, "", "segment", "--doc", "doc-1")
	require.NoError(t, err)

	assert.Equal(t, "doc-1", seg.savedDoc)
	assert.False(t, seg.strictCalled)
	assert.Contains(t, out, "Document doc-1: 2 topics")
	assert.Contains(t, out, "Sport>Football (1, 2)")
}

func TestSegmentCmd_PassesUserSettings(t *testing.T) {
	seg := segmentFixture()
	setupServices(t, Services{SegmentationService: seg})

	path := filepath.Join(t.TempDir(), "bob.yaml")
	require.NoError(t, os.WriteFile(path, []byte("owner: bob\nsettings:\n  interactive: ollama\n"), 0600))

	_, err := execute(t, segmentText, "--user-settings", path, "segment", "-")
	require.NoError(t, err)
	assert.Equal(t, "ollama", seg.lastSettings["interactive"])
}

func TestSegmentCmd_RequiresInput(t *testing.T) {
	setupServices(t, Services{SegmentationService: segmentFixture()})

	_, err := execute(t, "", "segment")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file argument or --doc")
}

func TestSegmentCmd_MissingFile(t *testing.T) {
	setupServices(t, Services{SegmentationService: segmentFixture()})

	_, err := execute(t, "", "segment", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading input")
}

func TestFormatNumbers(t *testing.T) {
	assert.Equal(t, "", formatNumbers(nil))
	assert.Equal(t, "1, 2, 5", formatNumbers([]int{1, 2, 5}))
}
