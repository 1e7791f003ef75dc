package file

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// userSettingsFile is the on-disk shape of a per-user settings file:
//
//	owner: alice
//	settings:
//	  interactive: anthropic
//	  batch-worker: openai
//	  batch-worker_model: gpt-4o-mini
type userSettingsFile struct {
	Owner    string            `yaml:"owner"`
	Settings map[string]string `yaml:"settings"`
}

// LoadUserSettings reads an owner and their provider settings from a YAML file.
// An empty path yields no owner and empty settings.
func LoadUserSettings(path string) (string, domain.UserSettings, error) {
	if path == "" {
		return "", domain.UserSettings{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading user settings: %w", err)
	}

	var f userSettingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("%w: parsing user settings %s: %w", domain.ErrInvalidInput, path, err)
	}

	settings := domain.UserSettings{}
	for k, v := range f.Settings {
		settings[k] = v
	}
	return f.Owner, settings, nil
}

// SaveUserSettings writes an owner and settings in the LoadUserSettings format.
func SaveUserSettings(path, owner string, settings domain.UserSettings) error {
	data, err := yaml.Marshal(userSettingsFile{Owner: owner, Settings: settings})
	if err != nil {
		return fmt.Errorf("encoding user settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing user settings: %w", err)
	}
	return nil
}
