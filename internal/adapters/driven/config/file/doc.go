// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based engine configuration
//   - PromptStore: user-editable prompt templates
//   - UserSettings: YAML per-user provider settings
package file
