package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage engine settings",
	Long: `View and configure providers, batch polling, segmentation, the queue
backend and worker back-off.

Settings are stored as flat dotted keys in ~/.sercha-segmenter/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one setting",
	Long: `Set one setting by key. Examples:

  segmenter settings set router.default_provider anthropic
  segmenter settings set batch.poll_interval_seconds 120
  segmenter settings set llm.ollama.base_url http://localhost:11434`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider>",
	Short: "Store a provider API key",
	Long:  `Prompts for the API key of a cloud provider without echoing it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetKey,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings and reach every configured provider",
	RunE:  runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section := ""
	for _, e := range settingsService.Entries() {
		if s, _, _ := strings.Cut(e.Key, "."); s != section {
			section = s
			cmd.Println()
			cmd.Printf("[%s]\n", section)
		}
		value := e.Value
		if value == "" {
			value = "(not set)"
		}
		marker := ""
		if !e.IsSet {
			marker = " (default)"
		}
		cmd.Printf("  %s: %s%s\n", e.Key, value, marker)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s updated.\n", args[0])
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(args[0])
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("%w: %s does not use an API key", domain.ErrInvalidInput, args[0])
	}

	cmd.Printf("API key for %s: ", provider.Description())
	key := readPassword(cmd.InOrStdin())
	cmd.Println()
	if key == "" {
		return errors.New("API key is required")
	}

	if err := settingsService.SetAPIKey(provider, key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	cmd.Printf("API key for %s saved.\n", provider)
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	results := settingsService.ValidateProviders()
	providers := make([]string, 0, len(results))
	for p := range results {
		providers = append(providers, string(p))
	}
	sort.Strings(providers)

	failed := 0
	for _, p := range providers {
		if err := results[domain.AIProvider(p)]; err != nil {
			failed++
			cmd.Printf("  %s: %v\n", p, err)
			continue
		}
		cmd.Printf("  %s: ok\n", p)
	}
	if failed > 0 {
		return fmt.Errorf("%d providers unreachable", failed)
	}
	cmd.Println("Settings are valid.")
	return nil
}

// readPassword reads a line without echo when in is the terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
