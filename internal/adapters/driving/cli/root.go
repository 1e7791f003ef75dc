// Package cli implements the segmenter command line on top of the driving ports.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-segmenter/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-segmenter/internal/logger"
)

// WorkerFactory builds a consumer for the named queue.
type WorkerFactory func(queue string) (driving.Worker, error)

// Services holds the core services the commands drive.
type Services struct {
	SettingsService     driving.SettingsService
	SegmentationService driving.SegmentationService
	TaggingService      driving.TaggingService
	TaskService         driving.TaskService
	DocumentService     driving.DocumentService
	WorkQueue           driven.WorkQueue
	NewWorker           WorkerFactory
}

var (
	settingsService     driving.SettingsService
	segmentationService driving.SegmentationService
	taggingService      driving.TaggingService
	taskService         driving.TaskService
	documentService     driving.DocumentService
	workQueue           driven.WorkQueue
	newWorker           WorkerFactory

	verbose          bool
	userSettingsPath string
)

var rootCmd = &cobra.Command{
	Use:   "segmenter",
	Short: "Topic segmentation and tagging engine",
	Long: `Segmenter splits documents into sentences, groups them into topics with
an LLM, extracts tags and runs long-lived batch tasks from a shared queue.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&userSettingsPath, "user-settings", "",
		"YAML file with the owner and their provider settings")
}

// Configure installs the services used by the commands.
func Configure(s Services) {
	settingsService = s.SettingsService
	segmentationService = s.SegmentationService
	taggingService = s.TaggingService
	taskService = s.TaskService
	documentService = s.DocumentService
	workQueue = s.WorkQueue
	newWorker = s.NewWorker
}

// Execute runs the root command with the given version string.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// userSettings loads the --user-settings file, if any.
func userSettings() (string, domain.UserSettings, error) {
	return file.LoadUserSettings(userSettingsPath)
}
