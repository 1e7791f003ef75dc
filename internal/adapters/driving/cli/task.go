package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

var (
	taskType         string
	taskOwner        string
	taskHistoryLimit int
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage LLM tasks",
	Long: `Create and inspect tasks. A task is a persisted unit of LLM work that
workers consume from the tasks queue and drive through its batch steps.`,
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <item>...",
	Short: "Create a task and enqueue it",
	Long: `Creates a task over the given items and enqueues it for workers.

Types:
  post_grouping        - items are document IDs to segment into topics
  tags_classification  - items are tags to assign categories to`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTaskCreate,
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show task progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskStatus,
}

var taskRunCmd = &cobra.Command{
	Use:   "run <task-id>",
	Short: "Drive a task to completion in the foreground",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRun,
}

func init() {
	taskCreateCmd.Flags().StringVar(&taskType, "type", string(domain.TaskTypePostGrouping), "task type")
	taskCreateCmd.Flags().StringVar(&taskOwner, "owner", "", "owner of the items (defaults to the user settings owner)")
	taskStatusCmd.Flags().IntVar(&taskHistoryLimit, "history", 5, "number of recent executions to show")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskRunCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	if taskService == nil {
		return errors.New("task service not configured")
	}

	owner, settings, err := userSettings()
	if err != nil {
		return err
	}
	if taskOwner != "" {
		owner = taskOwner
	}

	task, err := taskService.CreateTask(context.Background(), domain.TaskType(taskType), owner, args, settings)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	cmd.Printf("Task created: %s\n", task.ID)
	cmd.Printf("  Type: %s\n", task.Type)
	cmd.Printf("  Items: %d\n", len(task.Items()))
	return nil
}

func runTaskStatus(cmd *cobra.Command, args []string) error {
	if taskService == nil {
		return errors.New("task service not configured")
	}

	ctx := context.Background()
	task, err := taskService.GetTask(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}

	cmd.Printf("Task %s\n", task.ID)
	cmd.Printf("  Type: %s\n", task.Type)
	cmd.Printf("  Owner: %s\n", task.Owner)
	cmd.Printf("  Status: %s\n", task.Status)
	if task.Error != "" {
		cmd.Printf("  Error: %s\n", task.Error)
	}
	cmd.Printf("  Items: %s\n", strings.Join(task.Items(), ", "))

	b := task.Batch
	cmd.Println()
	cmd.Println("[Batch]")
	cmd.Printf("  Step: %s\n", b.Step)
	cmd.Printf("  Status: %s\n", b.Status)
	if b.Provider != "" {
		cmd.Printf("  Provider: %s\n", b.Provider)
	}
	if b.BatchID != "" {
		cmd.Printf("  Batch ID: %s\n", b.BatchID)
	}
	if !b.LastCheck.IsZero() {
		cmd.Printf("  Last check: %s\n", b.LastCheck.Format(time.RFC3339))
	}
	if b.FailureReason != "" {
		cmd.Printf("  Failure: %s\n", b.FailureReason)
	}

	if taskHistoryLimit <= 0 {
		return nil
	}
	history, err := taskService.History(ctx, task.ID, taskHistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if len(history) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("[History]")
	for _, h := range history {
		outcome := "ok"
		if !h.Success {
			outcome = "failed: " + h.Error
		}
		cmd.Printf("  %s  %s  items=%d  %s\n",
			h.StartedAt.Format(time.RFC3339), h.EndedAt.Sub(h.StartedAt).Round(time.Millisecond),
			h.ItemsProcessed, outcome)
	}
	return nil
}

func runTaskRun(cmd *cobra.Command, args []string) error {
	if taskService == nil {
		return errors.New("task service not configured")
	}

	ctx, stop := signalContext()
	defer stop()

	cmd.Printf("Running task %s...\n", args[0])
	n, err := taskService.RunTask(ctx, args[0])
	if err != nil {
		return fmt.Errorf("task failed: %w", err)
	}
	cmd.Printf("Task %s finished: %d items processed.\n", args[0], n)
	return nil
}
