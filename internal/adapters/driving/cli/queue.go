package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and feed the work queues",
	Long: `Push records onto a named queue or show its length.

Known queues:
  tagging  - payloads are document IDs to tag
  tasks    - payloads are task IDs to run`,
}

var queuePushCmd = &cobra.Command{
	Use:   "push <queue> <payload>...",
	Short: "Append records to a queue",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runQueuePush,
}

var queueLenCmd = &cobra.Command{
	Use:   "len [queue]...",
	Short: "Show the number of waiting records",
	RunE:  runQueueLen,
}

func init() {
	queueCmd.AddCommand(queuePushCmd)
	queueCmd.AddCommand(queueLenCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueuePush(cmd *cobra.Command, args []string) error {
	if workQueue == nil {
		return errors.New("work queue not configured")
	}

	ctx := context.Background()
	queue := args[0]
	for _, payload := range args[1:] {
		id, err := workQueue.Enqueue(ctx, queue, payload)
		if err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", payload, err)
		}
		cmd.Printf("Enqueued %s on %s (%s)\n", payload, queue, id)
	}
	return nil
}

func runQueueLen(cmd *cobra.Command, args []string) error {
	if workQueue == nil {
		return errors.New("work queue not configured")
	}

	queues := args
	if len(queues) == 0 {
		queues = []string{domain.QueueTagging, domain.QueueTasks}
	}

	ctx := context.Background()
	for _, queue := range queues {
		n, err := workQueue.Len(ctx, queue)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", queue, err)
		}
		cmd.Printf("%s: %d\n", queue, n)
	}
	return nil
}
