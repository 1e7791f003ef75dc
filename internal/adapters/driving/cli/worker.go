package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
)

var (
	workerQueues []string
	workerCount  int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume work queues until interrupted",
	Long: `Starts queue consumers. Each consumer claims one record at a time, so
several workers, on this host or others sharing the queue backend, never
process the same record twice. Stops on SIGINT or SIGTERM; a record
interrupted mid-flight is put back on its queue.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().StringSliceVar(&workerQueues, "queue",
		[]string{domain.QueueTagging, domain.QueueTasks}, "queues to consume")
	workerCmd.Flags().IntVar(&workerCount, "concurrency", 1, "consumers per queue")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	if newWorker == nil {
		return errors.New("worker factory not configured")
	}
	if workerCount < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1", domain.ErrInvalidInput)
	}

	var workers []driving.Worker
	for _, queue := range workerQueues {
		for i := 0; i < workerCount; i++ {
			w, err := newWorker(queue)
			if err != nil {
				return fmt.Errorf("failed to create worker for %s: %w", queue, err)
			}
			workers = append(workers, w)
		}
	}

	sigCtx, stop := signalContext()
	defer stop()
	// one consumer exiting takes the others down with it
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	cmd.Printf("Starting %d workers on %v...\n", len(workers), workerQueues)

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error {
			defer cancel()
			return w.Start(gctx)
		})
	}
	go func() {
		<-gctx.Done()
		for _, w := range workers {
			_ = w.Stop()
		}
	}()

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker stopped: %w", err)
	}
	cmd.Println("Workers stopped.")
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
