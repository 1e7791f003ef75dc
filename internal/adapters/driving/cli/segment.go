package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

var (
	segmentStrict bool
	segmentDocID  string
)

var segmentCmd = &cobra.Command{
	Use:   "segment [file]",
	Short: "Group the sentences of a text into topics",
	Long: `Splits a text into sentences and asks the interactive provider to group
them into topics. Reads the file argument, or stdin when it is "-".

By default segmentation is best effort: any failure degrades to a single
"Main Content" group. With --strict, invalid answers are regenerated and a
final failure is reported as an error.

With --doc, a stored document is segmented and its groups are saved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().BoolVar(&segmentStrict, "strict", false, "validate the answer and fail instead of degrading")
	segmentCmd.Flags().StringVar(&segmentDocID, "doc", "", "segment a stored document by ID")
	rootCmd.AddCommand(segmentCmd)
}

func runSegment(cmd *cobra.Command, args []string) error {
	if segmentationService == nil {
		return errors.New("segmentation service not configured")
	}

	_, settings, err := userSettings()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if segmentDocID != "" {
		groups, err := segmentationService.SegmentDocument(ctx, segmentDocID, settings, segmentStrict)
		if err != nil {
			return fmt.Errorf("segmentation failed: %w", err)
		}
		cmd.Printf("Document %s: %d topics\n", segmentDocID, len(groups))
		printGroups(cmd, groups, "", nil)
		return nil
	}

	if len(args) == 0 {
		return errors.New("a file argument or --doc is required")
	}
	text, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	var (
		groups    domain.Groups
		sentences []domain.Sentence
	)
	if segmentStrict {
		groups, sentences, err = segmentationService.SegmentStrict(ctx, text, settings)
		if err != nil {
			return fmt.Errorf("segmentation failed: %w", err)
		}
	} else {
		groups, sentences = segmentationService.Segment(ctx, text, settings)
	}

	cmd.Printf("%d sentences, %d topics\n", len(sentences), len(groups))
	printGroups(cmd, groups, text, sentences)
	return nil
}

// printGroups lists every topic with its sentence numbers and, when the
// text is known, the sentences themselves.
func printGroups(cmd *cobra.Command, groups domain.Groups, text string, sentences []domain.Sentence) {
	byNumber := make(map[int]domain.Sentence, len(sentences))
	for _, s := range sentences {
		byNumber[s.Number] = s
	}

	for _, topic := range groups.Topics() {
		nums := groups[topic]
		cmd.Printf("\n%s (%s)\n", topic, formatNumbers(nums))
		for _, n := range nums {
			s, ok := byNumber[n]
			if !ok {
				continue
			}
			cmd.Printf("  %d. %s\n", n, text[s.Start:s.End])
		}
	}
}

func formatNumbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

// readInput reads a whole file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}
