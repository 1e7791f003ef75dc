package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

var (
	tagsDocID string
	tagsWords bool
)

var tagsCmd = &cobra.Command{
	Use:   "tags [file]",
	Short: "Extract tags from a text",
	Long: `Extracts stemmed tags from a text. Reads the file argument, or stdin
when it is "-". With --doc, a stored document is tagged and its tags and
lemmas are saved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTags,
}

func init() {
	tagsCmd.Flags().StringVar(&tagsDocID, "doc", "", "tag a stored document by ID")
	tagsCmd.Flags().BoolVar(&tagsWords, "words", false, "show the surface forms of each tag")
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	if taggingService == nil {
		return errors.New("tagging service not configured")
	}

	var (
		result *domain.TagResult
		err    error
	)
	switch {
	case tagsDocID != "":
		result, err = taggingService.TagDocument(context.Background(), tagsDocID)
	case len(args) == 1:
		var text string
		text, err = readInput(cmd, args[0])
		if err != nil {
			return err
		}
		result, err = taggingService.Tag(text)
	default:
		return errors.New("a file argument or --doc is required")
	}
	if err != nil {
		return fmt.Errorf("tagging failed: %w", err)
	}

	if len(result.Tags) == 0 {
		cmd.Println("No tags found.")
		return nil
	}

	cmd.Printf("%d tags\n", len(result.Tags))
	for _, tag := range result.Tags {
		if tagsWords {
			cmd.Printf("  %s: %s\n", tag, strings.Join(result.Words[tag], ", "))
		} else {
			cmd.Printf("  %s\n", tag)
		}
	}
	return nil
}
