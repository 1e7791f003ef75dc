package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
)

var (
	docOwner string
	docID    string
	docTag   bool
)

var documentCmd = &cobra.Command{
	Use:     "doc",
	Aliases: []string{"document"},
	Short:   "Import and inspect documents",
	Long: `Import HTML, Markdown or plain text files as documents and show the tags
and topic groups derived from them.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Import files as documents",
	Long: `Normalises each file by its extension and stores it as a document of the
owner. With --tag the document is also pushed onto the tagging queue.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocumentAdd,
}

var documentShowCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Show a document with its tags and groups",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

func init() {
	documentAddCmd.Flags().StringVar(&docOwner, "owner", "", "owner of the documents (defaults to the user settings owner)")
	documentAddCmd.Flags().StringVar(&docID, "id", "", "document ID (single file only)")
	documentAddCmd.Flags().BoolVar(&docTag, "tag", false, "enqueue the documents for tagging")

	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentShowCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	if docID != "" && len(args) > 1 {
		return errors.New("--id can only be used with a single file")
	}

	owner, _, err := userSettings()
	if err != nil {
		return err
	}
	if docOwner != "" {
		owner = docOwner
	}

	ctx := context.Background()
	for _, path := range args {
		text, err := readInput(cmd, path)
		if err != nil {
			return err
		}
		doc, err := documentService.Import(ctx, owner, path, []byte(text), importOptions())
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		cmd.Printf("Imported %s as %s\n", path, doc.ID)
	}
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	text, err := doc.Text()
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	cmd.Printf("Document %s\n", doc.ID)
	cmd.Printf("  Title: %s\n", doc.Title)
	cmd.Printf("  Owner: %s\n", doc.Owner)
	cmd.Printf("  Length: %d bytes\n", len(text))
	if len(doc.Tags) > 0 {
		cmd.Printf("  Tags: %s\n", strings.Join(doc.Tags, ", "))
	}
	if len(doc.Groups) > 0 {
		cmd.Println()
		cmd.Println("[Groups]")
		for _, topic := range doc.Groups.Topics() {
			cmd.Printf("  %s: %s\n", topic, formatNumbers(doc.Groups[topic]))
		}
	}
	return nil
}

func importOptions() driving.ImportOptions {
	return driving.ImportOptions{ID: docID, EnqueueTagging: docTag}
}
