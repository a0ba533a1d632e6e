package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and manage the document index",
	Long: `Build the similarity index from the configured folder and manage it.

Indexing lists the folder, splits each document into passages, embeds them
and saves the index. Documents that cannot be read are reported and skipped.`,
}

var indexAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Index every document in the folder",
	Long:  `Index every document in the configured folder, replacing the existing index.`,
	Args:  cobra.NoArgs,
	RunE:  runIndexAll,
}

var indexDocCmd = &cobra.Command{
	Use:   "doc <document-id>",
	Short: "Add one document to the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexDoc,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Forget indexed documents and index the folder again",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the index",
	Args:  cobra.NoArgs,
	RunE:  runIndexClear,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the index and the last run",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

func init() {
	indexCmd.AddCommand(indexAllCmd)
	indexCmd.AddCommand(indexDocCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexClearCmd)
	indexCmd.AddCommand(indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexAll(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	cmd.Println("Indexing folder...")
	result, err := ingestService.IngestFolder(cmd.Context())
	if err != nil {
		return err
	}
	printIngestResult(cmd.OutOrStdout(), result)
	return nil
}

func runIndexDoc(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	result, err := ingestService.IngestOne(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printIngestResult(cmd.OutOrStdout(), result)
	return nil
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	cmd.Println("Rebuilding index...")
	result, err := ingestService.Reindex(cmd.Context())
	if err != nil {
		return err
	}
	printIngestResult(cmd.OutOrStdout(), result)
	return nil
}

func runIndexClear(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	if err := ingestService.ClearIndex(cmd.Context()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: there is no index to clear", domain.ErrNotFound)
		}
		return err
	}
	cmd.Println("Index cleared.")
	return nil
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	status, err := ingestService.Status(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Println("Index Status")
	cmd.Println("============")
	if status.Exists {
		cmd.Printf("  Passages:   %d\n", status.Passages)
		cmd.Printf("  Dimension:  %d\n", status.Dimension)
	} else {
		cmd.Println("  No index yet. Run 'askdocs index all' to build one.")
	}
	cmd.Printf("  Documents:  %d\n", status.Documents)

	if run := status.LastRun; run != nil {
		cmd.Println()
		cmd.Println("Last Run")
		cmd.Printf("  ID:         %s\n", run.ID)
		cmd.Printf("  Kind:       %s\n", run.Kind)
		cmd.Printf("  Status:     %s\n", run.Status)
		cmd.Printf("  Started:    %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		if !run.FinishedAt.IsZero() {
			cmd.Printf("  Duration:   %s\n", run.Duration().Round(time.Millisecond))
		}
		cmd.Printf("  Passages:   %d from %d documents\n", run.ChunksIndexed, run.DocumentsProcessed)
		if len(run.Failures) > 0 {
			cmd.Printf("  Failures:   %d\n", len(run.Failures))
		}
		if run.Error != "" {
			cmd.Printf("  Error:      %s\n", run.Error)
		}
	}
	return nil
}

func printIngestResult(w io.Writer, r *domain.IngestResult) {
	fmt.Fprintf(w, "Indexed %d passages from %d documents.\n", r.ChunksIndexed, r.DocumentsProcessed)

	if len(r.FailedDocuments) > 0 {
		fmt.Fprintf(w, "\n%d documents could not be indexed:\n", len(r.FailedDocuments))
		for _, f := range r.FailedDocuments {
			name := f.DocumentName
			if name == "" {
				name = f.DocumentID
			}
			fmt.Fprintf(w, "  - %s: %s\n", name, f.Reason)
		}
	}
	if r.RunID != "" {
		fmt.Fprintf(w, "\nRun: %s\n", r.RunID)
	}
}
