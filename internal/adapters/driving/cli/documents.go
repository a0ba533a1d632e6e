package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List documents in the folder",
	Long: `List the documents in the configured folder and whether each one is
indexed. A document modified since it was indexed is marked stale.`,
	Args: cobra.NoArgs,
	RunE: runDocuments,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "Print the list as JSON")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return err
	}

	if documentsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found in the folder.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tMODIFIED\tINDEXED")
	indexed := 0
	for _, d := range docs {
		state := "no"
		switch {
		case d.Indexed && d.Stale:
			state = fmt.Sprintf("stale (%d passages)", d.Chunks)
			indexed++
		case d.Indexed:
			state = fmt.Sprintf("yes (%d passages)", d.Chunks)
			indexed++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.ID, d.ModifiedTime, state)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	cmd.Printf("\nTotal: %d documents, %d indexed\n", len(docs), indexed)
	return nil
}
