package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

var (
	askHistoryFile string
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long: `Ask one question about the indexed documents and print the answer with
its sources.

Earlier turns can be supplied as a JSON file so follow-up questions are
understood in context:

  [
    {"role": "user", "content": "What is meditation good for?"},
    {"role": "assistant", "content": "It reduces stress."}
  ]

Examples:
  askdocs ask "What is the refund policy?"
  askdocs ask "and for annual plans?" --history turns.json
  askdocs ask "Who approves expenses?" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askHistoryFile, "history", "", "JSON file with prior conversation turns")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	history, err := loadHistory(askHistoryFile)
	if err != nil {
		return err
	}

	answer, err := chatService.Ask(cmd.Context(), question, history)
	if err != nil {
		return err
	}

	if askJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	printAnswer(cmd.OutOrStdout(), answer)
	return nil
}

// loadHistory reads conversation turns from path. An empty path means no history.
func loadHistory(path string) ([]domain.ConversationTurn, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading history: %w", domain.ErrInvalidInput, err)
	}

	var turns []domain.ConversationTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("%w: parsing history %s: %w", domain.ErrInvalidInput, path, err)
	}
	for i, t := range turns {
		if !t.Role.IsValid() {
			return nil, fmt.Errorf("%w: history turn %d has role %q, want user or assistant",
				domain.ErrInvalidInput, i+1, t.Role)
		}
	}
	return turns, nil
}

func printAnswer(w io.Writer, a *domain.Answer) {
	if a.RephrasedQuery != "" {
		fmt.Fprintf(w, "(searched for: %s)\n\n", a.RephrasedQuery)
	}
	fmt.Fprintln(w, a.Text)

	if len(a.Sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for i, s := range a.SourceStrings() {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, s)
	}
}
