package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/logger"
)

var chatPlain bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start a conversation about the indexed documents. Follow-up questions
are answered in the context of earlier turns.

In a terminal this opens the full-screen chat:
  Enter   - Send question
  Ctrl+N  - New conversation
  Ctrl+O  - Show/hide sources
  Esc     - Quit

With --plain, or when input is piped, questions are read line by line.
Type /reset to start a new conversation and /quit to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "Use line mode instead of the full-screen chat")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}

	if chatPlain || !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout()) {
		return runLineChat(cmd, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	model, err := tui.New(&tui.Ports{Chat: chatService, Ingest: ingestService})
	if err != nil {
		return err
	}
	model.WithContext(cmd.Context())

	// Log lines would tear the full-screen view.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

// runLineChat reads questions from in until EOF or /quit.
func runLineChat(cmd *cobra.Command, in io.Reader, out io.Writer) error {
	var history []domain.ConversationTurn

	fmt.Fprintln(out, "Ask a question about your documents. /reset starts over, /quit exits.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			history = nil
			fmt.Fprintln(out, "Started a new conversation.")
			continue
		}

		answer, err := chatService.Ask(cmd.Context(), question, history)
		if err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			printError(out, err)
			continue
		}

		fmt.Fprintln(out)
		printAnswer(out, answer)
		fmt.Fprintln(out)

		history = append(history,
			domain.ConversationTurn{Role: domain.RoleUser, Content: question},
			domain.ConversationTurn{Role: domain.RoleAssistant, Content: answer.Text},
		)
	}
}
