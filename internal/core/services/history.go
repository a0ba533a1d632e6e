package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

const (
	// historyWindow is how many trailing turns are shown to the backend.
	historyWindow = 6

	// assistantExcerptRunes bounds assistant turns in prompts.
	assistantExcerptRunes = 200
)

// validateHistory rejects turns with an unknown role.
func validateHistory(history []domain.ConversationTurn) error {
	for i, turn := range history {
		if !turn.Role.IsValid() {
			return fmt.Errorf("%w: history turn %d has role %q", domain.ErrInvalidInput, i, turn.Role)
		}
	}
	return nil
}

// recentTurns returns the last historyWindow turns.
func recentTurns(history []domain.ConversationTurn) []domain.ConversationTurn {
	if len(history) <= historyWindow {
		return history
	}
	return history[len(history)-historyWindow:]
}

// formatHistory renders the recent turns as "Role: content" lines.
// Assistant turns are cut to assistantExcerptRunes; ellipsis marks the cut.
func formatHistory(history []domain.ConversationTurn, ellipsis bool) string {
	turns := recentTurns(history)
	if len(turns) == 0 {
		return ""
	}

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		content := turn.Content
		if turn.Role == domain.RoleAssistant {
			var cut bool
			content, cut = truncateRunes(content, assistantExcerptRunes)
			if cut && ellipsis {
				content += "..."
			}
		}
		lines = append(lines, turn.Role.Label()+": "+content)
	}
	return strings.Join(lines, "\n")
}

// truncateRunes returns the first n runes of s and whether anything was cut.
func truncateRunes(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:n]), true
}
