package driving

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// ChatService answers questions over the indexed documents.
// It is stateless: callers pass the conversation history on every call.
type ChatService interface {
	// Ask answers question given the prior turns of the conversation.
	Ask(ctx context.Context, question string, history []domain.ConversationTurn) (*domain.Answer, error)
}
