package cli

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestChatCmd_LineModeCarriesHistory(t *testing.T) {
	ts := setupTestServices(t)
	ts.chat.answers = []*domain.Answer{
		{Text: "Meditation reduces stress."},
		{Text: "It also improves focus.", RephrasedQuery: "What are the benefits of meditation?"},
	}

	out, err := execute(t, "What is meditation good for?\n\nbenefits?\n", "chat")

	require.NoError(t, err)
	require.Len(t, ts.chat.histories, 2)
	assert.Empty(t, ts.chat.histories[0])
	assert.Equal(t, []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "What is meditation good for?"},
		{Role: domain.RoleAssistant, Content: "Meditation reduces stress."},
	}, ts.chat.histories[1])
	assert.Contains(t, out, "(searched for: What are the benefits of meditation?)")
	assert.Contains(t, out, "It also improves focus.")
}

func TestChatCmd_ResetAndQuit(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "first question\n/reset\nsecond question\n/quit\nnever asked\n", "chat")

	require.NoError(t, err)
	assert.Equal(t, []string{"first question", "second question"}, ts.chat.questions)
	assert.Empty(t, ts.chat.histories[1])
	assert.Contains(t, out, "Started a new conversation.")
}

func TestChatCmd_ErrorsDoNotEndConversation(t *testing.T) {
	ts := setupTestServices(t)
	ts.chat.err = fmt.Errorf("groq: %w", domain.ErrRateLimited)

	out, err := execute(t, "one\ntwo\n", "chat")

	require.NoError(t, err)
	assert.Len(t, ts.chat.questions, 2)
	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, domain.Classify(domain.ErrRateLimited).Remediation)
}
