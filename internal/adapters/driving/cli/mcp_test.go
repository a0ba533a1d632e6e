package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/mcp"
)

func TestMCPServeCmd_Flags(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	if assert.NotNil(t, flag) {
		assert.Equal(t, "p", flag.Shorthand)
		assert.Equal(t, "0", flag.DefValue)
	}
}

func TestMCPServeCmd_RequiresChat(t *testing.T) {
	setupTestServices(t)
	chatService = nil

	_, err := execute(t, "", "mcp", "serve")

	assert.ErrorIs(t, err, mcp.ErrMissingChatService)
}
