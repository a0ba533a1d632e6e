package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil ports", func(t *testing.T) {
		var ports *Ports
		assert.ErrorIs(t, ports.Validate(), ErrMissingChatService)
	})

	t.Run("chat only is valid", func(t *testing.T) {
		ports := &Ports{Chat: &mockChatService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Chat:      &mockChatService{},
			Ingest:    &mockIngestService{},
			Documents: &mockDocumentService{},
		}
		assert.NoError(t, ports.Validate())
	})
}

// connect starts server over an in-memory transport and returns a client session.
func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func toolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestServer_ToolsFollowPorts(t *testing.T) {
	t.Run("chat only", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"ask"}, toolNames(t, connect(t, server)))
	})

	t.Run("all ports", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Chat:      &mockChatService{},
			Ingest:    &mockIngestService{},
			Documents: &mockDocumentService{},
		})
		require.NoError(t, err)

		assert.ElementsMatch(t,
			[]string{"ask", "index_folder", "index_status", "list_documents"},
			toolNames(t, connect(t, server)))
	})
}

func TestServer_CallAsk(t *testing.T) {
	chat := &mockChatService{answer: &domain.Answer{
		Text:    "Employees get 25 days of leave.",
		Sources: []domain.Citation{{DocumentID: "d1", DocumentName: "Handbook", Excerpt: "Annual leave"}},
	}}
	server, err := NewServer(&Ports{Chat: chat})
	require.NoError(t, err)

	res, err := connect(t, server).CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "ask",
		Arguments: map[string]any{"question": "How much leave do I get?"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "How much leave do I get?", chat.question)
}
