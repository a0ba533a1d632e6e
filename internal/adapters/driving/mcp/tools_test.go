package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		chat := &mockChatService{answer: &domain.Answer{
			Text: "Meditation reduces stress.",
			Sources: []domain.Citation{
				{DocumentID: "doc-1", DocumentName: "Meditation Guide", Excerpt: "Meditation is", Distance: 0.2},
			},
			RephrasedQuery: "What are the benefits of meditation?",
		}}
		server := newTestServer(t, &Ports{Chat: chat})

		input := AskInput{
			Question: "benefits?",
			History: []TurnInput{
				{Role: "user", Content: "Tell me about meditation"},
				{Role: "Assistant", Content: "It is a practice."},
			},
		}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "Meditation reduces stress.", output.Answer)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "Meditation Guide", output.Sources[0].DocumentName)
		assert.Equal(t, 0.2, output.Sources[0].Distance)
		assert.Equal(t, "What are the benefits of meditation?", output.RephrasedQuery)

		assert.Equal(t, "benefits?", chat.question)
		assert.Equal(t, []domain.ConversationTurn{
			{Role: domain.RoleUser, Content: "Tell me about meditation"},
			{Role: domain.RoleAssistant, Content: "It is a practice."},
		}, chat.history)
	})

	t.Run("clarification has no sources", func(t *testing.T) {
		chat := &mockChatService{answer: &domain.Answer{
			Text:            "Could you be more specific?",
			Sources:         []domain.Citation{},
			IsClarification: true,
		}}
		server := newTestServer(t, &Ports{Chat: chat})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "hi?"})

		require.NoError(t, err)
		assert.True(t, output.IsClarification)
		assert.Empty(t, output.Sources)
	})

	t.Run("empty question is rejected", func(t *testing.T) {
		chat := &mockChatService{}
		server := newTestServer(t, &Ports{Chat: chat})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "  "})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid_input")
		assert.Empty(t, chat.question)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		server := newTestServer(t, &Ports{Chat: &mockChatService{}})

		_, _, err := server.handleAsk(ctx, nil, AskInput{
			Question: "What is the policy?",
			History:  []TurnInput{{Role: "system", Content: "x"}},
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), `"system"`)
	})

	t.Run("error carries remediation", func(t *testing.T) {
		chat := &mockChatService{err: fmt.Errorf("load: %w", domain.ErrIndexNotReady)}
		server := newTestServer(t, &Ports{Chat: chat})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "What is the policy?"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "index_not_ready")
		assert.Contains(t, err.Error(), "askdocs index all")
	})
}

func TestServer_handleIndexFolder(t *testing.T) {
	ctx := context.Background()
	result := &domain.IngestResult{
		RunID:              "run-1",
		ChunksIndexed:      12,
		DocumentsProcessed: 2,
		FailedDocuments:    []domain.FailedDocument{{DocumentID: "d3", DocumentName: "Empty", Reason: "empty"}},
	}

	t.Run("indexes the folder", func(t *testing.T) {
		ingest := &mockIngestService{result: result}
		server := newTestServer(t, &Ports{Chat: &mockChatService{}, Ingest: ingest})

		_, output, err := server.handleIndexFolder(ctx, nil, IndexFolderInput{})

		require.NoError(t, err)
		assert.Equal(t, 1, ingest.folderRuns)
		assert.Equal(t, "run-1", output.RunID)
		assert.Equal(t, 12, output.ChunksIndexed)
		assert.Equal(t, 2, output.DocumentsProcessed)
		assert.Len(t, output.FailedDocuments, 1)
	})

	t.Run("indexes one document", func(t *testing.T) {
		ingest := &mockIngestService{result: result}
		server := newTestServer(t, &Ports{Chat: &mockChatService{}, Ingest: ingest})

		_, _, err := server.handleIndexFolder(ctx, nil, IndexFolderInput{DocumentID: " doc-9 "})

		require.NoError(t, err)
		assert.Equal(t, "doc-9", ingest.ingestedID)
		assert.Zero(t, ingest.folderRuns)
	})

	t.Run("classifies failures", func(t *testing.T) {
		ingest := &mockIngestService{err: fmt.Errorf("list: %w: %w", domain.ErrSourceAccess, domain.ErrPermissionDenied)}
		server := newTestServer(t, &Ports{Chat: &mockChatService{}, Ingest: ingest})

		_, _, err := server.handleIndexFolder(ctx, nil, IndexFolderInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "source_access")
	})
}

func TestServer_handleIndexStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("reports last run", func(t *testing.T) {
		started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		ingest := &mockIngestService{status: &domain.IndexStatus{
			Exists:    true,
			Passages:  40,
			Documents: 5,
			LastRun: &domain.IngestRun{
				Kind:               domain.RunKindAll,
				Status:             domain.RunStatusCompleted,
				StartedAt:          started,
				ChunksIndexed:      40,
				DocumentsProcessed: 5,
			},
		}}
		server := newTestServer(t, &Ports{Chat: &mockChatService{}, Ingest: ingest})

		_, output, err := server.handleIndexStatus(ctx, nil, IndexStatusInput{})

		require.NoError(t, err)
		assert.True(t, output.Exists)
		assert.Equal(t, 40, output.Passages)
		assert.Equal(t, "all completed at 2025-03-01T12:00:00Z: 40 passages from 5 documents", output.LastRun)
	})

	t.Run("no index", func(t *testing.T) {
		ingest := &mockIngestService{status: &domain.IndexStatus{}}
		server := newTestServer(t, &Ports{Chat: &mockChatService{}, Ingest: ingest})

		_, output, err := server.handleIndexStatus(ctx, nil, IndexStatusInput{})

		require.NoError(t, err)
		assert.False(t, output.Exists)
		assert.Empty(t, output.LastRun)
	})
}

func TestServer_handleListDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("lists documents", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.DocumentInfo{
			{DocumentRef: domain.DocumentRef{ID: "d1", Name: "Handbook", ModifiedTime: "2025-03-01T12:00:00Z"}, Indexed: true},
			{DocumentRef: domain.DocumentRef{ID: "d2", Name: "Roadmap"}},
		}}
		server := newTestServer(t, &Ports{Chat: &mockChatService{}, Documents: docs})

		_, output, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "Handbook", output.Documents[0].Name)
		assert.True(t, output.Documents[0].Indexed)
		assert.False(t, output.Documents[1].Indexed)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		docs := &mockDocumentService{err: errors.New("drive down")}
		server := newTestServer(t, &Ports{Chat: &mockChatService{}, Documents: docs})

		_, _, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "drive down")
	})
}
