package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "askdocs://documents/doc-456",
			expected: "doc-456",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-456",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractDocumentID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func testDocuments() *mockDocumentService {
	return &mockDocumentService{documents: []domain.DocumentInfo{
		{DocumentRef: domain.DocumentRef{ID: "doc-1", Name: "README"}, Indexed: true, Chunks: 4},
		{DocumentRef: domain.DocumentRef{ID: "doc-2", Name: "Guide"}},
	}}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns documents successfully", func(t *testing.T) {
		server := newTestServer(t, &Ports{Chat: &mockChatService{}, Documents: testDocuments()})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("askdocs://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "doc-1")
		assert.Contains(t, result.Contents[0].Text, "README")
		assert.Contains(t, result.Contents[0].Text, "doc-2")
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("handles empty document list", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.DocumentInfo{}}
		server := newTestServer(t, &Ports{Chat: &mockChatService{}, Documents: docs})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("askdocs://documents"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		docs := &mockDocumentService{err: errors.New("storage error")}
		server := newTestServer(t, &Ports{Chat: &mockChatService{}, Documents: docs})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("askdocs://documents"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &Ports{Chat: &mockChatService{}, Documents: testDocuments()})

	t.Run("returns the document", func(t *testing.T) {
		result, err := server.handleDocumentResource(ctx, makeReadResourceRequest("askdocs://documents/doc-1"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"indexed": true`)
		assert.NotContains(t, result.Contents[0].Text, "doc-2")
	})

	t.Run("unknown document returns not found", func(t *testing.T) {
		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("askdocs://documents/missing"))
		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("askdocs://invalid/uri"))
		require.Error(t, err)
	})
}

func TestServer_handleStatusResource(t *testing.T) {
	ctx := context.Background()
	ingest := &mockIngestService{status: &domain.IndexStatus{Exists: true, Passages: 7, Dimension: 384}}
	server := newTestServer(t, &Ports{Chat: &mockChatService{}, Ingest: ingest})

	result, err := server.handleStatusResource(ctx, makeReadResourceRequest("askdocs://index/status"))

	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, `"passages": 7`)
	assert.Contains(t, result.Contents[0].Text, `"dimension": 384`)
}
