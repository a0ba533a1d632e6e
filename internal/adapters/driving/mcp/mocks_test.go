package mcp

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer   *domain.Answer
	err      error
	question string
	history  []domain.ConversationTurn
}

func (m *mockChatService) Ask(
	_ context.Context,
	question string,
	history []domain.ConversationTurn,
) (*domain.Answer, error) {
	m.question = question
	m.history = history
	if m.err != nil {
		return nil, m.err
	}
	if m.answer == nil {
		return &domain.Answer{Sources: []domain.Citation{}}, nil
	}
	return m.answer, nil
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result     *domain.IngestResult
	status     *domain.IndexStatus
	err        error
	ingestedID string
	folderRuns int
}

func (m *mockIngestService) IngestAll(_ context.Context, _ []domain.DocumentRef) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestService) IngestFolder(_ context.Context) (*domain.IngestResult, error) {
	m.folderRuns++
	return m.result, m.err
}

func (m *mockIngestService) IngestOne(_ context.Context, id string) (*domain.IngestResult, error) {
	m.ingestedID = id
	return m.result, m.err
}

func (m *mockIngestService) Reindex(_ context.Context) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestService) ClearIndex(_ context.Context) error {
	return m.err
}

func (m *mockIngestService) IndexExists() bool {
	return m.status != nil && m.status.Exists
}

func (m *mockIngestService) Status(_ context.Context) (*domain.IndexStatus, error) {
	return m.status, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.DocumentInfo
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return m.documents, m.err
}
