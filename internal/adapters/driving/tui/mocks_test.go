package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

type askCall struct {
	question string
	history  []domain.ConversationTurn
}

// mockChat returns answers in order and records every call.
type mockChat struct {
	mu      sync.Mutex
	answers []*domain.Answer
	err     error
	calls   []askCall
}

func (m *mockChat) Ask(_ context.Context, question string, history []domain.ConversationTurn) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, askCall{question: question, history: history})
	if m.err != nil {
		return nil, m.err
	}
	if len(m.answers) == 0 {
		return &domain.Answer{Text: "ok", Sources: []domain.Citation{}}, nil
	}
	a := m.answers[0]
	m.answers = m.answers[1:]
	return a, nil
}

type mockIngest struct {
	status *domain.IndexStatus
	err    error
}

func (m *mockIngest) IngestAll(context.Context, []domain.DocumentRef) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, nil
}

func (m *mockIngest) IngestFolder(context.Context) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, nil
}

func (m *mockIngest) IngestOne(context.Context, string) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, nil
}

func (m *mockIngest) Reindex(context.Context) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, nil
}

func (m *mockIngest) ClearIndex(context.Context) error { return nil }

func (m *mockIngest) IndexExists() bool { return m.status != nil && m.status.Exists }

func (m *mockIngest) Status(context.Context) (*domain.IndexStatus, error) {
	return m.status, m.err
}
