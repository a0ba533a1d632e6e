package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/services"
)

type mockChatService struct {
	answers   []*domain.Answer
	err       error
	questions []string
	histories [][]domain.ConversationTurn
}

func (m *mockChatService) Ask(_ context.Context, q string, history []domain.ConversationTurn) (*domain.Answer, error) {
	m.questions = append(m.questions, q)
	m.histories = append(m.histories, history)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.answers) == 0 {
		return &domain.Answer{Text: "answer to " + q, Sources: []domain.Citation{}}, nil
	}
	a := m.answers[0]
	m.answers = m.answers[1:]
	return a, nil
}

type mockIngestService struct {
	result   *domain.IngestResult
	status   *domain.IndexStatus
	err      error
	clearErr error
	calls    []string
}

func (m *mockIngestService) record(call string) (*domain.IngestResult, error) {
	m.calls = append(m.calls, call)
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.IngestResult{}, nil
	}
	return m.result, nil
}

func (m *mockIngestService) IngestAll(_ context.Context, _ []domain.DocumentRef) (*domain.IngestResult, error) {
	return m.record("all")
}

func (m *mockIngestService) IngestFolder(_ context.Context) (*domain.IngestResult, error) {
	return m.record("folder")
}

func (m *mockIngestService) IngestOne(_ context.Context, id string) (*domain.IngestResult, error) {
	return m.record("one:" + id)
}

func (m *mockIngestService) Reindex(_ context.Context) (*domain.IngestResult, error) {
	return m.record("reindex")
}

func (m *mockIngestService) ClearIndex(_ context.Context) error {
	m.calls = append(m.calls, "clear")
	return m.clearErr
}

func (m *mockIngestService) IndexExists() bool {
	return m.status != nil && m.status.Exists
}

func (m *mockIngestService) Status(_ context.Context) (*domain.IndexStatus, error) {
	if m.status == nil {
		return &domain.IndexStatus{}, m.err
	}
	return m.status, m.err
}

type mockDocumentService struct {
	docs []domain.DocumentInfo
	err  error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return m.docs, m.err
}

type testServices struct {
	chat      *mockChatService
	ingest    *mockIngestService
	documents *mockDocumentService
	settings  *services.SettingsService
}

// setupTestServices installs mocks and an in-memory settings service
// for the duration of the test.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		chat:      &mockChatService{},
		ingest:    &mockIngestService{},
		documents: &mockDocumentService{},
		settings: services.NewSettingsService(memory.NewConfigStore(), nil,
			services.WithEnv(func(string) string { return "" }),
			services.WithDefaultIndexDir(t.TempDir())),
	}

	prevBootstrap := bootstrap
	bootstrap = nil
	SetServices(&Services{
		Chat:      ts.chat,
		Ingest:    ts.ingest,
		Documents: ts.documents,
		Settings:  ts.settings,
	})
	t.Cleanup(func() {
		bootstrap = prevBootstrap
		SetServices(nil)
	})
	return ts
}

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	askHistoryFile, askJSON, documentsJSON, chatPlain = "", false, false, false
	verbose, configDir = false, ""

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
