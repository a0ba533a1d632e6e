package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

const testDims = 64

// mockLLM answers each prompt kind with a scripted reply.
type mockLLM struct {
	mu       sync.Mutex
	clarity  func() (string, error)
	rephrase func() (string, error)
	answer   func() (string, error)
	requests []driven.CompletionRequest
}

func (m *mockLLM) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	var fn func() (string, error)
	switch {
	case strings.Contains(req.Prompt, "Reply with ONLY a JSON object"):
		fn = m.clarity
	case strings.Contains(req.Prompt, "STANDALONE QUESTION"):
		fn = m.rephrase
	case strings.Contains(req.Prompt, "DOCUMENT CONTENT"):
		fn = m.answer
	}
	if fn == nil {
		return "", errors.New("unexpected prompt")
	}
	return fn()
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) calls() []driven.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driven.CompletionRequest(nil), m.requests...)
}

func reply(s string) func() (string, error) {
	return func() (string, error) { return s, nil }
}

func fail(err error) func() (string, error) {
	return func() (string, error) { return "", err }
}

// mockSource is an in-memory document source.
type mockSource struct {
	docs     []domain.DocumentRef
	texts    map[string]string
	textErrs map[string]error
	listErr  error
	folders  []string
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) ListDocuments(_ context.Context, folder string) ([]domain.DocumentRef, error) {
	m.folders = append(m.folders, folder)
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.docs, nil
}

func (m *mockSource) GetDocumentText(_ context.Context, id string) (string, error) {
	if err := m.textErrs[id]; err != nil {
		return "", err
	}
	text, ok := m.texts[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

func (m *mockSource) GetDocumentMetadata(_ context.Context, id string) (domain.DocumentRef, error) {
	for _, d := range m.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.DocumentRef{}, domain.ErrNotFound
}

func (m *mockSource) Close() error { return nil }

// flakyEmbedder fails EmbedBatch for texts containing poison, or for the
// first failures calls.
type flakyEmbedder struct {
	*hashing.EmbeddingService
	mu       sync.Mutex
	poison   string
	failures int
	calls    int
}

func (e *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	n := e.calls
	e.mu.Unlock()

	if n <= e.failures {
		return nil, domain.ErrBackendUnavailable
	}
	for _, t := range texts {
		if e.poison != "" && strings.Contains(t, e.poison) {
			return nil, domain.ErrRateLimited
		}
	}
	return e.EmbeddingService.EmbedBatch(ctx, texts)
}

// rejectingEmbedder fails every EmbedBatch call with err.
type rejectingEmbedder struct {
	*hashing.EmbeddingService
	err   error
	calls int
}

func (e *rejectingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	e.calls++
	return nil, e.err
}

// stubRepo hands out a fixed index and ignores saves.
type stubRepo struct {
	idx driven.SimilarityIndex
	err error
}

func (r *stubRepo) New() driven.SimilarityIndex                          { return flat.New(testDims) }
func (r *stubRepo) Load(context.Context) (driven.SimilarityIndex, error) { return r.idx, r.err }
func (r *stubRepo) Save(context.Context, driven.SimilarityIndex) error   { return nil }
func (r *stubRepo) Exists() bool                                         { return r.err == nil }
func (r *stubRepo) Remove() (bool, error)                                { return false, nil }

func newTestPrompts(t *testing.T) *file.PromptStore {
	t.Helper()
	store, err := file.NewPromptStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func newTestEmbedder() *hashing.EmbeddingService {
	return hashing.NewEmbeddingService(testDims)
}

func newTestRepo(t *testing.T) *flat.Repository {
	t.Helper()
	return flat.NewRepository(t.TempDir(), "all_docs", testDims)
}

// Library of documents used across tests. Every text clears the minimum
// chunk length.
var (
	meditationDoc = domain.DocumentRef{ID: "doc-med", Name: "Meditation Guide", ModifiedTime: "2025-03-01T10:00:00Z"}
	cookingDoc    = domain.DocumentRef{ID: "doc-cook", Name: "Pasta Basics", ModifiedTime: "2025-02-01T10:00:00Z"}
	financeDoc    = domain.DocumentRef{ID: "doc-fin", Name: "Investing 101", ModifiedTime: "2025-01-01T10:00:00Z"}
	emptyDoc      = domain.DocumentRef{ID: "doc-empty", Name: "Blank Notes", ModifiedTime: "2025-01-02T10:00:00Z"}

	docTexts = map[string]string{
		meditationDoc.ID: "Meditation reduces stress and improves focus. " +
			"The benefits of meditation include better sleep and lower anxiety.",
		cookingDoc.ID: "Pasta should be boiled in salted water for ten minutes before serving with sauce.",
		financeDoc.ID: "Index funds offer low fees and broad diversification for long term investors.",
		emptyDoc.ID:   "   \n\n  ",
	}
)

// buildIndex persists an index holding one passage per document.
func buildIndex(t *testing.T, repo *flat.Repository, docs ...domain.DocumentRef) {
	t.Helper()
	emb := newTestEmbedder()
	idx := repo.New()
	for _, d := range docs {
		text := docTexts[d.ID]
		vec, err := emb.Embed(context.Background(), text)
		require.NoError(t, err)
		require.NoError(t, idx.Add([]string{text}, [][]float32{vec}, d.Metadata()))
	}
	require.NoError(t, repo.Save(context.Background(), idx))
}
