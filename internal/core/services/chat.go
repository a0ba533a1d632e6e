package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

const (
	// clarityThreshold is the rune count below which a first question is checked.
	clarityThreshold = 10

	clarityTemperature  = 0.1
	rephraseTemperature = 0.2
	helperMaxTokens     = 150

	// DefaultTopK is the number of passages retrieved per question.
	DefaultTopK = 3

	// citationExcerptRunes bounds the passage excerpt in a citation.
	citationExcerptRunes = 100
)

// NoResultsAnswer is returned when retrieval finds nothing.
const NoResultsAnswer = "I couldn't find any relevant information in the indexed documents " +
	"to answer your question. Could you please rephrase or ask about something else?"

// DefaultClarification is asked when the backend flags a question as unclear
// without suggesting how to clarify it.
const DefaultClarification = "Could you tell me a bit more about what you're looking for? " +
	"For example, which topic or document your question is about."

// ChatService answers questions over the persisted index.
// It keeps no state between calls; each Ask loads its own index handle.
type ChatService struct {
	embedder    driven.EmbeddingService
	llm         driven.LLMService
	repo        driven.IndexRepository
	prompts     driven.PromptStore
	synthesizer *AnswerSynthesizer
	topK        int
	retry       EmbeddingRetry
}

// ChatOption configures a ChatService.
type ChatOption func(*ChatService)

// WithTopK sets how many passages are retrieved per question.
func WithTopK(k int) ChatOption {
	return func(s *ChatService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithChatRetry sets the retry policy for query embeddings.
func WithChatRetry(r EmbeddingRetry) ChatOption {
	return func(s *ChatService) {
		s.retry = r
	}
}

// NewChatService creates a chat service.
// The llm parameter is optional; Ask fails with domain.ErrConfiguration without it.
func NewChatService(
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	repo driven.IndexRepository,
	prompts driven.PromptStore,
	opts ...ChatOption,
) *ChatService {
	s := &ChatService{
		embedder:    embedder,
		llm:         llm,
		repo:        repo,
		prompts:     prompts,
		synthesizer: NewAnswerSynthesizer(llm, prompts),
		topK:        DefaultTopK,
		retry:       DefaultEmbeddingRetry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers question in the context of history.
func (s *ChatService) Ask(
	ctx context.Context, question string, history []domain.ConversationTurn,
) (*domain.Answer, error) {
	logger.Section("Ask")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if err := validateHistory(history); err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, fmt.Errorf("%w: no LLM provider configured", domain.ErrConfiguration)
	}
	logger.Debug("Question: %q (%d history turns)", question, len(history))

	if len(history) == 0 && utf8.RuneCountInString(question) < clarityThreshold {
		if clear, suggestion := s.checkClarity(ctx, question); !clear {
			logger.Info("Question flagged as unclear")
			return &domain.Answer{Text: suggestion, Sources: []domain.Citation{}, IsClarification: true}, nil
		}
	}

	answer := &domain.Answer{Sources: []domain.Citation{}}
	query := question
	if len(history) > 0 {
		if rephrased := s.rephrase(ctx, question, history); rephrased != "" {
			logger.Info("Rephrased %q -> %q", question, rephrased)
			answer.RephrasedQuery = rephrased
			query = rephrased
		}
	}

	results, err := s.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		logger.Info("No passages retrieved")
		answer.Text = NoResultsAnswer
		return answer, nil
	}

	text, err := s.synthesizer.Synthesize(ctx, results, question, history)
	if err != nil {
		return nil, err
	}
	answer.Text = text
	answer.Sources = citations(results)
	return answer, nil
}

// retrieve loads the index and returns the top-k passages for query.
func (s *ChatService) retrieve(ctx context.Context, query string) ([]domain.SearchResult, error) {
	idx, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("Index loaded: %d passages", idx.Len())

	vec, err := s.retry.embed(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	done := logger.Timed("search")
	results, err := idx.Search(vec, s.topK)
	done()
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	for i, r := range results {
		logger.Debug("  %d. %s (distance %.4f)", i+1, r.DocumentName(), r.Distance)
	}
	return results, nil
}

type clarityVerdict struct {
	IsClear                bool   `json:"is_clear"`
	SuggestedClarification string `json:"suggested_clarification"`
}

// checkClarity asks the backend whether a short question is answerable.
// Any failure counts as clear.
func (s *ChatService) checkClarity(ctx context.Context, question string) (bool, string) {
	prompt, err := renderPrompt(s.prompts, driven.PromptClarityCheck, promptData{Question: question})
	if err != nil {
		logger.Debug("Clarity check skipped: %v", err)
		return true, ""
	}

	raw, err := s.llm.Complete(ctx, driven.CompletionRequest{
		Prompt:      prompt,
		Temperature: clarityTemperature,
		MaxTokens:   helperMaxTokens,
	})
	if err != nil {
		logger.Debug("Clarity check failed: %v", err)
		return true, ""
	}

	verdict, err := parseClarity(raw)
	if err != nil {
		logger.Debug("Clarity check unparseable: %v", err)
		return true, ""
	}
	if verdict.IsClear {
		return true, ""
	}
	suggestion := strings.TrimSpace(verdict.SuggestedClarification)
	if suggestion == "" {
		suggestion = DefaultClarification
	}
	return false, suggestion
}

func parseClarity(raw string) (clarityVerdict, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")

	v := clarityVerdict{IsClear: true}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return clarityVerdict{}, err
	}
	return v, nil
}

// rephrase turns a follow-up into a standalone query.
// Returns "" when the backend fails or the rephrasing adds nothing.
func (s *ChatService) rephrase(ctx context.Context, question string, history []domain.ConversationTurn) string {
	prompt, err := renderPrompt(s.prompts, driven.PromptRephrase, promptData{
		Question: question,
		History:  formatHistory(history, false),
	})
	if err != nil {
		logger.Debug("Rephrase skipped: %v", err)
		return ""
	}

	raw, err := s.llm.Complete(ctx, driven.CompletionRequest{
		Prompt:      prompt,
		Temperature: rephraseTemperature,
		MaxTokens:   helperMaxTokens,
	})
	if err != nil {
		logger.Debug("Rephrase failed: %v", err)
		return ""
	}

	rephrased := cleanRephrasing(raw)
	if rephrased == "" || normalizeQuery(rephrased) == normalizeQuery(question) {
		return ""
	}
	return rephrased
}

// cleanRephrasing strips quotes and a short leading label such as
// "Rephrased question:".
func cleanRephrasing(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.Trim(s, `"'`))

	if label, rest, ok := strings.Cut(s, ":"); ok && len(strings.Fields(label)) < 5 {
		s = strings.TrimSpace(rest)
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// normalizeQuery lowercases, drops punctuation and collapses whitespace.
func normalizeQuery(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// citations describes each passage by document name and leading excerpt.
func citations(results []domain.SearchResult) []domain.Citation {
	out := make([]domain.Citation, len(results))
	for i, r := range results {
		excerpt, _ := truncateRunes(r.Text, citationExcerptRunes)
		c := domain.Citation{
			DocumentName: r.DocumentName(),
			Excerpt:      excerpt,
			Distance:     r.Distance,
		}
		if r.Metadata != nil {
			c.DocumentID = r.Metadata.DocumentID
		}
		out[i] = c
	}
	return out
}
