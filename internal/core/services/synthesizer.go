package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Generation parameters for grounded answers.
const (
	answerTemperature = 0.3
	answerMaxTokens   = 600
	answerTopP        = 0.9
)

// AnswerSynthesizer produces an answer grounded in retrieved passages.
type AnswerSynthesizer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewAnswerSynthesizer creates a synthesizer.
func NewAnswerSynthesizer(llm driven.LLMService, prompts driven.PromptStore) *AnswerSynthesizer {
	return &AnswerSynthesizer{llm: llm, prompts: prompts}
}

// Synthesize answers question from passages, using history to resolve references.
// Backend failures are wrapped in domain.ErrGeneration and keep their classification.
func (s *AnswerSynthesizer) Synthesize(
	ctx context.Context, passages []domain.SearchResult, question string, history []domain.ConversationTurn,
) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: no LLM provider configured", domain.ErrConfiguration)
	}

	prompt, err := renderPrompt(s.prompts, driven.PromptAnswer, promptData{
		Question: question,
		History:  formatHistory(history, true),
		Context:  sectionContext(passages),
	})
	if err != nil {
		return "", err
	}
	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", driven.PromptAnswerSystem, err)
	}

	done := logger.Timed("generate answer")
	text, err := s.llm.Complete(ctx, driven.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: system,
		Temperature:  answerTemperature,
		MaxTokens:    answerMaxTokens,
		TopP:         answerTopP,
	})
	done()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s returned an empty answer", domain.ErrGeneration, s.llm.ModelName())
	}
	return text, nil
}

// sectionContext labels passages "[Document Section i]", counting from 1.
func sectionContext(passages []domain.SearchResult) string {
	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = fmt.Sprintf("[Document Section %d]\n%s", i+1, p.Text)
	}
	return strings.Join(parts, "\n\n")
}
