// Package messages defines Bubbletea message types for the chat TUI.
package messages

import (
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// AnswerReceived carries the chat service's reply to a question.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// StatusLoaded carries the index status shown in the header.
type StatusLoaded struct {
	Status *domain.IndexStatus
	Err    error
}
