package domain

import (
	"fmt"
	"strings"
)

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label returns the prompt label for the role.
func (r Role) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "Assistant"
}

// ConversationTurn is one message of a caller-supplied conversation history.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Citation is a human-readable reference to a passage that grounded an answer.
type Citation struct {
	// DocumentID is the source document identifier.
	DocumentID string `json:"document_id"`

	// DocumentName is the source document title.
	DocumentName string `json:"document_name"`

	// Excerpt is the leading text of the passage.
	Excerpt string `json:"excerpt"`

	// Distance is the passage's distance to the search query.
	Distance float64 `json:"distance"`
}

// String renders the citation as "<document name>: <excerpt>...".
func (c Citation) String() string {
	return fmt.Sprintf("%s: %s...", c.DocumentName, strings.TrimSpace(c.Excerpt))
}

// Answer is the result of asking a question.
type Answer struct {
	// Text is the final answer, or a clarifying question when IsClarification is set.
	Text string `json:"answer"`

	// Sources are the passages the answer was grounded in. Empty for clarifications
	// and for the canned no-results answer.
	Sources []Citation `json:"sources"`

	// IsClarification marks a response that asks the user to disambiguate.
	IsClarification bool `json:"is_clarification"`

	// RephrasedQuery is the standalone query used for retrieval, when one was produced.
	RephrasedQuery string `json:"rephrased_query,omitempty"`
}

// SourceStrings returns the citations rendered as strings.
func (a *Answer) SourceStrings() []string {
	out := make([]string, len(a.Sources))
	for i, c := range a.Sources {
		out[i] = c.String()
	}
	return out
}
