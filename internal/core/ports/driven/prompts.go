package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or fall back to built-in defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Templates use text/template syntax.
const (
	// PromptClarityCheck asks whether a short first question is clear.
	// Data: .Question.
	PromptClarityCheck = "clarity_check"

	// PromptRephrase turns a follow-up into a standalone search query.
	// Data: .History, .Question.
	PromptRephrase = "rephrase"

	// PromptAnswer grounds the answer in retrieved passages.
	// Data: .Context, .History, .Question.
	PromptAnswer = "answer"

	// PromptAnswerSystem is the system prompt for answer generation.
	// This prompt has no placeholders.
	PromptAnswerSystem = "answer_system"
)

// AllPromptNames returns every prompt the application loads.
func AllPromptNames() []string {
	return []string{PromptClarityCheck, PromptRephrase, PromptAnswer, PromptAnswerSystem}
}
