package driven

import "context"

// LLMService generates text from a prompt.
// This is an optional service - when nil, question answering is disabled.
//
// Implementations may include:
//   - OpenAI-compatible APIs (OpenAI, Groq)
//   - Anthropic (Claude)
//   - Ollama (local models)
//
// Implementations translate provider failures into domain.ErrRateLimited and
// domain.ErrBackendUnavailable where they can tell.
type LLMService interface {
	// Complete returns the generated text for a single-turn request.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is one generation call.
type CompletionRequest struct {
	// Prompt is the user message.
	Prompt string

	// SystemPrompt is optional; empty means no system message.
	SystemPrompt string

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// TopP is the nucleus sampling threshold. Zero leaves the provider default.
	TopP float64
}
