// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the AI services built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // nil when no generation backend is configured.
	Warnings         []string
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds the embedder (required) and the LLM (optional) without
// contacting either backend.
func Init(settings *domain.AppSettings) (*InitResult, error) {
	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %w", domain.ErrConfiguration, err)
	}

	result := &InitResult{EmbeddingService: embedder}

	llm, err := CreateLLMService(&settings.LLM)
	switch {
	case err != nil:
		result.Close()
		return nil, fmt.Errorf("%w: llm: %w", domain.ErrConfiguration, err)
	case llm == nil:
		result.Warnings = append(result.Warnings,
			"no generation backend configured; set GROQ_API_KEY or run 'askdocs settings set llm.provider <provider>'")
	default:
		result.LLMService = llm
	}
	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'askdocs settings show' to check", domain.ErrConfiguration, err)
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("embedding service unreachable: %w", err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns nil, nil when no provider is configured.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'askdocs settings show' to check", domain.ErrConfiguration, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("llm service unreachable: %w", err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
// Nil settings or an empty provider have nothing to validate.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || settings.Provider == "" {
		return nil
	}
	svc, err := CreateAndValidateEmbeddingService(context.Background(), settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLMConfig creates an LLM service and pings it.
// An unconfigured provider is valid.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(context.Background(), settings)
	if err != nil || svc == nil {
		return err
	}
	return svc.Close()
}

// CreateEmbeddingService creates the embedding service for settings,
// wrapped in an LRU cache when CacheSize is positive.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("embedding settings are required")
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderHashing:
		svc = hashing.NewEmbeddingService(hashingDimensions(settings.Model))

	case domain.AIProviderOllama:
		svc = createOllamaEmbedding(settings)

	case domain.AIProviderOpenAI:
		svc, err = createOpenAIEmbedding(settings)

	case domain.AIProviderAnthropic, domain.AIProviderGroq:
		return nil, fmt.Errorf("%s does not support embeddings, use hashing, ollama or openai", settings.Provider)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	if settings.CacheSize > 0 {
		return cached.New(svc, settings.CacheSize)
	}
	return svc, nil
}

// CreateLLMService creates the LLM service for settings.
// Returns nil, nil if no provider is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%s requires an API key", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderGroq:
		cfg := openaillm.GroqConfig(settings.APIKey, settings.Model)
		if settings.BaseURL != "" {
			cfg.BaseURL = settings.BaseURL
		}
		return openaillm.NewLLMService(cfg)

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", settings.Provider)
	}
}

// hashingDimensions reads the vector size from a "hashing-<n>" model name.
func hashingDimensions(model string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(model, "hashing-"))
	if err != nil || n <= 0 {
		return hashing.DefaultDimensions
	}
	return n
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
