package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGroq is the Groq OpenAI-compatible API.
	AIProviderGroq AIProvider = "groq"

	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGroq, AIProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGroq
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGroq:
		return "Groq (cloud)"
	case AIProviderHashing:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// SourceKind identifies the document source backend.
type SourceKind string

// Available document sources.
const (
	SourceKindGoogleDrive SourceKind = "gdrive"
	SourceKindFilesystem  SourceKind = "filesystem"
)

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	return k == SourceKindGoogleDrive || k == SourceKindFilesystem
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `validate:"required,oneof=ollama openai hashing"`

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI).
	APIKey string

	// CacheSize bounds the in-memory embedding cache. Zero disables caching.
	CacheSize int `validate:"gte=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic || e.Provider == AIProviderGroq {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `validate:"omitempty,oneof=ollama openai anthropic groq"`

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or a compatible gateway).
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI/Anthropic/Groq).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHashing {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings controls passage splitting.
type ChunkingSettings struct {
	ChunkSize int `validate:"gt=0"`
	Overlap   int `validate:"gte=0,ltfield=ChunkSize"`
	MinLength int `validate:"gte=0"`
}

// RetrievalSettings controls similarity search.
type RetrievalSettings struct {
	// TopK is the number of passages retrieved per question.
	TopK int `validate:"gt=0,lte=50"`
}

// IndexSettings locates and shapes the persisted similarity index.
type IndexSettings struct {
	// Dir is the directory holding the index artifacts.
	Dir string `validate:"required"`

	// StoreID prefixes the artifact file names.
	StoreID string `validate:"required,excludesall=/\\"`

	// Dimensions is the embedding vector size.
	Dimensions int `validate:"gt=0"`
}

// SourceSettings configures the document source.
type SourceSettings struct {
	// Kind selects the source backend.
	Kind SourceKind `validate:"required,oneof=gdrive filesystem"`

	// FolderID is the Drive folder ID, or a local directory for the filesystem source.
	FolderID string

	// CredentialsFile is the Google service account key file.
	CredentialsFile string

	// RequestsPerSecond paces source API calls.
	RequestsPerSecond float64 `validate:"gt=0"`
}

// RetrySettings bounds embedding retries.
type RetrySettings struct {
	Attempts int           `validate:"gte=1,lte=10"`
	Delay    time.Duration `validate:"gte=0"`
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Index     IndexSettings
	Source    SourceSettings
	Retry     RetrySettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Embeddings default to the offline hashing embedder; the LLM is left
// unconfigured until a provider key is supplied.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderHashing,
			Model:     DefaultEmbeddingModels()[AIProviderHashing],
			CacheSize: 1024,
		},
		LLM: LLMSettings{},
		Chunking: ChunkingSettings{
			ChunkSize: 800,
			Overlap:   150,
			MinLength: 50,
		},
		Retrieval: RetrievalSettings{TopK: 3},
		Index: IndexSettings{
			StoreID:    "all_docs",
			Dimensions: 384,
		},
		Source: SourceSettings{
			Kind:              SourceKindGoogleDrive,
			RequestsPerSecond: 5,
		},
		Retry: RetrySettings{
			Attempts: 3,
			Delay:    2 * time.Second,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGroq,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-384",
		AIProviderOllama:  "all-minilm",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGroq:      "llama-3.3-70b-versatile",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-384": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
