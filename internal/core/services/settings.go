package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedCacheSize   = "embedding.cache_size"
	keyRetryAttempts    = "embedding.retry_attempts"
	keyRetryDelay       = "embedding.retry_delay"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyChunkSize        = "chunking.chunk_size"
	keyChunkOverlap     = "chunking.overlap"
	keyChunkMinLength   = "chunking.min_length"
	keyTopK             = "retrieval.top_k"
	keyIndexDir         = "index.dir"
	keyIndexStoreID     = "index.store_id"
	keyIndexDimensions  = "index.dimensions"
	keySourceKind       = "source.kind"
	keySourceFolder     = "source.folder_id"
	keySourceCreds      = "source.credentials_file"
	keySourceRatePerSec = "source.requests_per_second"
)

// Environment variables consulted when the config file leaves a value unset.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvLLMAPIKey       = "ASKDOCS_LLM_API_KEY"
	EnvEmbeddingAPIKey = "ASKDOCS_EMBEDDING_API_KEY"
	EnvGroqAPIKey      = "GROQ_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvCredentials     = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvDriveFolderID   = "GOOGLE_DRIVE_FOLDER_ID"
)

const ollamaBaseURL = "http://localhost:11434"

// settingField binds a config key to a field of domain.AppSettings.
// ptr returns a *string, *int, *float64, *time.Duration, *domain.AIProvider
// or *domain.SourceKind.
type settingField struct {
	key string
	ptr func(*domain.AppSettings) any
}

var settingFields = []settingField{
	{keyEmbedProvider, func(s *domain.AppSettings) any { return &s.Embedding.Provider }},
	{keyEmbedModel, func(s *domain.AppSettings) any { return &s.Embedding.Model }},
	{keyEmbedBaseURL, func(s *domain.AppSettings) any { return &s.Embedding.BaseURL }},
	{keyEmbedAPIKey, func(s *domain.AppSettings) any { return &s.Embedding.APIKey }},
	{keyEmbedCacheSize, func(s *domain.AppSettings) any { return &s.Embedding.CacheSize }},
	{keyRetryAttempts, func(s *domain.AppSettings) any { return &s.Retry.Attempts }},
	{keyRetryDelay, func(s *domain.AppSettings) any { return &s.Retry.Delay }},
	{keyLLMProvider, func(s *domain.AppSettings) any { return &s.LLM.Provider }},
	{keyLLMModel, func(s *domain.AppSettings) any { return &s.LLM.Model }},
	{keyLLMBaseURL, func(s *domain.AppSettings) any { return &s.LLM.BaseURL }},
	{keyLLMAPIKey, func(s *domain.AppSettings) any { return &s.LLM.APIKey }},
	{keyChunkSize, func(s *domain.AppSettings) any { return &s.Chunking.ChunkSize }},
	{keyChunkOverlap, func(s *domain.AppSettings) any { return &s.Chunking.Overlap }},
	{keyChunkMinLength, func(s *domain.AppSettings) any { return &s.Chunking.MinLength }},
	{keyTopK, func(s *domain.AppSettings) any { return &s.Retrieval.TopK }},
	{keyIndexDir, func(s *domain.AppSettings) any { return &s.Index.Dir }},
	{keyIndexStoreID, func(s *domain.AppSettings) any { return &s.Index.StoreID }},
	{keyIndexDimensions, func(s *domain.AppSettings) any { return &s.Index.Dimensions }},
	{keySourceKind, func(s *domain.AppSettings) any { return &s.Source.Kind }},
	{keySourceFolder, func(s *domain.AppSettings) any { return &s.Source.FolderID }},
	{keySourceCreds, func(s *domain.AppSettings) any { return &s.Source.CredentialsFile }},
	{keySourceRatePerSec, func(s *domain.AppSettings) any { return &s.Source.RequestsPerSecond }},
}

// IsSecretKey reports whether a settings key holds a credential.
func IsSecretKey(key string) bool {
	return strings.HasSuffix(key, ".api_key")
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnv replaces os.Getenv for environment fallbacks.
func WithEnv(getenv func(string) string) SettingsOption {
	return func(s *SettingsService) {
		s.getenv = getenv
	}
}

// WithDefaultIndexDir sets the index directory used when none is configured.
func WithDefaultIndexDir(dir string) SettingsOption {
	return func(s *SettingsService) {
		s.defaultIndexDir = dir
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore     driven.ConfigStore
	aiValidator     driven.AIConfigValidator
	validate        *validator.Validate
	getenv          func(string) string
	defaultIndexDir string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(),
		getenv:      os.Getenv,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultIndexDir == "" {
		s.defaultIndexDir = defaultIndexDir()
	}
	return s
}

func defaultIndexDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".askdocs", "data", "vector_store")
	}
	return filepath.Join(home, ".askdocs", "data", "vector_store")
}

// Get retrieves current application settings: defaults, overlaid by the
// config store, then by environment variables for anything still unset.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	settings.Index.Dir = s.defaultIndexDir

	for _, f := range settingFields {
		if err := loadField(s.configStore, f.key, f.ptr(&settings)); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, f.key, err)
		}
	}

	s.applyEnv(&settings)

	if _, ok := s.configStore.Get(keyEmbedModel); !ok {
		if model, ok := domain.DefaultEmbeddingModels()[settings.Embedding.Provider]; ok {
			settings.Embedding.Model = model
		}
	}
	if _, ok := s.configStore.Get(keyLLMModel); !ok {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if _, ok := s.configStore.Get(keyIndexDimensions); !ok {
		if d := modelDimensions(settings.Embedding.Model); d > 0 {
			settings.Index.Dimensions = d
		}
	}

	return &settings, nil
}

func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if settings.LLM.Provider == "" && s.getenv(EnvGroqAPIKey) != "" {
		settings.LLM.Provider = domain.AIProviderGroq
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = firstNonEmpty(s.getenv(EnvLLMAPIKey), s.providerKey(settings.LLM.Provider))
	}
	if settings.Embedding.APIKey == "" && settings.Embedding.Provider.RequiresAPIKey() {
		settings.Embedding.APIKey = firstNonEmpty(s.getenv(EnvEmbeddingAPIKey), s.providerKey(settings.Embedding.Provider))
	}
	if settings.Source.CredentialsFile == "" {
		settings.Source.CredentialsFile = s.getenv(EnvCredentials)
	}
	if settings.Source.FolderID == "" {
		settings.Source.FolderID = s.getenv(EnvDriveFolderID)
	}
}

func (s *SettingsService) envSecret(key string, settings *domain.AppSettings) string {
	switch key {
	case keyLLMAPIKey:
		return firstNonEmpty(s.getenv(EnvLLMAPIKey), s.providerKey(settings.LLM.Provider))
	case keyEmbedAPIKey:
		return firstNonEmpty(s.getenv(EnvEmbeddingAPIKey), s.providerKey(settings.Embedding.Provider))
	default:
		return ""
	}
}

func (s *SettingsService) providerKey(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderGroq:
		return s.getenv(EnvGroqAPIKey)
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicAPIKey)
	default:
		return ""
	}
}

// Save persists application settings. API keys that are empty or come
// from the environment are not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, f := range settingFields {
		val := storedValue(f.ptr(settings))
		if IsSecretKey(f.key) && (val == "" || val == s.envSecret(f.key, settings)) {
			continue
		}
		if err := s.configStore.Set(f.key, val); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

// Set updates a single setting from its string form. The change is
// validated against the full settings before it is stored.
func (s *SettingsService) Set(key, value string) error {
	field, ok := lookupField(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (known: %s)", domain.ErrInvalidInput, key, strings.Join(s.Keys(), ", "))
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	ptr := field.ptr(settings)
	if err := assignField(ptr, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := s.validateStruct(settings); err != nil {
		return err
	}

	return s.configStore.Set(key, storedValue(ptr))
}

// Keys returns every key accepted by Set.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingFields))
	for i, f := range settingFields {
		keys[i] = f.key
	}
	return keys
}

// SetEmbeddingProvider configures the embedding provider. The index
// dimension follows the model when it is known.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !containsProvider(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = firstNonEmpty(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = localBaseURL(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	if d := modelDimensions(settings.Embedding.Model); d > 0 {
		settings.Index.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !containsProvider(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = firstNonEmpty(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = localBaseURL(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the current settings: struct constraints, then provider
// credentials.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := s.validateStruct(settings); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is missing an API key", domain.ErrConfiguration, settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %s is missing an API key", domain.ErrConfiguration, settings.LLM.Provider)
	}
	return nil
}

func (s *SettingsService) validateStruct(settings *domain.AppSettings) error {
	err := s.validate.Struct(settings)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "AppSettings.Chunking.Overlap"; drop the root.
		name := strings.TrimPrefix(fe.Namespace(), "AppSettings.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s (got %v)", name, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", name, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(msgs, "; "))
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	defaults := domain.DefaultAppSettings()
	defaults.Index.Dir = s.defaultIndexDir
	return defaults
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func lookupField(key string) (settingField, bool) {
	for _, f := range settingFields {
		if f.key == key {
			return f, true
		}
	}
	return settingField{}, false
}

// loadField copies a stored value into ptr. Missing keys and unknown
// provider names leave the default in place.
func loadField(store driven.ConfigStore, key string, ptr any) error {
	if _, ok := store.Get(key); !ok {
		return nil
	}
	switch p := ptr.(type) {
	case *string:
		*p = store.GetString(key)
	case *int:
		*p = store.GetInt(key)
	case *float64:
		*p = store.GetFloat(key)
	case *time.Duration:
		d, err := time.ParseDuration(store.GetString(key))
		if err != nil {
			return err
		}
		*p = d
	case *domain.AIProvider:
		if v := domain.AIProvider(store.GetString(key)); v.IsValid() {
			*p = v
		}
	case *domain.SourceKind:
		if v := domain.SourceKind(store.GetString(key)); v.IsValid() {
			*p = v
		}
	default:
		return fmt.Errorf("unsupported field type %T", ptr)
	}
	return nil
}

// assignField parses raw into ptr.
func assignField(ptr any, raw string) error {
	switch p := ptr.(type) {
	case *string:
		*p = raw
	case *int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", raw)
		}
		*p = n
	case *float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", raw)
		}
		*p = f
	case *time.Duration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("expected a duration like 2s, got %q", raw)
		}
		*p = d
	case *domain.AIProvider:
		v := domain.AIProvider(raw)
		if raw != "" && !v.IsValid() {
			return fmt.Errorf("unknown provider %q", raw)
		}
		*p = v
	case *domain.SourceKind:
		*p = domain.SourceKind(raw)
	default:
		return fmt.Errorf("unsupported field type %T", ptr)
	}
	return nil
}

// storedValue converts a field to the value written to the config store.
func storedValue(ptr any) any {
	switch p := ptr.(type) {
	case *string:
		return *p
	case *int:
		return *p
	case *float64:
		return *p
	case *time.Duration:
		return p.String()
	case *domain.AIProvider:
		return string(*p)
	case *domain.SourceKind:
		return string(*p)
	default:
		return nil
	}
}

// modelDimensions returns the vector size for a known embedding model, or 0.
func modelDimensions(model string) int {
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		return d
	}
	if rest, ok := strings.CutPrefix(model, "hashing-"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func localBaseURL(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	return firstNonEmpty(current, ollamaBaseURL)
}

func containsProvider(list []domain.AIProvider, p domain.AIProvider) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
