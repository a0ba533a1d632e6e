package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the document source, AI providers, chunking and
retrieval options.

Settings are stored in ~/.askdocs/config.toml. API keys may also come from
the environment or a .env file (GROQ_API_KEY, OPENAI_API_KEY, ...).`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a single setting. Run 'askdocs settings keys' for the list of keys.

Examples:
  askdocs settings set source.folder_id 1AbCdEfGh
  askdocs settings set source.kind filesystem
  askdocs settings set retrieval.top_k 5`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key <key>",
	Short: "Store an API key",
	Long: `Store an API key without echoing it to the terminal.

Examples:
  askdocs settings set-key llm.api_key
  askdocs settings set-key embedding.api_key`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSetKey,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Choose the embedding provider and model, then check that it responds.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Choose the provider that generates answers, then check that it responds.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Source]")
	cmd.Printf("  Kind: %s\n", settings.Source.Kind)
	cmd.Printf("  Folder: %s\n", valueOrUnset(settings.Source.FolderID))
	if settings.Source.Kind == domain.SourceKindGoogleDrive {
		cmd.Printf("  Credentials: %s\n", valueOrUnset(settings.Source.CredentialsFile))
		cmd.Printf("  Requests/sec: %g\n", settings.Source.RequestsPerSecond)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskedOrUnset(settings.Embedding.APIKey))
	}
	cmd.Printf("  Cache: %d entries\n", settings.Embedding.CacheSize)
	cmd.Printf("  Retry: %d attempts, %s apart\n", settings.Retry.Attempts, settings.Retry.Delay)
	cmd.Printf("  Status: %s\n", configuredLabel(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	if settings.LLM.Provider == "" {
		cmd.Println("  Provider: (not set)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
		if settings.LLM.BaseURL != "" {
			cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
		}
		if settings.LLM.Provider.RequiresAPIKey() {
			cmd.Printf("  API Key: %s\n", maskedOrUnset(settings.LLM.APIKey))
		}
	}
	cmd.Printf("  Status: %s\n", configuredLabel(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Directory: %s\n", settings.Index.Dir)
	cmd.Printf("  Store ID: %s\n", settings.Index.StoreID)
	cmd.Printf("  Dimensions: %d\n", settings.Index.Dimensions)
	cmd.Printf("  Chunks: %d runes, %d overlap, %d minimum\n",
		settings.Chunking.ChunkSize, settings.Chunking.Overlap, settings.Chunking.MinLength)
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'askdocs settings set' or 'askdocs settings set-key' to fix it.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}

	if services.IsSecretKey(key) {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	key := args[0]
	if !services.IsSecretKey(key) {
		return fmt.Errorf("%w: %s is not an API key setting, use 'askdocs settings set'", domain.ErrInvalidInput, key)
	}

	cmd.Printf("Enter value for %s: ", key)
	secret := readSecret(cmd.InOrStdin())
	cmd.Println()
	if secret == "" {
		return errors.New("no key entered")
	}

	if err := settingsService.Set(key, secret); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", key, maskAPIKey(secret))
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), providerFlow{
		label:     "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		set:       settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	})
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), providerFlow{
		label:     "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		set:       settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
	})
}

// providerFlow describes one interactive provider selection.
type providerFlow struct {
	label     string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	set       func(domain.AIProvider, string, string) error
	validate  func() error
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, flow providerFlow) error {
	cmd.Printf("Select %s Provider\n", flow.label)
	for i, p := range flow.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(flow.providers), 1)
	provider := flow.providers[idx-1]

	defaultModel := flow.models[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		if isTerminal(cmd.InOrStdin()) {
			apiKey = readSecret(cmd.InOrStdin())
		} else {
			apiKey = readLine(reader)
		}
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := flow.set(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", strings.ToLower(flow.label), err)
	}

	cmd.Print("Validating configuration... ")
	if err := flow.validate(); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("%s configuration validation failed: %w", strings.ToLower(flow.label), err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", flow.label, provider.Description(), model)
	return nil
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func maskedOrUnset(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
