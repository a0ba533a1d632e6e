package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/ai"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/cli"
	"github.com/custodia-labs/askdocs/internal/core/services"
	"github.com/custodia-labs/askdocs/internal/logger"
	"github.com/custodia-labs/askdocs/internal/postprocessors/chunker"
)

// wire builds every service from the settings in opts.ConfigDir.
// When the AI backends cannot be built only the settings service is
// returned, so the configuration can still be repaired.
func wire(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	dir, err := resolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	settingsSvc := services.NewSettingsService(configStore, ai.NewConfigValidator(),
		services.WithDefaultIndexDir(filepath.Join(dir, "data", "vector_store")))
	out := &cli.Services{Settings: settingsSvc}

	settings, err := settingsSvc.Get()
	if err != nil {
		logger.Error("%v", err)
		return out, nil
	}

	backends, err := ai.Init(settings)
	if err != nil {
		logger.Error("%v", err)
		return out, nil
	}
	for _, w := range backends.Warnings {
		logger.Warn("%s", w)
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		backends.Close()
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	ledger, err := sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		backends.Close()
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	repo := flat.NewRepository(settings.Index.Dir, settings.Index.StoreID, settings.Index.Dimensions)
	source := newLazySource(ctx, settings.Source)
	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunking.ChunkSize),
		chunker.WithOverlap(settings.Chunking.Overlap),
		chunker.WithMinLength(settings.Chunking.MinLength),
	)
	retry := services.RetryFromSettings(settings.Retry)

	out.Chat = services.NewChatService(backends.EmbeddingService, backends.LLMService, repo, prompts,
		services.WithTopK(settings.Retrieval.TopK),
		services.WithChatRetry(retry),
	)
	out.Ingest = services.NewIngestService(source, backends.EmbeddingService, splitter, repo, ledger,
		services.WithFolder(settings.Source.FolderID),
		services.WithIngestRetry(retry),
	)
	out.Documents = services.NewDocumentService(source, ledger, settings.Source.FolderID)
	out.Close = func() error {
		backends.Close()
		//nolint:errcheck // closing a read-only source
		source.Close()
		return ledger.Close()
	}

	logger.Debug("Config: %s", configStore.Path())
	logger.Debug("Index: %s (%s, %d dims)", settings.Index.Dir, settings.Index.StoreID, settings.Index.Dimensions)
	return out, nil
}

func resolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".askdocs"), nil
}
