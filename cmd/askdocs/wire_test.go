package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/cli"
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// clearProviderEnv keeps the machine's API keys out of the test.
func clearProviderEnv(t *testing.T) {
	for _, k := range []string{
		"ASKDOCS_LLM_API_KEY", "ASKDOCS_EMBEDDING_API_KEY", "GROQ_API_KEY",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_DRIVE_FOLDER_ID",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, configDir, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(configDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(body), 0o600))
}

func TestWire_FilesystemEndToEnd(t *testing.T) {
	clearProviderEnv(t)
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	configDir := filepath.Join(root, "config")
	require.NoError(t, os.MkdirAll(docs, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(docs, "leave.md"), []byte(
		"# Leave Policy\n\n"+strings.Repeat("Employees receive twenty five days of paid annual leave each year. ", 5)), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "expenses.txt"), []byte(
		strings.Repeat("Expenses above one hundred euros need approval from a manager. ", 5)), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "empty.txt"), nil, 0o600))

	writeConfig(t, configDir, fmt.Sprintf(`
[source]
kind = "filesystem"
folder_id = '%s'
`, docs))

	svc, err := wire(context.Background(), cli.Options{ConfigDir: configDir})
	require.NoError(t, err)
	require.NotNil(t, svc.Ingest)
	t.Cleanup(func() { require.NoError(t, svc.Close()) })

	ctx := context.Background()
	assert.False(t, svc.Ingest.IndexExists())

	result, err := svc.Ingest.IngestFolder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.DocumentsProcessed)
	assert.Positive(t, result.ChunksIndexed)
	require.Len(t, result.FailedDocuments, 1)
	assert.Contains(t, result.FailedDocuments[0].DocumentID, "empty.txt")

	assert.True(t, svc.Ingest.IndexExists())
	assert.FileExists(t, filepath.Join(configDir, "data", "vector_store", "all_docs_index.vec"))
	assert.FileExists(t, filepath.Join(configDir, "data", "ledger.db"))

	list, err := svc.Documents.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	indexed := 0
	for _, d := range list {
		if d.Indexed {
			indexed++
		}
	}
	assert.Equal(t, 2, indexed)

	status, err := svc.Ingest.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.Equal(t, result.ChunksIndexed, status.Passages)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, result.RunID, status.LastRun.ID)

	_, err = svc.Chat.Ask(ctx, "How many days of leave do employees get?", nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestWire_BadAISettingsKeepsSettings(t *testing.T) {
	clearProviderEnv(t)
	configDir := t.TempDir()
	writeConfig(t, configDir, `
[llm]
provider = "openai"
`)

	svc, err := wire(context.Background(), cli.Options{ConfigDir: configDir})

	require.NoError(t, err)
	assert.NotNil(t, svc.Settings)
	assert.Nil(t, svc.Chat)
	assert.Nil(t, svc.Ingest)
}

func TestLazySource_DriveWithoutCredentials(t *testing.T) {
	src := newLazySource(context.Background(), domain.SourceSettings{Kind: domain.SourceKindGoogleDrive})

	assert.Equal(t, "gdrive", src.Name())
	assert.NoError(t, src.Close())

	_, err := src.ListDocuments(context.Background(), "folder")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = src.GetDocumentText(context.Background(), "doc")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestResolveConfigDir(t *testing.T) {
	dir, err := resolveConfigDir("/srv/askdocs")
	require.NoError(t, err)
	assert.Equal(t, "/srv/askdocs", dir)

	t.Setenv("HOME", "/home/tester")
	dir, err = resolveConfigDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".askdocs"), dir)
}
