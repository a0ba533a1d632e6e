package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
}

func TestConfigStore_Getters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "groq"))
	require.NoError(t, store.Set("retrieval.top_k", 5))
	require.NoError(t, store.Set("source.requests_per_second", 2.5))
	require.NoError(t, store.Set("embedding.cache", true))

	assert.Equal(t, "groq", store.GetString("llm.provider"))
	assert.Equal(t, 5, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 2.5, store.GetFloat("source.requests_per_second"), 1e-9)
	assert.InDelta(t, 5.0, store.GetFloat("retrieval.top_k"), 1e-9)
	assert.True(t, store.GetBool("embedding.cache"))

	// Wrong types and missing keys return zero values.
	assert.Empty(t, store.GetString("retrieval.top_k"))
	assert.Zero(t, store.GetInt("llm.provider"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("llm.provider"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "groq"))
	require.NoError(t, store.Set("llm.model", "llama-3.3-70b-versatile"))
	require.NoError(t, store.Set("index.store_id", "all_docs"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[llm]")
	assert.Contains(t, string(raw), "[index]")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "groq", reloaded.GetString("llm.provider"))
	assert.Equal(t, "llama-3.3-70b-versatile", reloaded.GetString("llm.model"))
	assert.Equal(t, "all_docs", reloaded.GetString("index.store_id"))
}

func TestConfigStore_SaveReload_PreservesNumbers(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("chunking.chunk_size", 800))
	require.NoError(t, store.Set("source.requests_per_second", 5.0))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 800, reloaded.GetInt("chunking.chunk_size"))
	assert.InDelta(t, 5.0, reloaded.GetFloat("source.requests_per_second"), 1e-9)
}

func TestConfigStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.api_key", "secret"))
	require.NoError(t, store.Delete("llm.api_key"))
	require.NoError(t, store.Delete("never.set"))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	_, ok := reloaded.Get("llm.api_key")
	assert.False(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Load_NonExistent(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, store.Load())
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))
	assert.Equal(t, "v", store.GetString("k"))
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[[[ not toml"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter", n)
			_ = store.GetInt("counter")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("counter")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"llm.provider": "groq",
		"llm.model":    "m",
		"top":          1,
	})

	assert.Equal(t, map[string]any{
		"llm": map[string]any{"provider": "groq", "model": "m"},
		"top": 1,
	}, nested)
	assert.Equal(t, map[string]any{"llm.provider": "groq", "llm.model": "m", "top": 1}, flattenMap(nested, ""))
}

func TestNestMap_ValueWinsOverTable(t *testing.T) {
	nested := nestMap(map[string]any{"a": "v", "a.b": "w"})
	assert.Equal(t, map[string]any{"a": "v"}, nested)
}
