package flat

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(t.TempDir(), "all_docs", 2)

	assert.False(t, repo.Exists())
	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)

	idx := repo.New()
	assert.Equal(t, 0, idx.Len())
	require.NoError(t, idx.Add([]string{"p"}, [][]float32{{1, 2}}, meta("a")))
	require.NoError(t, repo.Save(ctx, idx))
	assert.True(t, repo.Exists())

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())

	removed, err := repo.Remove()
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, repo.Exists())

	removed, err = repo.Remove()
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRepository_SaveWrongDimension(t *testing.T) {
	repo := NewRepository(t.TempDir(), "s", 2)
	err := repo.Save(context.Background(), New(3))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestRepository_CreatesDirectory(t *testing.T) {
	repo := NewRepository(t.TempDir()+"/nested/vector_store", "s", 1)
	require.NoError(t, repo.Save(context.Background(), repo.New()))
	assert.True(t, repo.Exists())
}

func TestRepository_CancelledContext(t *testing.T) {
	repo := NewRepository(t.TempDir(), "s", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Save(ctx, repo.New()), context.Canceled)
}

func TestRepository_RemoveDeletesPreviousLinks(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(t.TempDir(), "s", 2)
	require.NoError(t, repo.Save(ctx, populated(t)))
	prev := VectorPath(repo.Dir, repo.StoreID) + prevSuffix
	require.NoError(t, os.Link(VectorPath(repo.Dir, repo.StoreID), prev))

	removed, err := repo.Remove()
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoFileExists(t, prev)
}
