package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testRun(id string, started time.Time) *domain.IngestRun {
	return &domain.IngestRun{
		ID:        id,
		Kind:      domain.RunKindAll,
		Status:    domain.RunStatusRunning,
		StartedAt: started,
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store := setupTestStore(t)
	assert.FileExists(t, store.Path())
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.SaveRun(context.Background(), testRun("r1", time.Now())))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	run, err := second.LastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r1", run.ID)
}

func TestLastRun_Empty(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.LastRun(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveRun_Upsert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	run := testRun("r1", start)
	require.NoError(t, store.SaveRun(ctx, run))

	run.Status = domain.RunStatusCompleted
	run.FinishedAt = start.Add(time.Minute)
	run.ChunksIndexed = 12
	run.DocumentsProcessed = 2
	run.Failures = []domain.FailedDocument{{DocumentID: "d3", DocumentName: "Empty", Reason: "empty"}}
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
	assert.Equal(t, domain.RunKindAll, got.Kind)
	assert.True(t, start.Equal(got.StartedAt))
	assert.Equal(t, time.Minute, got.Duration())
	assert.Equal(t, 12, got.ChunksIndexed)
	assert.Equal(t, 2, got.DocumentsProcessed)
	assert.Equal(t, run.Failures, got.Failures)
}

func TestListRuns_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.SaveRun(ctx, testRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
	assert.Nil(t, runs[0].Failures)

	last, err := store.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", last.ID)
}

func TestIndexedDocuments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(ctx, testRun("r1", now)))

	docs := []domain.IndexedDocument{
		{DocumentRef: domain.DocumentRef{ID: "a", Name: "Alpha", ModifiedTime: "2025-02-01T00:00:00Z"}, Chunks: 3, RunID: "r1", IndexedAt: now},
		{DocumentRef: domain.DocumentRef{ID: "b", Name: "Beta"}, Chunks: 1, RunID: "r1", IndexedAt: now},
	}
	require.NoError(t, store.MarkIndexed(ctx, docs))
	require.NoError(t, store.MarkIndexed(ctx, nil))

	got, err := store.IndexedDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha", got["a"].Name)
	assert.Equal(t, 3, got["a"].Chunks)
	assert.True(t, now.Equal(got["a"].IndexedAt))

	// Re-indexing replaces the entry.
	docs[0].Chunks = 5
	require.NoError(t, store.MarkIndexed(ctx, docs[:1]))
	got, err = store.IndexedDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, got["a"].Chunks)

	require.NoError(t, store.ClearDocuments(ctx))
	got, err = store.IndexedDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Run history survives clearing documents.
	_, err = store.LastRun(ctx)
	assert.NoError(t, err)
}

func TestMarkIndexed_UnknownRunRejected(t *testing.T) {
	store := setupTestStore(t)

	err := store.MarkIndexed(context.Background(), []domain.IndexedDocument{
		{DocumentRef: domain.DocumentRef{ID: "a", Name: "A"}, RunID: "missing", IndexedAt: time.Now()},
	})
	assert.Error(t, err)
}
