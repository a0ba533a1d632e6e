package flat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func meta(id string) *domain.PassageMetadata {
	return &domain.PassageMetadata{DocumentID: id, DocumentName: "Doc " + id, ModifiedTime: "2025-01-01T00:00:00Z"}
}

func populated(t *testing.T) *Index {
	t.Helper()
	x := New(2)
	require.NoError(t, x.Add(
		[]string{"origin", "east", "far east"},
		[][]float32{{0, 0}, {1, 0}, {5, 0}},
		meta("a"),
	))
	require.NoError(t, x.Add([]string{"north"}, [][]float32{{0, 2}}, meta("b")))
	return x
}

func TestAdd_SharesMetadataPointer(t *testing.T) {
	x := New(2)
	m := meta("a")
	require.NoError(t, x.Add([]string{"p1", "p2"}, [][]float32{{0, 0}, {1, 1}}, m))

	assert.Equal(t, 2, x.Len())
	assert.Same(t, m, x.meta[0])
	assert.Same(t, m, x.meta[1])
}

func TestAdd_CountMismatch(t *testing.T) {
	x := New(2)
	err := x.Add([]string{"p1", "p2"}, [][]float32{{0, 0}}, meta("a"))

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 0, x.Len())
}

func TestAdd_WrongDimensionAppendsNothing(t *testing.T) {
	x := populated(t)
	err := x.Add([]string{"ok", "bad"}, [][]float32{{1, 1}, {1, 1, 1}}, meta("c"))

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 4, x.Len())
	assert.Len(t, x.vectors, 8)
}

func TestAdd_NeverDeduplicates(t *testing.T) {
	x := New(1)
	require.NoError(t, x.Add([]string{"same"}, [][]float32{{1}}, meta("a")))
	require.NoError(t, x.Add([]string{"same"}, [][]float32{{1}}, meta("a")))
	assert.Equal(t, 2, x.Len())
}

func TestSearch_OrderedByDistance(t *testing.T) {
	x := populated(t)

	res, err := x.Search([]float32{0.9, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 3)

	assert.Equal(t, "east", res[0].Text)
	assert.Equal(t, "origin", res[1].Text)
	assert.Equal(t, "north", res[2].Text)
	assert.InDelta(t, 0.1, res[0].Distance, 1e-6)
	assert.InDelta(t, 0.9, res[1].Distance, 1e-6)
	assert.Equal(t, "b", res[2].Metadata.DocumentID)
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	x := populated(t)

	res, err := x.Search([]float32{0, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, res, 4)
}

func TestSearch_ReturnsAtMostKWithoutThreshold(t *testing.T) {
	x := populated(t)

	res, err := x.Search([]float32{100, 100}, 2)
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestSearch_EmptyIndex(t *testing.T) {
	x := New(3)

	res, err := x.Search([]float32{1, 2, 3}, 5)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
}

func TestSearch_NonPositiveK(t *testing.T) {
	x := populated(t)

	res, err := x.Search([]float32{0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearch_WrongQueryDimension(t *testing.T) {
	x := populated(t)

	_, err := x.Search([]float32{0, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	x := New(1)
	require.NoError(t, x.Add([]string{"first", "second", "third"}, [][]float32{{1}, {-1}, {1}}, meta("a")))

	res, err := x.Search([]float32{0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, []string{res[0].Text, res[1].Text, res[2].Text})
}

func TestClear_Idempotent(t *testing.T) {
	x := populated(t)

	x.Clear()
	assert.Equal(t, 0, x.Len())
	x.Clear()
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, 2, x.Dimension())

	res, err := x.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, res)

	require.NoError(t, x.Add([]string{"again"}, [][]float32{{1, 1}}, meta("c")))
	assert.Equal(t, 1, x.Len())
}
