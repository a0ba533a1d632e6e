package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// SimilarityIndex is an exact nearest-neighbour store of passage embeddings.
//
// Every stored passage has exactly one embedding and one metadata reference.
// An index is not safe for concurrent mutation; each request owns its handle.
type SimilarityIndex interface {
	// Add appends passages with their embeddings. All passages of one call
	// share meta. Returns domain.ErrDimensionMismatch and appends nothing when
	// the counts differ or any vector has the wrong dimension.
	Add(passages []string, embeddings [][]float32, meta *domain.PassageMetadata) error

	// Search returns up to k passages nearest to query, ordered by ascending
	// distance. An empty index or k <= 0 yields an empty slice.
	Search(query []float32, k int) ([]domain.SearchResult, error)

	// Save writes the index artifacts for storeID into dir.
	Save(dir, storeID string) error

	// Load replaces the index state from dir. Returns false without touching
	// state when either artifact is missing.
	Load(dir, storeID string) (bool, error)

	// Clear resets the index to empty. Persisted artifacts are untouched.
	Clear()

	// Len returns the number of stored passages.
	Len() int

	// Dimension returns the embedding dimension.
	Dimension() int
}

// IndexRepository binds a similarity index to its persisted location.
type IndexRepository interface {
	// New returns an empty index of the configured dimension.
	New() SimilarityIndex

	// Load returns the persisted index. Returns domain.ErrIndexNotReady when
	// no index has been saved.
	Load(ctx context.Context) (SimilarityIndex, error)

	// Save persists idx, overwriting any previous artifacts.
	Save(ctx context.Context, idx SimilarityIndex) error

	// Exists reports whether both artifacts are present.
	Exists() bool

	// Remove deletes the artifacts. Returns false when there was nothing to remove.
	Remove() (bool, error)
}
