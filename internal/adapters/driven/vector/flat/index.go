package flat

import (
	"fmt"
	"math"
	"slices"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SimilarityIndex = (*Index)(nil)

// Index is an in-memory exact L2 index.
// It is not safe for concurrent mutation.
type Index struct {
	dim      int
	passages []string
	vectors  []float32 // row-major, len = len(passages) * dim
	meta     []*domain.PassageMetadata
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) *Index {
	return &Index{dim: dimension}
}

// Add appends passages and their embeddings. All passages share meta.
func (x *Index) Add(passages []string, embeddings [][]float32, meta *domain.PassageMetadata) error {
	if len(passages) != len(embeddings) {
		return fmt.Errorf("%w: %d passages but %d embeddings", domain.ErrDimensionMismatch, len(passages), len(embeddings))
	}
	for i, e := range embeddings {
		if len(e) != x.dim {
			return fmt.Errorf("%w: embedding %d has dimension %d, index expects %d",
				domain.ErrDimensionMismatch, i, len(e), x.dim)
		}
	}

	x.passages = append(x.passages, passages...)
	for _, e := range embeddings {
		x.vectors = append(x.vectors, e...)
		x.meta = append(x.meta, meta)
	}
	return nil
}

type hit struct {
	row  int
	dist float64
}

// Search returns the k nearest passages by Euclidean distance.
func (x *Index) Search(query []float32, k int) ([]domain.SearchResult, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			domain.ErrDimensionMismatch, len(query), x.dim)
	}
	n := len(x.passages)
	if k <= 0 || n == 0 {
		return []domain.SearchResult{}, nil
	}
	k = min(k, n)

	hits := make([]hit, n)
	for row := range n {
		hits[row] = hit{row: row, dist: x.squaredDistance(row, query)}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		default:
			return 0
		}
	})

	results := make([]domain.SearchResult, k)
	for i, h := range hits[:k] {
		results[i] = domain.SearchResult{
			Text:     x.passages[h.row],
			Distance: math.Sqrt(h.dist),
			Metadata: x.meta[h.row],
		}
	}
	return results, nil
}

func (x *Index) squaredDistance(row int, query []float32) float64 {
	vec := x.vectors[row*x.dim : (row+1)*x.dim]
	var sum float64
	for i, v := range vec {
		d := float64(v) - float64(query[i])
		sum += d * d
	}
	return sum
}

// Clear resets the index to empty. Persisted files are untouched.
func (x *Index) Clear() {
	x.passages = nil
	x.vectors = nil
	x.meta = nil
}

// Len returns the number of stored passages.
func (x *Index) Len() int {
	return len(x.passages)
}

// Dimension returns the embedding dimension.
func (x *Index) Dimension() int {
	return x.dim
}
