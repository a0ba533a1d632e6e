// Package cached provides an EmbeddingService decorator with a bounded LRU cache.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService serves repeated texts from memory and forwards misses
// to the wrapped service. Keys combine the model name with a SHA-256 of the
// text so switching models never returns stale vectors.
type EmbeddingService struct {
	next  driven.EmbeddingService
	cache *lru.Cache[string, []float32]
}

// New wraps next with a cache holding up to size vectors.
func New(next driven.EmbeddingService, size int) (*EmbeddingService, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &EmbeddingService{next: next, cache: cache}, nil
}

func (s *EmbeddingService) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return s.next.ModelName() + ":" + hex.EncodeToString(sum[:])
}

// Embed returns the cached vector for text or computes it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch sends only cache misses to the wrapped service, in one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var (
		missTexts []string
		missIdx   []int
	)
	for i, t := range texts {
		keys[i] = s.key(t)
		if v, ok := s.cache.Get(keys[i]); ok {
			out[i] = v
			continue
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := s.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedding cache: expected %d embeddings, got %d", len(missTexts), len(fresh))
	}
	for j, i := range missIdx {
		out[i] = fresh[j]
		s.cache.Add(keys[i], fresh[j])
	}
	return out, nil
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int {
	return s.cache.Len()
}

// Dimensions returns the wrapped service's dimension.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping checks the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close purges the cache and closes the wrapped service.
func (s *EmbeddingService) Close() error {
	s.cache.Purge()
	return s.next.Close()
}
