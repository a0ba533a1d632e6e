// Package hashing provides an offline embedding service based on feature hashing.
//
// Each lower-cased word and each character trigram of a word is hashed into
// one of Dimensions buckets with a hash-derived sign, and the resulting
// vector is L2-normalised. Texts sharing vocabulary land close together,
// which is enough for local use and tests without a model server.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions matches all-MiniLM-L6-v2.
const DefaultDimensions = 384

const (
	wordWeight    = 1.0
	trigramWeight = 0.5
)

// EmbeddingService embeds text locally. It is safe for concurrent use.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder producing vectors of the given size.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch embeds each text independently.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, s.vector(t))
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns "hashing-<dimensions>".
func (s *EmbeddingService) ModelName() string {
	return fmt.Sprintf("hashing-%d", s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) vector(text string) []float32 {
	acc := make([]float64, s.dimensions)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		s.add(acc, "w:"+w, wordWeight)
		runes := []rune("^" + w + "$")
		for i := 0; i+3 <= len(runes); i++ {
			s.add(acc, "t:"+string(runes[i:i+3]), trigramWeight)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out
	}
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}

func (s *EmbeddingService) add(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := sum % uint64(s.dimensions)
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}
