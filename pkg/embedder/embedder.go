package embedder

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// ErrEmptyText is returned when asked to embed an empty string.
var ErrEmptyText = errors.New("cannot embed empty text")

// Embedder interface for generating embeddings
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelInfo() string
}

// HashEmbedder is a deterministic bag-of-words embedder. Every lowercased word
// is hashed into one of dim buckets. It needs no network access and is used for
// offline runs and tests; texts sharing words get similar vectors.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder with the given dimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashEmbedder{dim: dimension}
}

// Embed generates a unit-length vector from the words of text
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	vec := make([]float32, e.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%uint32(e.dim)]++
	}

	l2normalize(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimension returns the embedding dimension
func (e *HashEmbedder) Dimension() int {
	return e.dim
}

// ModelInfo returns model information
func (e *HashEmbedder) ModelInfo() string {
	return fmt.Sprintf("hash-bow-%d", e.dim)
}

// l2normalize normalizes a vector to unit length
func l2normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
