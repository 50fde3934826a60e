package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "What skills do I need?")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "what SKILLS do i need")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, norm(a), 1e-6)
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	_, err := NewHashEmbedder(8).Embed(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestHashEmbedder_Batch(t *testing.T) {
	e := NewHashEmbedder(0)
	assert.Equal(t, 256, e.Dimension())
	assert.Equal(t, "hash-bow-256", e.ModelInfo())

	vectors, err := e.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)

	_, err = e.EmbedBatch(context.Background(), []string{"one", ""})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestL2Normalize_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	l2normalize(v)
	assert.Equal(t, []float32{0, 0, 0}, v)
}
