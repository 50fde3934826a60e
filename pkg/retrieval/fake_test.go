package retrieval

import (
	"context"
	"fmt"
)

// fakeEmbedder returns fixed vectors per text and counts calls.
type fakeEmbedder struct {
	vectors map[string][]float32
	dim     int
	err     error
	calls   int
}

func newFakeEmbedder(dim int, vectors map[string][]float32) *fakeEmbedder {
	return &fakeEmbedder{vectors: vectors, dim: dim}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int    { return f.dim }
func (f *fakeEmbedder) ModelInfo() string { return "fake" }
