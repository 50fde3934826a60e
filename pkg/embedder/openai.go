package embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// maxBatch is the number of inputs sent per embeddings request.
const maxBatch = 100

var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"text-embedding-004":     768,
	"gemini-embedding-001":   3072,
}

// OpenAIEmbedder uses an OpenAI-compatible embeddings API
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
}

// NewOpenAIEmbedder creates an embedder for model. An empty baseURL uses the
// OpenAI default; any OpenAI-compatible endpoint (Gemini included) works.
func NewOpenAIEmbedder(apiKey, baseURL, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("embedder: API key is required")
	}
	if model == "" {
		return nil, errors.New("embedder: model is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dim:    knownDimensions[model],
	}, nil
}

// Embed generates an embedding for a single text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) == 0 {
		return nil, ErrEmptyText
	}

	vectors, err := e.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in as few requests as possible, preserving order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		for i, text := range texts[start:end] {
			if len(text) == 0 {
				return nil, fmt.Errorf("embedding text %d: %w", start+i, ErrEmptyText)
			}
		}

		vectors, err := e.request(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding texts %d-%d: %w", start, end-1, err)
		}
		embeddings = append(embeddings, vectors...)
	}
	return embeddings, nil
}

func (e *OpenAIEmbedder) request(ctx context.Context, input []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings API error: %w", err)
	}

	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(resp.Data), len(input))
	}

	vectors := make([][]float32, len(input))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(input) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("embeddings API returned unexpected index %d", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i := range d.Embedding {
			v[i] = float32(d.Embedding[i])
		}
		// L2 normalize (important for cosine similarity)
		l2normalize(v)
		vectors[d.Index] = v
	}

	if e.dim == 0 {
		e.dim = len(vectors[0])
	}
	return vectors, nil
}

// Dimension returns the embedding dimension. For models not in the known
// table it is 0 until the first response has been seen.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

// ModelInfo returns model information
func (e *OpenAIEmbedder) ModelInfo() string {
	return "openai-" + e.model
}
