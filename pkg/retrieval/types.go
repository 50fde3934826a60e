package retrieval

import (
	"errors"
	"fmt"

	"github.com/perbu/careeradvisor/pkg/knowledge"
)

// EmbeddingData holds the knowledge base together with one precomputed
// embedding per question. This is the form persisted to disk.
type EmbeddingData struct {
	Items      []knowledge.Item // Knowledge base items
	Embeddings [][]float32      // Corresponding embeddings (same order as Items)
	ModelInfo  string           // Model name/version used
	Dimension  int              // Embedding vector dimension
}

// Index is the in-memory, read-only vector index the Matcher scans.
type Index struct {
	Items      knowledge.Base // Knowledge base items
	Embeddings [][]float32    // Corresponding embeddings (item[i] ↔ embedding[i])
	Dimension  int            // Embedding vector dimension
	ModelInfo  string
}

// ErrInconsistentIndex is returned for embedding data that breaks the
// one-vector-per-item invariant.
var ErrInconsistentIndex = errors.New("inconsistent index")

// LoadIndex creates an Index from EmbeddingData after checking that every
// item has exactly one vector of the declared dimension.
func LoadIndex(data *EmbeddingData) (*Index, error) {
	if len(data.Items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInconsistentIndex)
	}
	if len(data.Embeddings) != len(data.Items) {
		return nil, fmt.Errorf("%w: %d items but %d embeddings", ErrInconsistentIndex, len(data.Items), len(data.Embeddings))
	}
	for i, v := range data.Embeddings {
		if len(v) != data.Dimension {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, want %d", ErrInconsistentIndex, i, len(v), data.Dimension)
		}
	}

	return &Index{
		Items:      knowledge.Base(data.Items),
		Embeddings: data.Embeddings,
		Dimension:  data.Dimension,
		ModelInfo:  data.ModelInfo,
	}, nil
}

// Len returns the number of indexed items.
func (idx *Index) Len() int {
	return len(idx.Items)
}

// MatchResult is the outcome of matching one query: either Matched or NoMatch.
// The interface is sealed so a type switch over the two cases is exhaustive.
type MatchResult interface {
	isMatchResult()
}

// Matched carries the answer of the best knowledge base entry.
type Matched struct {
	Index  int
	Answer string
	Score  float64
}

// NoMatch means no entry was similar enough to ground the response.
type NoMatch struct{}

func (Matched) isMatchResult() {}
func (NoMatch) isMatchResult() {}
