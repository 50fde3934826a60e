package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/perbu/careeradvisor/pkg/embedder"
)

// DefaultThreshold is the minimum similarity for a knowledge base entry to be
// used as grounding context. A score equal to the threshold matches.
const DefaultThreshold = 0.5

// ErrDimensionMismatch is returned when the query vector and the index were
// produced by embedders of different dimensionality.
var ErrDimensionMismatch = errors.New("query embedding dimension does not match index")

// EmbeddingError wraps a failure to embed the query. No grounding decision can
// be made without the embedding, so it is returned to the caller as is.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding query: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// Matcher finds the single most relevant knowledge base entry for a query.
type Matcher struct {
	index     *Index
	embedder  embedder.Embedder
	threshold float64
	logger    *zap.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// WithLogger sets the logger used for per-query debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Matcher) {
		m.logger = logger
	}
}

// NewMatcher creates a Matcher over index. emb must be the embedder (or an
// equivalent model) that produced the index vectors.
func NewMatcher(index *Index, emb embedder.Embedder, opts ...Option) *Matcher {
	m := &Matcher{
		index:     index,
		embedder:  emb,
		threshold: DefaultThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the acceptance threshold in use.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match embeds query and compares it against every indexed question.
// Blank queries return NoMatch without calling the embedder.
func (m *Matcher) Match(ctx context.Context, query string) (MatchResult, error) {
	if strings.TrimSpace(query) == "" {
		return NoMatch{}, nil
	}

	queryEmbedding, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(queryEmbedding) != m.index.Dimension {
		return nil, &EmbeddingError{
			Err: fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(queryEmbedding), m.index.Dimension),
		}
	}

	bestIdx, bestScore := Best(m.index, queryEmbedding)
	// Written as !(>=) so a NaN score or threshold never matches.
	if bestIdx < 0 || !(bestScore >= m.threshold) {
		m.logger.Debug("no knowledge base match",
			zap.Float64("best_score", bestScore),
			zap.Float64("threshold", m.threshold))
		return NoMatch{}, nil
	}

	m.logger.Debug("knowledge base match",
		zap.Int("index", bestIdx),
		zap.Float64("score", bestScore))

	return Matched{
		Index:  bestIdx,
		Answer: m.index.Items[bestIdx].Answer,
		Score:  bestScore,
	}, nil
}
