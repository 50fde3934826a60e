package retrieval

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perbu/careeradvisor/pkg/embedder"
	"github.com/perbu/careeradvisor/pkg/knowledge"
)

func newTestIndex(t *testing.T, emb embedder.Embedder, base knowledge.Base) *Index {
	t.Helper()
	data, err := Build(context.Background(), base, emb)
	require.NoError(t, err)
	index, err := LoadIndex(data)
	require.NoError(t, err)
	return index
}

func TestMatch_BlankQuerySkipsEmbedder(t *testing.T) {
	emb := newFakeEmbedder(2, map[string][]float32{"q": {1, 0}})
	index := newTestIndex(t, emb, knowledge.Base{{Question: "q", Answer: "a"}})
	emb.calls = 0

	m := NewMatcher(index, emb)
	for _, query := range []string{"", "   ", "\t\n"} {
		result, err := m.Match(context.Background(), query)
		require.NoError(t, err)
		assert.Equal(t, NoMatch{}, result, "query %q", query)
	}
	assert.Equal(t, 0, emb.calls)
}

func TestMatch_IdenticalEmbedding(t *testing.T) {
	emb := newFakeEmbedder(3, map[string][]float32{
		"first":  {1, 0, 0},
		"second": {0, 1, 0},
		"third":  {0, 0, 1},
		"query":  {0, 1, 0},
	})
	base := knowledge.Base{
		{Question: "first", Answer: "A1"},
		{Question: "second", Answer: "A2"},
		{Question: "third", Answer: "A3"},
	}
	m := NewMatcher(newTestIndex(t, emb, base), emb)

	result, err := m.Match(context.Background(), "query")
	require.NoError(t, err)

	matched, ok := result.(Matched)
	require.True(t, ok, "expected Matched, got %T", result)
	assert.Equal(t, 1, matched.Index)
	assert.Equal(t, "A2", matched.Answer)
	assert.InDelta(t, 1.0, matched.Score, 1e-9)
}

func TestMatch_ThresholdBoundary(t *testing.T) {
	base := knowledge.Base{{Question: "indexed", Answer: "context"}}

	t.Run("exactly threshold matches", func(t *testing.T) {
		emb := newFakeEmbedder(4, map[string][]float32{
			"indexed": {1, 0, 0, 0},
			"query":   {1, 1, 1, 1},
		})
		m := NewMatcher(newTestIndex(t, emb, base), emb)

		result, err := m.Match(context.Background(), "query")
		require.NoError(t, err)
		matched, ok := result.(Matched)
		require.True(t, ok, "score of exactly %.1f must match, got %T", DefaultThreshold, result)
		assert.Equal(t, DefaultThreshold, matched.Score)
	})

	t.Run("just below threshold falls back", func(t *testing.T) {
		emb := newFakeEmbedder(4, map[string][]float32{
			"indexed": {1, 0, 0, 0},
			"query":   {1, 1, 1, 1.001},
		})
		m := NewMatcher(newTestIndex(t, emb, base), emb)

		result, err := m.Match(context.Background(), "query")
		require.NoError(t, err)
		assert.Equal(t, NoMatch{}, result)
	})
}

func TestMatch_NeverWrapsWrongSide(t *testing.T) {
	emb := newFakeEmbedder(2, map[string][]float32{
		"indexed": {1, 0},
		"q0":      {1, 0},
		"q1":      {1, 0.5},
		"q2":      {1, 1},
		"q3":      {1, 1.7},
		"q4":      {1, 1.8},
		"q5":      {0, 1},
		"q6":      {-1, 0},
	})
	index := newTestIndex(t, emb, knowledge.Base{{Question: "indexed", Answer: "a"}})
	m := NewMatcher(index, emb)

	for _, query := range []string{"q0", "q1", "q2", "q3", "q4", "q5", "q6"} {
		score := CosineSimilarity(emb.vectors[query], emb.vectors["indexed"])
		result, err := m.Match(context.Background(), query)
		require.NoError(t, err)

		switch r := result.(type) {
		case Matched:
			assert.GreaterOrEqual(t, r.Score, DefaultThreshold, query)
			assert.Equal(t, score, r.Score, query)
		case NoMatch:
			assert.Less(t, score, DefaultThreshold, query)
		}
	}
}

func TestMatch_TieBreakLowestIndex(t *testing.T) {
	emb := newFakeEmbedder(2, map[string][]float32{
		"other": {1, 0},
		"dup a": {0, 1},
		"dup b": {0, 1},
		"query": {0.2, 1},
	})
	base := knowledge.Base{
		{Question: "other", Answer: "O"},
		{Question: "dup a", Answer: "first"},
		{Question: "dup b", Answer: "second"},
	}
	m := NewMatcher(newTestIndex(t, emb, base), emb)

	for i := 0; i < 5; i++ {
		result, err := m.Match(context.Background(), "query")
		require.NoError(t, err)
		assert.Equal(t, 1, result.(Matched).Index)
		assert.Equal(t, "first", result.(Matched).Answer)
	}
}

func TestMatch_ZeroVectorIsNoMatch(t *testing.T) {
	emb := newFakeEmbedder(2, map[string][]float32{
		"indexed": {1, 0},
		"zero":    {0, 0},
	})
	m := NewMatcher(newTestIndex(t, emb, knowledge.Base{{Question: "indexed", Answer: "a"}}), emb)

	result, err := m.Match(context.Background(), "zero")
	require.NoError(t, err)
	assert.Equal(t, NoMatch{}, result)
}

func TestMatch_EmbeddingErrorPropagates(t *testing.T) {
	emb := newFakeEmbedder(2, map[string][]float32{"indexed": {1, 0}})
	m := NewMatcher(newTestIndex(t, emb, knowledge.Base{{Question: "indexed", Answer: "a"}}), emb)

	cause := errors.New("service unavailable")
	emb.err = cause
	emb.calls = 0

	result, err := m.Match(context.Background(), "anything")
	assert.Nil(t, result)

	var embErr *EmbeddingError
	require.True(t, errors.As(err, &embErr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, emb.calls, "no retry")
}

func TestMatch_DimensionMismatch(t *testing.T) {
	emb := newFakeEmbedder(2, map[string][]float32{
		"indexed": {1, 0},
		"query":   {1, 0, 0},
	})
	m := NewMatcher(newTestIndex(t, emb, knowledge.Base{{Question: "indexed", Answer: "a"}}), emb)

	_, err := m.Match(context.Background(), "query")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMatch_CustomThreshold(t *testing.T) {
	emb := newFakeEmbedder(4, map[string][]float32{
		"indexed": {1, 0, 0, 0},
		"query":   {1, 1, 1, 1},
	})
	m := NewMatcher(newTestIndex(t, emb, knowledge.Base{{Question: "indexed", Answer: "a"}}), emb, WithThreshold(0.8))
	assert.Equal(t, 0.8, m.Threshold())

	result, err := m.Match(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, NoMatch{}, result)
}

func TestMatch_NaNThresholdNeverMatches(t *testing.T) {
	emb := newFakeEmbedder(2, map[string][]float32{
		"indexed":  {1, 0},
		"opposite": {-1, 0},
		"same":     {1, 0},
	})
	m := NewMatcher(newTestIndex(t, emb, knowledge.Base{{Question: "indexed", Answer: "a"}}), emb, WithThreshold(math.NaN()))

	for _, query := range []string{"opposite", "same"} {
		result, err := m.Match(context.Background(), query)
		require.NoError(t, err)
		assert.Equal(t, NoMatch{}, result, "query %q", query)
	}
}

func TestMatch_EndToEndWithHashEmbedder(t *testing.T) {
	emb := embedder.NewHashEmbedder(256)
	base := knowledge.Base{{Question: "What skills do I need?", Answer: "Statistics, SQL, Python."}}
	m := NewMatcher(newTestIndex(t, emb, base), emb)

	result, err := m.Match(context.Background(), "What skills do I need?")
	require.NoError(t, err)
	matched, ok := result.(Matched)
	require.True(t, ok)
	assert.InDelta(t, 1.0, matched.Score, 1e-6)
	assert.Equal(t, "Statistics, SQL, Python.", matched.Answer)

	result, err = m.Match(context.Background(), "What is the weather today?")
	require.NoError(t, err)
	assert.Equal(t, NoMatch{}, result)
}
