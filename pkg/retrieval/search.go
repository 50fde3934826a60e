package retrieval

import (
	"math"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
// Vectors of different length or with zero magnitude score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / math.Sqrt(normA*normB)
}

// Best scans every indexed vector and returns the position and score of the
// most similar one. The lowest index wins ties. An empty index returns -1.
func Best(index *Index, queryEmbedding []float32) (int, float64) {
	bestIdx := -1
	bestScore := math.Inf(-1)

	for i, v := range index.Embeddings {
		score := CosineSimilarity(queryEmbedding, v)
		if score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx < 0 {
		return -1, 0
	}
	return bestIdx, bestScore
}
