package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 0}))
}

func TestMaximalMarginalRelevance_FirstPickIsMostSimilar(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{0, 1}, {1, 0.1}, {0.7, 0.7}}

	got := MaximalMarginalRelevance(query, candidates, 1, 0.25)
	assert.Equal(t, []int{1}, got)
}

func TestMaximalMarginalRelevance_PrefersDiversity(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := [][]float32{
		{1, 0, 0},        // exact match
		{0.99, 0.01, 0},  // near duplicate of the first
		{0.5, 0, 0.5},    // relevant but different
	}

	// Low lambda weights diversity: the near duplicate loses to the distinct candidate.
	assert.Equal(t, []int{0, 2, 1}, MaximalMarginalRelevance(query, candidates, 3, 0.25))

	// lambda = 1 degenerates to plain similarity ranking.
	assert.Equal(t, []int{0, 1, 2}, MaximalMarginalRelevance(query, candidates, 3, 1))
}

func TestMaximalMarginalRelevance_Bounds(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{1, 0}, {0, 1}}

	assert.Len(t, MaximalMarginalRelevance(query, candidates, 5, 0.25), 2)
	assert.Empty(t, MaximalMarginalRelevance(query, candidates, 0, 0.25))
	assert.Empty(t, MaximalMarginalRelevance(query, nil, 3, 0.25))

	got := MaximalMarginalRelevance(query, candidates, 2, 0.25)
	assert.ElementsMatch(t, []int{0, 1}, got)
}

func TestClampTopK(t *testing.T) {
	ptr := func(v int) *int { return &v }

	assert.Equal(t, 5, ClampTopK(nil))
	assert.Equal(t, 1, ClampTopK(ptr(0)))
	assert.Equal(t, 1, ClampTopK(ptr(-3)))
	assert.Equal(t, 7, ClampTopK(ptr(7)))
	assert.Equal(t, 20, ClampTopK(ptr(21)))
	assert.Equal(t, 20, ClampTopK(ptr(1000)))
}
