package services

import "math"

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector has zero length or their dimensions differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MaximalMarginalRelevance picks up to k candidate indexes, trading similarity
// to the query (weight lambda) against similarity to already picked
// candidates (weight 1-lambda). The first pick is the candidate closest to
// the query; ties keep the lower index.
func MaximalMarginalRelevance(query []float32, candidates [][]float32, k int, lambda float64) []int {
	n := min(k, len(candidates))
	if n <= 0 {
		return []int{}
	}

	toQuery := make([]float64, len(candidates))
	best := 0
	for i, c := range candidates {
		toQuery[i] = CosineSimilarity(query, c)
		if toQuery[i] > toQuery[best] {
			best = i
		}
	}

	selected := make([]int, 0, n)
	picked := make([]bool, len(candidates))
	// redundancy[i] is the max similarity of candidate i to any pick so far.
	redundancy := make([]float64, len(candidates))
	for i := range redundancy {
		redundancy[i] = math.Inf(-1)
	}

	pick := func(idx int) {
		selected = append(selected, idx)
		picked[idx] = true
		for i, c := range candidates {
			if !picked[i] {
				redundancy[i] = math.Max(redundancy[i], CosineSimilarity(c, candidates[idx]))
			}
		}
	}
	pick(best)

	for len(selected) < n {
		bestScore := math.Inf(-1)
		next := -1
		for i := range candidates {
			if picked[i] {
				continue
			}
			score := lambda*toQuery[i] - (1-lambda)*redundancy[i]
			if score > bestScore {
				bestScore = score
				next = i
			}
		}
		if next < 0 {
			break
		}
		pick(next)
	}
	return selected
}
