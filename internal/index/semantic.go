package index

import (
	"fmt"
	"math"
	"sort"
)

// Hit is one index match: the position of the chunk in the snapshot
// plus the index-specific score. For the semantic index Score is a
// distance (lower is better); for the lexical index it is a BM25
// score (higher is better). The hybrid retriever reconciles the two
// through rank positions, never raw scores.
type Hit struct {
	Index int
	Score float64
}

// SemanticIndex is an exhaustive nearest-neighbor structure over the
// snapshot's embedding vectors using cosine distance. Vectors are
// loaded once and treated as immutable.
type SemanticIndex struct {
	vectors [][]float32
	norms   []float64
	dim     int
}

func NewSemanticIndex(vectors [][]float32) (*SemanticIndex, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors to index")
	}

	dim := len(vectors[0])
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
		norms[i] = norm(v)
	}

	return &SemanticIndex{vectors: vectors, norms: norms, dim: dim}, nil
}

func (idx *SemanticIndex) Dim() int {
	return idx.dim
}

// Search returns up to k hits ordered by ascending cosine distance.
func (idx *SemanticIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), idx.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	queryNorm := norm(query)
	if queryNorm == 0 {
		return nil, fmt.Errorf("zero query vector")
	}

	hits := make([]Hit, 0, len(idx.vectors))
	for i, v := range idx.vectors {
		distance := 1.0
		if idx.norms[i] > 0 {
			distance = 1.0 - dot(query, v)/(queryNorm*idx.norms[i])
		}
		hits = append(hits, Hit{Index: i, Score: distance})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score < hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
