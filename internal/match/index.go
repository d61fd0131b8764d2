package match

import (
	"github.com/coder/hnsw"
)

// HNSW parameters for the candidate pre-selection index.
const (
	// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
	hnswMaxNeighbors = 16

	// hnswSearchMultiplier requests more candidates than needed so the exact
	// re-rank usually sees the true nearest neighbor after filtering.
	hnswSearchMultiplier = 3

	// hnswMinCandidates is the floor on the candidate fetch. Small k values
	// would otherwise leave the re-rank too little to work with.
	hnswMinCandidates = 32

	// minIndexSize below which an index buys nothing over a linear scan.
	minIndexSize = 64
)

// Index pre-selects nearest-neighbor candidates over the enrolled encodings.
// The matcher re-ranks the candidates with exact distances, but the
// candidate set itself is approximate: a graph search can miss the true
// nearest neighbor, which is why the index is opt-in.
// Node keys are positions in the gallery's encoding sequence.
type Index struct {
	graph *hnsw.Graph[int]
	size  int
}

// BuildIndex builds an index over the encodings. Returns nil when the
// gallery is too small for the index to pay off; callers fall back to the
// linear scan.
func BuildIndex(encodings [][]float32) *Index {
	if len(encodings) < minIndexSize {
		return nil
	}

	g := hnsw.NewGraph[int]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	for i, enc := range encodings {
		if len(enc) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(i, enc))
	}

	return &Index{graph: g, size: len(encodings)}
}

// Candidates returns the positions of the approximate nearest neighbors,
// over-fetched past the requested count.
func (idx *Index) Candidates(query []float32, k int) []int {
	n := k * hnswSearchMultiplier
	if n < hnswMinCandidates {
		n = hnswMinCandidates
	}
	neighbors := idx.graph.Search(query, n)

	positions := make([]int, len(neighbors))
	for i, n := range neighbors {
		positions[i] = n.Key
	}
	return positions
}
