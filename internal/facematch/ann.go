package facematch

import (
	"math/rand"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-finder/internal/database"
)

// annIndex is an HNSW graph over snapshot rows, keyed by row index.
// It only narrows the candidate set; similarities are always recomputed exactly.
type annIndex struct {
	graph *hnsw.Graph[int]
}

func buildANN(snap *Snapshot) *annIndex {
	g := hnsw.NewGraph[int]()
	g.M = database.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(database.HNSWMaxNeighbors)
	g.EfSearch = database.HNSWEfSearch
	g.Distance = hnsw.CosineDistance
	// fixed seed: the same rows always build the same graph
	g.Rng = rand.New(rand.NewSource(int64(snap.Len())))

	for i := range snap.Len() {
		g.Add(hnsw.MakeNode(i, snap.row(i)))
	}
	return &annIndex{graph: g}
}

// candidateCount is how many neighbors to request for a search with the given limit.
func candidateCount(limit, n int) int {
	k := max(limit*database.HNSWSearchMultiplier, database.HNSWMinCandidates)
	return min(k, n)
}

// candidates returns up to k row indices near query.
func (a *annIndex) candidates(query []float32, k int) []int {
	neighbors := a.graph.Search(query, k)
	rows := make([]int, len(neighbors))
	for i, n := range neighbors {
		rows[i] = n.Key
	}
	return rows
}
