package facematch

import (
	"cmp"
	"fmt"
	"runtime"
	"slices"

	"github.com/viterin/vek/vek32"
	"golang.org/x/sync/errgroup"
)

// SearchResult is one matched photo with the face that matched best.
type SearchResult struct {
	FaceID     int64   `json:"face_id"`
	PhotoID    int64   `json:"photo_id"`
	Similarity float64 `json:"similarity"`
}

// parallelScoreMinRows is the index size above which exact scoring is split across goroutines.
const parallelScoreMinRows = 20000

type hit struct {
	row int
	sim float32
}

// rank scores a normalized query against snap and applies the threshold,
// ordering, per-photo deduplication and limit.
func rank(snap *Snapshot, query []float32, threshold float64, limit int) ([]SearchResult, error) {
	if limit <= 0 || snap.Len() == 0 {
		return []SearchResult{}, nil
	}
	if len(query) != snap.dim {
		return nil, fmt.Errorf("%w: query has %d values, index expects %d",
			ErrDimensionMismatch, len(query), snap.dim)
	}

	var hits []hit
	if snap.ann != nil {
		hits = scoreRows(snap, query, threshold, snap.ann.candidates(query, candidateCount(limit, snap.Len())))
		// Candidates only stand in for the full scan when they already fill the
		// limit with distinct photos. Otherwise a photo with many near faces can
		// crowd out every other photo that passes the threshold.
		if distinctPhotos(snap, hits) < limit {
			hits = scoreAll(snap, query, threshold)
		}
	} else {
		hits = scoreAll(snap, query, threshold)
	}

	// Similarity descending; equal similarities keep ascending row order.
	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(b.sim, a.sim); c != 0 {
			return c
		}
		return cmp.Compare(a.row, b.row)
	})

	results := make([]SearchResult, 0, min(limit, len(hits)))
	seen := make(map[int64]struct{}, min(limit, len(hits)))
	for _, h := range hits {
		photoID := snap.photoIDs[h.row]
		if _, ok := seen[photoID]; ok {
			continue
		}
		seen[photoID] = struct{}{}
		results = append(results, SearchResult{
			FaceID:     snap.faceIDs[h.row],
			PhotoID:    photoID,
			Similarity: float64(h.sim),
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// scoreAll computes the similarity of every row, in parallel chunks for large indexes.
func scoreAll(snap *Snapshot, query []float32, threshold float64) []hit {
	n := snap.Len()
	if n < parallelScoreMinRows {
		return scoreRange(snap, query, threshold, 0, n)
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers
	parts := make([][]hit, workers)

	var g errgroup.Group
	for w := range workers {
		lo := w * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			parts[w] = scoreRange(snap, query, threshold, lo, hi)
			return nil
		})
	}
	_ = g.Wait()

	return slices.Concat(parts...)
}

func scoreRange(snap *Snapshot, query []float32, threshold float64, lo, hi int) []hit {
	var hits []hit
	for i := lo; i < hi; i++ {
		sim := vek32.Dot(snap.row(i), query)
		if float64(sim) >= threshold {
			hits = append(hits, hit{row: i, sim: sim})
		}
	}
	return hits
}

func scoreRows(snap *Snapshot, query []float32, threshold float64, rows []int) []hit {
	hits := make([]hit, 0, len(rows))
	for _, i := range rows {
		sim := vek32.Dot(snap.row(i), query)
		if float64(sim) >= threshold {
			hits = append(hits, hit{row: i, sim: sim})
		}
	}
	return hits
}

func distinctPhotos(snap *Snapshot, hits []hit) int {
	seen := make(map[int64]struct{}, len(hits))
	for _, h := range hits {
		seen[snap.photoIDs[h.row]] = struct{}{}
	}
	return len(seen)
}
