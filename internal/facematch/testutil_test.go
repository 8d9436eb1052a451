package facematch

import (
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/face-finder/internal/database/mock"
)

const testDim = 64

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// randomVector returns a deterministic pseudo-random vector for seed.
func randomVector(dim int, seed uint64) []float32 {
	r := rand.New(rand.NewPCG(seed, seed*31+7))
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(r.NormFloat64())
	}
	return v
}

// vectorWithCosine returns a vector whose cosine similarity to base is exactly c.
func vectorWithCosine(base []float32, c float64, seed uint64) []float32 {
	u := Normalize(base)
	r := randomVector(len(base), seed)

	// Remove the component along u, leaving a direction orthogonal to it.
	var dot float64
	for i := range r {
		dot += float64(r[i]) * float64(u[i])
	}
	for i := range r {
		r[i] -= float32(dot) * u[i]
	}
	r = Normalize(r)

	s := math.Sqrt(1 - c*c)
	out := make([]float32, len(base))
	for i := range out {
		out[i] = float32(c)*u[i] + float32(s)*r[i]
	}
	return out
}

// newTestEngine builds an engine over a mock source and loads it.
func newTestEngine(t *testing.T, src *mock.MockSource, opts ...Option) *Engine {
	t.Helper()
	store := NewStore(src, testDim, WithStoreLogger(discardLogger()))
	_, err := store.Reload(t.Context())
	require.NoError(t, err)
	return NewEngine(store, append([]Option{WithLogger(discardLogger())}, opts...)...)
}

// requireRanked checks ordering and per-photo uniqueness of results.
func requireRanked(t *testing.T, results []SearchResult) {
	t.Helper()
	seen := make(map[int64]bool)
	for i, r := range results {
		require.False(t, seen[r.PhotoID], "photo %d appears twice", r.PhotoID)
		seen[r.PhotoID] = true
		if i > 0 {
			require.LessOrEqual(t, r.Similarity, results[i-1].Similarity, "results not sorted at %d", i)
		}
	}
}
