package facematch

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// normEpsilon keeps all-zero vectors from dividing by zero.
const normEpsilon = 1e-10

// Normalize returns v scaled to unit length as v / (||v|| + epsilon).
// The input is not modified.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	normalizeInto(out, v)
	return out
}

func normalizeInto(dst, v []float32) {
	copy(dst, v)
	if len(dst) == 0 {
		return
	}
	norm := math.Sqrt(float64(vek32.Dot(v, v)))
	vek32.MulNumber_Inplace(dst, float32(1/(norm+normEpsilon)))
}

// CosineSimilarity returns the cosine similarity of a and b after normalizing both.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return float64(vek32.Dot(Normalize(a), Normalize(b)))
}
