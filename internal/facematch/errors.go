package facematch

import "errors"

var (
	// ErrStoreUnavailable is returned when the embedding source exists but cannot be read.
	ErrStoreUnavailable = errors.New("embedding store unavailable")

	// ErrDimensionMismatch is returned when a vector length differs from the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
