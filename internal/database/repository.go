package database

import (
	"context"
)

// EmbeddingSource provides the full set of persisted face embeddings.
type EmbeddingSource interface {
	// FetchAllEmbeddings returns a consistent snapshot of every face row.
	// Returns ErrSourceNotFound when the backing store does not exist.
	FetchAllEmbeddings(ctx context.Context) ([]FaceEmbedding, error)
}

// PhotoReader provides read-only access to photo metadata
type PhotoReader interface {
	// GetPhoto retrieves a photo by ID, returns nil if not found
	GetPhoto(ctx context.Context, id int64) (*Photo, error)
}

// StatsReader reports aggregate counts of the persistent source
type StatsReader interface {
	Stats(ctx context.Context) (*SourceStats, error)
}

// Source is a complete persistent backend: embeddings, photos and stats.
type Source interface {
	EmbeddingSource
	PhotoReader
	StatsReader
	Close() error
}
