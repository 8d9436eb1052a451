package database

import (
	"time"
)

// FaceEmbedding is one persisted face row as read by the match engine.
type FaceEmbedding struct {
	FaceID    int64
	PhotoID   int64
	Embedding []float32 // raw, not normalized
}

// BBox is a face bounding box in pixel coordinates of the source photo.
type BBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Photo is an indexed photo.
type Photo struct {
	ID        int64
	Filename  string
	Path      string
	Width     int
	Height    int
	IndexedAt time.Time
}

// SourceStats summarizes what the persistent source holds.
type SourceStats struct {
	TotalPhotos int
	TotalFaces  int
	LastIndexed *time.Time // nil when nothing has been indexed yet
}
