// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/face-finder/internal/database"
)

// MockSource is an in-memory implementation of database.Source
type MockSource struct {
	mu     sync.RWMutex
	faces  []database.FaceEmbedding
	photos map[int64]*database.Photo
	closed bool

	fetchCalls int

	// Missing makes FetchAllEmbeddings report database.ErrSourceNotFound
	Missing bool

	// Error injection
	FetchError    error
	GetPhotoError error
	StatsError    error

	// BeforeFetch, if set, runs at the start of every FetchAllEmbeddings call
	BeforeFetch func(ctx context.Context)
}

// NewMockSource creates a new empty mock source
func NewMockSource() *MockSource {
	return &MockSource{
		photos: make(map[int64]*database.Photo),
	}
}

// AddFace appends a face row. The photo is registered with a generated filename if unknown.
func (m *MockSource) AddFace(faceID, photoID int64, embedding []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = append(m.faces, database.FaceEmbedding{
		FaceID:    faceID,
		PhotoID:   photoID,
		Embedding: slices.Clone(embedding),
	})
	if _, ok := m.photos[photoID]; !ok {
		m.photos[photoID] = &database.Photo{ID: photoID, IndexedAt: time.Now()}
	}
}

// SetFaces replaces every face row, as an external re-index would
func (m *MockSource) SetFaces(faces []database.FaceEmbedding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = slices.Clone(faces)
}

// AddPhoto registers photo metadata
func (m *MockSource) AddPhoto(photo database.Photo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos[photo.ID] = &photo
}

// FetchAllEmbeddings returns a copy of the face rows
func (m *MockSource) FetchAllEmbeddings(ctx context.Context) ([]database.FaceEmbedding, error) {
	if m.BeforeFetch != nil {
		m.BeforeFetch(ctx)
	}

	m.mu.Lock()
	m.fetchCalls++
	m.mu.Unlock()

	if m.Missing {
		return nil, database.ErrSourceNotFound
	}
	if m.FetchError != nil {
		return nil, m.FetchError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.FaceEmbedding, len(m.faces))
	for i, f := range m.faces {
		f.Embedding = slices.Clone(f.Embedding)
		out[i] = f
	}
	return out, nil
}

// GetPhoto retrieves a photo by ID, returns nil if not found
func (m *MockSource) GetPhoto(ctx context.Context, id int64) (*database.Photo, error) {
	if m.GetPhotoError != nil {
		return nil, m.GetPhotoError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.photos[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// Stats computes counts from the in-memory rows
func (m *MockSource) Stats(ctx context.Context) (*database.SourceStats, error) {
	if m.StatsError != nil {
		return nil, m.StatsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &database.SourceStats{
		TotalPhotos: len(m.photos),
		TotalFaces:  len(m.faces),
	}
	for _, p := range m.photos {
		if p.IndexedAt.IsZero() {
			continue
		}
		if stats.LastIndexed == nil || p.IndexedAt.After(*stats.LastIndexed) {
			t := p.IndexedAt
			stats.LastIndexed = &t
		}
	}
	return stats, nil
}

// FetchCalls returns how many times FetchAllEmbeddings was called
func (m *MockSource) FetchCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetchCalls
}

// Close marks the source closed
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called
func (m *MockSource) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

var _ database.Source = (*MockSource)(nil)
