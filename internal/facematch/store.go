package facematch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/face-finder/internal/database"
)

// Snapshot is an immutable, fully built embedding index. Row i links
// faceIDs[i], photoIDs[i] and the i-th row of the normalized matrix.
type Snapshot struct {
	dim      int
	faceIDs  []int64
	photoIDs []int64
	matrix   []float32 // len(faceIDs) rows of dim floats, each unit length
	photos   int       // distinct photo IDs
	ann      *annIndex // nil unless the store runs in HNSW mode
}

// Len returns the number of indexed faces.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.faceIDs)
}

// Dim returns the embedding dimension of the index.
func (s *Snapshot) Dim() int { return s.dim }

// Photos returns the number of distinct photos in the index.
func (s *Snapshot) Photos() int { return s.photos }

func (s *Snapshot) row(i int) []float32 {
	return s.matrix[i*s.dim : (i+1)*s.dim]
}

// LoadInfo describes the outcome of building a snapshot.
type LoadInfo struct {
	Total         int
	Photos        int
	SourceMissing bool
}

func emptySnapshot(dim int) *Snapshot {
	return &Snapshot{dim: dim}
}

// LoadSnapshot reads every face row from source and builds a normalized snapshot.
// A missing source yields an empty snapshot with SourceMissing set, not an error.
func LoadSnapshot(ctx context.Context, source database.EmbeddingSource, dim int) (*Snapshot, LoadInfo, error) {
	rows, err := source.FetchAllEmbeddings(ctx)
	if err != nil {
		if errors.Is(err, database.ErrSourceNotFound) {
			return emptySnapshot(dim), LoadInfo{SourceMissing: true}, nil
		}
		return nil, LoadInfo{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	snap, err := buildSnapshot(rows, dim)
	if err != nil {
		return nil, LoadInfo{}, err
	}
	return snap, LoadInfo{Total: snap.Len(), Photos: snap.photos}, nil
}

func buildSnapshot(rows []database.FaceEmbedding, dim int) (*Snapshot, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}

	n := len(rows)
	snap := &Snapshot{
		dim:      dim,
		faceIDs:  make([]int64, n),
		photoIDs: make([]int64, n),
		matrix:   make([]float32, n*dim),
	}

	seenFaces := make(map[int64]struct{}, n)
	seenPhotos := make(map[int64]struct{})
	for i, r := range rows {
		if len(r.Embedding) != dim {
			return nil, fmt.Errorf("%w: face %d has %d values, index expects %d",
				ErrDimensionMismatch, r.FaceID, len(r.Embedding), dim)
		}
		if _, dup := seenFaces[r.FaceID]; dup {
			return nil, fmt.Errorf("%w: duplicate face id %d", ErrStoreUnavailable, r.FaceID)
		}
		seenFaces[r.FaceID] = struct{}{}
		seenPhotos[r.PhotoID] = struct{}{}

		snap.faceIDs[i] = r.FaceID
		snap.photoIDs[i] = r.PhotoID
		normalizeInto(snap.row(i), r.Embedding)
	}
	snap.photos = len(seenPhotos)
	return snap, nil
}

// ReloadResult summarizes a completed reload.
type ReloadResult struct {
	Total         int
	Photos        int
	SourceMissing bool
	Duration      time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for reload warnings.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithHNSW makes every snapshot carry an HNSW graph used to pick search candidates.
func WithHNSW(enabled bool) StoreOption {
	return func(s *Store) { s.useANN = enabled }
}

// Store serves the current snapshot to readers and swaps it atomically on reload.
type Store struct {
	source database.EmbeddingSource
	dim    int
	logger *slog.Logger
	useANN bool

	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

// NewStore returns a store holding an empty snapshot. Call Reload to populate it.
func NewStore(source database.EmbeddingSource, dim int, opts ...StoreOption) *Store {
	s := &Store{
		source: source,
		dim:    dim,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(emptySnapshot(dim))
	return s
}

// Snapshot returns the currently published snapshot. Never nil.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Size returns the number of faces in the current snapshot.
func (s *Store) Size() int {
	return s.Snapshot().Len()
}

// Dim returns the configured embedding dimension.
func (s *Store) Dim() int {
	return s.dim
}

// Reload rebuilds the snapshot from the source and publishes it. Reloads are
// serialized. On error the previous snapshot stays in effect.
func (s *Store) Reload(ctx context.Context) (ReloadResult, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	snap, info, err := LoadSnapshot(ctx, s.source, s.dim)
	if err != nil {
		s.logger.Warn("embedding reload failed, keeping previous index",
			"error", err, "faces", s.Size())
		return ReloadResult{}, err
	}

	if s.useANN && snap.Len() > 0 {
		snap.ann = buildANN(snap)
	}

	s.current.Store(snap)

	result := ReloadResult{
		Total:         info.Total,
		Photos:        info.Photos,
		SourceMissing: info.SourceMissing,
		Duration:      time.Since(start),
	}
	if info.SourceMissing {
		s.logger.Warn("embedding source not found, serving empty index")
	} else {
		s.logger.Info("loaded face embeddings",
			"faces", result.Total, "photos", result.Photos, "duration", result.Duration)
	}
	return result, nil
}
