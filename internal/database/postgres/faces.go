package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-finder/internal/database"
)

// FaceRepository implements database.Source on top of PostgreSQL.
type FaceRepository struct {
	pool *Pool
}

// NewFaceRepository creates a new face repository
func NewFaceRepository(pool *Pool) *FaceRepository {
	return &FaceRepository{pool: pool}
}

// FetchAllEmbeddings retrieves every face embedding ordered by face ID.
func (r *FaceRepository) FetchAllEmbeddings(ctx context.Context) ([]database.FaceEmbedding, error) {
	rows, err := r.pool.db.QueryContext(ctx, `SELECT id, photo_id, embedding FROM faces ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query all faces: %w", err)
	}
	defer rows.Close()

	var result []database.FaceEmbedding
	for rows.Next() {
		var fe database.FaceEmbedding
		var vec pgvector.Vector
		if err := rows.Scan(&fe.FaceID, &fe.PhotoID, &vec); err != nil {
			return nil, fmt.Errorf("scan face row: %w", err)
		}
		fe.Embedding = vec.Slice()
		result = append(result, fe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}
	return result, nil
}

// GetPhoto retrieves a photo by ID, returns nil if not found
func (r *FaceRepository) GetPhoto(ctx context.Context, id int64) (*database.Photo, error) {
	var p database.Photo
	var width, height sql.NullInt64
	var indexedAt sql.NullTime
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT id, filename, path, width, height, indexed_at FROM photos WHERE id = $1`, id,
	).Scan(&p.ID, &p.Filename, &p.Path, &width, &height, &indexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get photo %d: %w", id, err)
	}
	p.Width = int(width.Int64)
	p.Height = int(height.Int64)
	p.IndexedAt = indexedAt.Time
	return &p, nil
}

// Stats returns photo and face counts plus the most recent indexing time.
func (r *FaceRepository) Stats(ctx context.Context) (*database.SourceStats, error) {
	var stats database.SourceStats
	var last sql.NullTime
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM photos),
			(SELECT COUNT(*) FROM faces),
			(SELECT MAX(indexed_at) FROM photos)
	`).Scan(&stats.TotalPhotos, &stats.TotalFaces, &last)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	if last.Valid {
		t := last.Time.UTC()
		stats.LastIndexed = &t
	}
	return &stats, nil
}

// InsertPhoto stores a photo record and returns its ID.
func (r *FaceRepository) InsertPhoto(ctx context.Context, p *database.Photo) (int64, error) {
	var id int64
	err := r.pool.db.QueryRowContext(ctx,
		`INSERT INTO photos (filename, path, width, height) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Filename, p.Path, p.Width, p.Height,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert photo %s: %w", p.Filename, err)
	}
	return id, nil
}

// InsertFace stores a face embedding for a photo and returns the face ID.
func (r *FaceRepository) InsertFace(ctx context.Context, photoID int64, bbox database.BBox, embedding []float32, score float64) (int64, error) {
	var id int64
	err := r.pool.db.QueryRowContext(ctx, `
		INSERT INTO faces (photo_id, bbox_x, bbox_y, bbox_w, bbox_h, embedding, detection_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, photoID, bbox.X, bbox.Y, bbox.W, bbox.H, pgvector.NewVector(embedding), score).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert face for photo %d: %w", photoID, err)
	}
	return id, nil
}

// Close closes the underlying pool.
func (r *FaceRepository) Close() error {
	return r.pool.Close()
}

var _ database.Source = (*FaceRepository)(nil)
