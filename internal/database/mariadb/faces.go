package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-finder/internal/database"
)

// FaceRepository implements database.Source for MariaDB. The faces table keeps
// the embedding in embedding_json as [e1, e2, ..., eD].
type FaceRepository struct {
	pool *Pool
}

// NewFaceRepository creates a new face repository
func NewFaceRepository(pool *Pool) *FaceRepository {
	return &FaceRepository{pool: pool}
}

// FetchAllEmbeddings retrieves every face embedding ordered by face ID.
func (r *FaceRepository) FetchAllEmbeddings(ctx context.Context) ([]database.FaceEmbedding, error) {
	rows, err := r.pool.db.QueryContext(ctx, `SELECT id, photo_id, embedding_json FROM faces ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query all faces: %w", err)
	}
	defer rows.Close()

	var result []database.FaceEmbedding
	for rows.Next() {
		var fe database.FaceEmbedding
		var data []byte
		if err := rows.Scan(&fe.FaceID, &fe.PhotoID, &data); err != nil {
			return nil, fmt.Errorf("scan face row: %w", err)
		}
		fe.Embedding, err = decodeEmbedding(data)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", fe.FaceID, err)
		}
		result = append(result, fe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}
	return result, nil
}

// decodeEmbedding accepts both a flat [e1..eD] list and the [[e1..eD]]
// list-of-lists form some exporters write.
func decodeEmbedding(data []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(data, &flat); err == nil {
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("unmarshal embedding: %w", err)
	}
	if len(nested) != 1 {
		return nil, fmt.Errorf("expected one embedding, got %d", len(nested))
	}
	return nested[0], nil
}

// GetPhoto retrieves a photo by ID, returns nil if not found
func (r *FaceRepository) GetPhoto(ctx context.Context, id int64) (*database.Photo, error) {
	var p database.Photo
	var width, height sql.NullInt64
	var indexedAt sql.NullTime
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT id, filename, path, width, height, indexed_at FROM photos WHERE id = ?`, id,
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

// Close closes the underlying pool.
func (r *FaceRepository) Close() error {
	return r.pool.Close()
}

var _ database.Source = (*FaceRepository)(nil)
