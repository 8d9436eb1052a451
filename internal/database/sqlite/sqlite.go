// Package sqlite reads photos and face embeddings from the indexer's SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kozaktomas/face-finder/internal/database"
)

// Source is a read-only view of the indexer database.
// The file is opened lazily so a database created after startup is picked up on reload.
type Source struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewSource returns a source for the SQLite file at path. The file does not need to exist yet.
func NewSource(path string) (*Source, error) {
	if path == "" {
		return nil, errors.New("SQLite path is required")
	}
	return &Source{path: path}, nil
}

// conn opens the database on first use. Returns database.ErrSourceNotFound while the file is missing.
func (s *Source) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, database.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", s.path, err)
	}

	db, err := sql.Open("sqlite3", "file:"+s.path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s.db = db
	return db, nil
}

// FetchAllEmbeddings loads every face row in id order.
func (s *Source) FetchAllEmbeddings(ctx context.Context) ([]database.FaceEmbedding, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, photo_id, embedding FROM faces ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query faces: %w", err)
	}
	defer rows.Close()

	var result []database.FaceEmbedding
	for rows.Next() {
		var fe database.FaceEmbedding
		var blob []byte
		if err := rows.Scan(&fe.FaceID, &fe.PhotoID, &blob); err != nil {
			return nil, fmt.Errorf("scan face row: %w", err)
		}
		fe.Embedding, err = database.DecodeFloat32Blob(blob)
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

// GetPhoto retrieves a photo by ID, returns nil if not found
func (s *Source) GetPhoto(ctx context.Context, id int64) (*database.Photo, error) {
	db, err := s.conn(ctx)
	if err != nil {
		if errors.Is(err, database.ErrSourceNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var p database.Photo
	var width, height sql.NullInt64
	var indexedAt sql.NullString
	err = db.QueryRowContext(ctx,
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
	if t, ok := parseTimestamp(indexedAt.String); ok {
		p.IndexedAt = t
	}
	return &p, nil
}

// Stats returns photo and face counts plus the most recent indexing time.
// A missing database reports zero counts.
func (s *Source) Stats(ctx context.Context) (*database.SourceStats, error) {
	db, err := s.conn(ctx)
	if err != nil {
		if errors.Is(err, database.ErrSourceNotFound) {
			return &database.SourceStats{}, nil
		}
		return nil, err
	}

	var stats database.SourceStats
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos`).Scan(&stats.TotalPhotos); err != nil {
		return nil, fmt.Errorf("count photos: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM faces`).Scan(&stats.TotalFaces); err != nil {
		return nil, fmt.Errorf("count faces: %w", err)
	}

	var last sql.NullString
	if err := db.QueryRowContext(ctx, `SELECT MAX(indexed_at) FROM photos`).Scan(&last); err != nil {
		return nil, fmt.Errorf("last indexed: %w", err)
	}
	if t, ok := parseTimestamp(last.String); ok {
		stats.LastIndexed = &t
	}
	return &stats, nil
}

// Close closes the underlying connection if it was opened.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// parseTimestamp parses the TEXT timestamps SQLite writes for CURRENT_TIMESTAMP
// and Python's datetime adapter. MAX() drops the column type so the driver
// hands these back as strings.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
