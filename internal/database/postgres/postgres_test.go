//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/face-finder/internal/config"
	"github.com/kozaktomas/face-finder/internal/database"
)

func setupTestContainer(t *testing.T) (*FaceRepository, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil || container == nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	repo, err := Open(ctx, cfg)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to open repository: %v", err)
	}

	cleanup := func() {
		repo.Close()
		_ = container.Terminate(ctx)
	}
	return repo, cleanup
}

func unitVector(hot int) []float32 {
	v := make([]float32, database.FaceEmbeddingDim)
	v[hot] = 1
	return v
}

func TestFaceRepository(t *testing.T) {
	repo, cleanup := setupTestContainer(t)
	if repo == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	t.Run("EmptySource", func(t *testing.T) {
		rows, err := repo.FetchAllEmbeddings(ctx)
		if err != nil {
			t.Fatalf("FetchAllEmbeddings failed: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("Expected 0 rows, got %d", len(rows))
		}

		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.LastIndexed != nil {
			t.Errorf("Expected nil LastIndexed on empty source, got %v", stats.LastIndexed)
		}
	})

	photoID, err := repo.InsertPhoto(ctx, &database.Photo{Filename: "a.jpg", Path: "photos/a.jpg", Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("InsertPhoto failed: %v", err)
	}
	faceA, err := repo.InsertFace(ctx, photoID, database.BBox{X: 1, Y: 2, W: 40, H: 40}, unitVector(0), 0.9)
	if err != nil {
		t.Fatalf("InsertFace failed: %v", err)
	}
	if _, err := repo.InsertFace(ctx, photoID, database.BBox{X: 100, Y: 2, W: 40, H: 40}, unitVector(1), 0.8); err != nil {
		t.Fatalf("InsertFace failed: %v", err)
	}

	t.Run("FetchAllEmbeddings", func(t *testing.T) {
		rows, err := repo.FetchAllEmbeddings(ctx)
		if err != nil {
			t.Fatalf("FetchAllEmbeddings failed: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(rows))
		}
		if rows[0].FaceID != faceA || rows[0].PhotoID != photoID {
			t.Errorf("Unexpected first row: face=%d photo=%d", rows[0].FaceID, rows[0].PhotoID)
		}
		if len(rows[0].Embedding) != database.FaceEmbeddingDim {
			t.Errorf("Expected %d dimensions, got %d", database.FaceEmbeddingDim, len(rows[0].Embedding))
		}
		if rows[0].Embedding[0] != 1 {
			t.Errorf("Expected embedding[0] = 1, got %f", rows[0].Embedding[0])
		}
	})

	t.Run("GetPhoto", func(t *testing.T) {
		photo, err := repo.GetPhoto(ctx, photoID)
		if err != nil {
			t.Fatalf("GetPhoto failed: %v", err)
		}
		if photo == nil || photo.Filename != "a.jpg" {
			t.Fatalf("Expected photo a.jpg, got %+v", photo)
		}
		if photo.IndexedAt.IsZero() {
			t.Error("Expected indexed_at to be set by default")
		}

		missing, err := repo.GetPhoto(ctx, photoID+100)
		if err != nil {
			t.Fatalf("GetPhoto failed: %v", err)
		}
		if missing != nil {
			t.Errorf("Expected nil for missing photo, got %+v", missing)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.TotalPhotos != 1 || stats.TotalFaces != 2 {
			t.Errorf("Expected 1 photo and 2 faces, got %d and %d", stats.TotalPhotos, stats.TotalFaces)
		}
		if stats.LastIndexed == nil {
			t.Error("Expected LastIndexed to be set")
		}
	})

	t.Run("MigrationsApplied", func(t *testing.T) {
		versions, err := repo.pool.MigrationsApplied(ctx)
		if err != nil {
			t.Fatalf("MigrationsApplied failed: %v", err)
		}
		if len(versions) != 3 || versions[0] != "001_photos_faces.sql" {
			t.Errorf("Unexpected migrations: %v", versions)
		}

		// Re-running is a no-op.
		if err := repo.pool.Migrate(ctx); err != nil {
			t.Errorf("second Migrate failed: %v", err)
		}
	})
}

func TestFaceRepository_AnyDimension(t *testing.T) {
	repo, cleanup := setupTestContainer(t)
	if repo == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	photoID, err := repo.InsertPhoto(ctx, &database.Photo{Filename: "small.jpg", Path: "photos/small.jpg"})
	if err != nil {
		t.Fatalf("InsertPhoto failed: %v", err)
	}
	if _, err := repo.InsertFace(ctx, photoID, database.BBox{W: 40, H: 40}, []float32{0.1, 0.2, 0.3, 0.4}, 0.9); err != nil {
		t.Fatalf("InsertFace with a 4-dimensional embedding failed: %v", err)
	}

	rows, err := repo.FetchAllEmbeddings(ctx)
	if err != nil {
		t.Fatalf("FetchAllEmbeddings failed: %v", err)
	}
	if len(rows) != 1 || len(rows[0].Embedding) != 4 {
		t.Fatalf("Expected one 4-dimensional row, got %+v", rows)
	}
}
