package postgres

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_b.sql": {Data: []byte("SELECT 2")},
		"migrations/001_a.sql": {Data: []byte("SELECT 1")},
		"migrations/README.md": {Data: []byte("notes")},
		"migrations/003_c.sql": {Data: []byte("SELECT 3")},
	}

	files, err := pendingMigrations(fsys, map[string]bool{"002_b.sql": true})
	if err != nil {
		t.Fatalf("pendingMigrations failed: %v", err)
	}

	want := []string{"001_a.sql", "003_c.sql"}
	if len(files) != len(want) {
		t.Fatalf("pendingMigrations() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("pendingMigrations()[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := pendingMigrations(migrationsFS, nil)
	if err != nil {
		t.Fatalf("pendingMigrations failed: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded migrations")
	}
	if files[0] != "001_photos_faces.sql" {
		t.Errorf("first migration = %q, want 001_photos_faces.sql", files[0])
	}
	if last := files[len(files)-1]; last != "003_embedding_any_dim.sql" {
		t.Errorf("last migration = %q, want 003_embedding_any_dim.sql", last)
	}
}

func TestEmbeddedMigrations_EmbeddingDimensionNotFixed(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/003_embedding_any_dim.sql")
	if err != nil {
		t.Fatalf("reading migration failed: %v", err)
	}
	if !strings.Contains(string(data), "ALTER COLUMN embedding TYPE vector;") {
		t.Errorf("expected embedding column to drop its fixed dimension, got:\n%s", data)
	}
}
