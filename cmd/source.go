package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-finder/internal/config"
	"github.com/kozaktomas/face-finder/internal/database"
	"github.com/kozaktomas/face-finder/internal/database/mariadb"
	"github.com/kozaktomas/face-finder/internal/database/postgres"
	"github.com/kozaktomas/face-finder/internal/database/sqlite"
)

// openSource opens the embedding source selected by the DATABASE_URL scheme.
func openSource(ctx context.Context, cfg *config.DatabaseConfig) (database.Source, error) {
	switch cfg.Kind() {
	case config.SourcePostgres:
		repo, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL source: %w", err)
		}
		return repo, nil
	case config.SourceMariaDB:
		pool, err := mariadb.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open MariaDB source: %w", err)
		}
		return mariadb.NewFaceRepository(pool), nil
	default:
		src, err := sqlite.NewSource(cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source: %w", err)
		}
		return src, nil
	}
}
