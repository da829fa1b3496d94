// Package storage opens the repository.Store selected by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/techinsight/techinsight-be/internal/config"
	"github.com/techinsight/techinsight-be/internal/repository"
	"github.com/techinsight/techinsight-be/internal/repository/mongodb"
	"github.com/techinsight/techinsight-be/internal/repository/postgres"
	"github.com/techinsight/techinsight-be/internal/repository/sqlite"
)

// Open connects to the configured backend and applies its schema.
func Open(ctx context.Context, cfg config.Database) (repository.Store, error) {
	var (
		store repository.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err = sqlite.Open(cfg.Path)
	case config.DriverPostgres:
		store, err = postgres.Open(ctx, cfg.URL, cfg.MaxConns)
	case config.DriverMongo:
		store, err = mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	log.Info().Str("driver", cfg.Driver).Msg("Storage initialized and migrated successfully")
	return store, nil
}
