package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/flowtide/progress/internal/config"
	storepkg "github.com/flowtide/progress/internal/store"
	storepg "github.com/flowtide/progress/internal/store/postgres"
	storesqlite "github.com/flowtide/progress/internal/store/sqlite"
)

// NewStore builds the store adapter selected by cfg.DBDriver. Schema setup
// runs synchronously so the health checkers probe a ready database.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("PROGRESS_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := storepg.EnsureSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		log.Debug().Str("driver", cfg.DBDriver).Msg("store ready")
		return storepg.NewWithDB(db), nil

	case "sqlite":
		st, err := storesqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		log.Debug().Str("driver", cfg.DBDriver).Str("path", cfg.SQLitePath).Msg("store ready")
		return st, nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
