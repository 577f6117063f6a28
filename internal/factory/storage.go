package factory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/confera/matching-service/internal/config"
	storepkg "github.com/confera/matching-service/internal/store"
	storepg "github.com/confera/matching-service/internal/store/postgres"
)

// NewStore returns a Postgres-backed store.Store plus the raw handle for
// components that run SQL directly (relay worker, deep health probe).
// Launches async bootstrap check; returns store immediately for fast startup.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, *sql.DB, error) {
	dsn := cfg.PostgresDSN
	if dsn == "" {
		return nil, nil, fmt.Errorf("MATCHSVC_POSTGRES_DSN is required")
	}

	// Open connection synchronously since health checks need it immediately
	db, err := storepg.Open(dsn)
	if err != nil {
		return nil, nil, err
	}

	// Async bootstrap check with configurable timeout; don't block startup
	go func() {
		bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		defer cancel()

		if err := storepg.Bootstrap(bootstrapCtx, dsn); err != nil {
			log.Warn().Err(err).Msg("store bootstrap check failed")
		} else {
			log.Debug().Msg("store bootstrap check completed")
		}
	}()

	return storepg.NewWithDB(db), db, nil
}
