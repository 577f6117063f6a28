package factory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/confera/matching-service/internal/config"
	"github.com/confera/matching-service/internal/vectorindex"
)

// NewVectorIndex creates the profile vector index based on config. An empty
// URL disables the semantic signal entirely (scores use a zero semantic
// component). Launches async schema bootstrap; returns immediately.
func NewVectorIndex(ctx context.Context, cfg *config.Config, log zerolog.Logger) (vectorindex.Index, error) {
	if cfg.VectorIndexURL == "" {
		log.Info().Msg("vector index not configured; semantic scoring disabled")
		return nil, nil
	}

	idx, err := vectorindex.NewWeaviateNativeIndex(cfg.VectorIndexURL)
	if err != nil {
		return nil, err
	}

	// Async bootstrap with configurable timeout; don't block startup
	go func() {
		bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		defer cancel()

		if err := vectorindex.BootstrapWeaviate(bootstrapCtx, cfg.VectorIndexURL); err != nil {
			log.Warn().Err(err).Str("url", cfg.VectorIndexURL).Msg("vector index bootstrap failed")
		} else {
			log.Debug().Str("url", cfg.VectorIndexURL).Msg("vector index bootstrap completed")
		}
	}()

	return idx, nil
}
