package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/confera/matching-service/internal/config"
	"github.com/confera/matching-service/internal/factory"
	"github.com/confera/matching-service/internal/logger"
	"github.com/confera/matching-service/internal/outbox"
	"github.com/confera/matching-service/internal/vectorindex"
)

func main() {
	log := logger.New("relay-worker")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// deps
	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres open")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("postgres ping")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	emb := factory.NewEmbeddingProvider(ctx, cfg, log)

	// Ensure the profile class exists before any writes
	var idx vectorindex.Index
	if cfg.VectorIndexURL != "" {
		if err := vectorindex.BootstrapWeaviate(context.Background(), cfg.VectorIndexURL); err != nil {
			log.Error().Err(err).Msg("weaviate bootstrap")
		}
		idx, err = vectorindex.NewWeaviateNativeIndex(cfg.VectorIndexURL)
		if err != nil {
			log.Fatal().Err(err).Msg("weaviate")
		}
	} else {
		log.Warn().Msg("vector index not configured – profile embeddings skipped")
	}

	syncer := factory.NewGraphSyncer(cfg, log)
	notifier := factory.NewNotifier(cfg, log)

	w := outbox.NewWorker(db, emb, idx, syncer, notifier, outbox.Config{
		BatchSize:     cfg.OutboxBatchSize,
		Interval:      time.Duration(cfg.OutboxIntervalSeconds) * time.Second,
		SweepInterval: time.Duration(cfg.ExpirySweepSeconds) * time.Second,
	}, log)

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("relay worker exit")
		os.Exit(1)
	}
}
