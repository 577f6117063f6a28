package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confera/matching-service/internal/api"
	"github.com/confera/matching-service/internal/compat"
	"github.com/confera/matching-service/internal/config"
	"github.com/confera/matching-service/internal/entitlements"
	"github.com/confera/matching-service/internal/factory"
	"github.com/confera/matching-service/internal/logger"
	"github.com/confera/matching-service/internal/services"
	"github.com/confera/matching-service/internal/vectorindex"
)

// pgProbe adapts the raw handle to the deep health probe.
type pgProbe struct{ db *sql.DB }

func (p pgProbe) HealthPing(ctx context.Context) error { return p.db.PingContext(ctx) }

func main() {
	log := logger.New("matching-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Msg("Matching service starting…")

	ctx := context.Background()

	// -------- Storage layer -----------------
	store, db, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Store unavailable")
	}

	// -------- Semantic signal ---------------
	idx, err := factory.NewVectorIndex(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Vector index unavailable")
	}
	var sem compat.SemanticSource = compat.NoSemantic{}
	if idx != nil {
		sem = vectorindex.NewSemanticSource(idx)
	}

	// -------- Services ----------------------
	gate := entitlements.NewTierGate(store, cfg.MatchmakingAllTiers || !cfg.IsProduction())
	namer := factory.NewNamer(cfg, log)
	matching := services.NewMatchingService(store, gate, sem, cfg.ScoreWorkers)
	zones := services.NewZoneService(store, gate, sem, namer, cfg.ScoreWorkers)
	participants := services.NewParticipantService(store)

	// -------- Health ------------------------
	probes := map[string]api.Pinger{"postgres": pgProbe{db: db}}
	if hp, ok := idx.(api.Pinger); ok && idx != nil {
		probes["vectorindex"] = hp
	}
	api.StartHealthMonitor(ctx, probes, 30*time.Second)

	// -------- Router & Server --------------
	router := api.NewRouter(api.Deps{
		Store:        store,
		Matching:     matching,
		Zones:        zones,
		Participants: participants,
		Probes:       probes,
	})
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
