package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/confera/matching-service/internal/api/recovery"
	"github.com/confera/matching-service/internal/services"
	"github.com/confera/matching-service/internal/store"
)

// Deps bundles the wired handlers' dependencies for NewRouter.
type Deps struct {
	Store        store.Store
	Matching     *services.MatchingService
	Zones        *services.ZoneService
	Participants *services.ParticipantService
	// Probes feed /api/health/deep; nil entries are reported as skipped.
	Probes map[string]Pinger
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)
	router.Use(MetricsMiddleware)

	healthHandler := NewHealthHandler()
	deepHealth := NewDeepHealthHandler(d.Probes)
	eventHandler := NewEventHandler(d.Store)
	participantHandler := NewParticipantHandler(d.Participants)
	matchingHandler := NewMatchingHandler(d.Matching)
	zoneHandler := NewZoneHandler(d.Zones)

	// Health and metrics endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/deep", deepHealth.CheckDeep).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Event endpoints
	router.HandleFunc("/api/events", eventHandler.Create).Methods("POST")
	router.HandleFunc("/api/events/{eventId}", eventHandler.Get).Methods("GET")

	// Participant endpoints
	router.HandleFunc("/api/events/{eventId}/participants", participantHandler.Register).Methods("POST")
	router.HandleFunc("/api/events/{eventId}/participants", participantHandler.Roster).Methods("GET")
	router.HandleFunc("/api/events/{eventId}/participants/{participantId}", participantHandler.Get).Methods("GET")
	router.HandleFunc("/api/events/{eventId}/participants/{participantId}", participantHandler.Update).Methods("PUT")
	router.HandleFunc("/api/events/{eventId}/participants/{participantId}", participantHandler.Withdraw).Methods("DELETE")

	// Matching endpoints
	router.HandleFunc("/api/events/{eventId}/matching/run", matchingHandler.RunMatching).Methods("POST")
	router.HandleFunc("/api/events/{eventId}/matches", matchingHandler.ListMatches).Methods("GET")
	router.HandleFunc("/api/events/{eventId}/matches/expire", matchingHandler.ExpireMatches).Methods("POST")
	router.HandleFunc("/api/matches/{matchId}/respond", matchingHandler.RespondToMatch).Methods("POST")

	// Meeting zone endpoints
	router.HandleFunc("/api/events/{eventId}/zones/run", zoneHandler.RunClustering).Methods("POST")
	router.HandleFunc("/api/events/{eventId}/zones", zoneHandler.ListZones).Methods("GET")

	return router
}
