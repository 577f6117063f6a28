package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/confera/matching-service/internal/cluster"
	"github.com/confera/matching-service/internal/compat"
	"github.com/confera/matching-service/internal/entitlements"
	"github.com/confera/matching-service/internal/metrics"
	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/namegen"
	"github.com/confera/matching-service/internal/store"
	"github.com/confera/matching-service/internal/visibility"
)

// ZoneService runs the clustering engine and manages the persisted zone set
// per event.
type ZoneService struct {
	store   store.Store
	gate    entitlements.Gate
	builder *compat.Builder
	namer   namegen.Namer
}

func NewZoneService(s store.Store, g entitlements.Gate, sem compat.SemanticSource, namer namegen.Namer, workers int) *ZoneService {
	return &ZoneService{store: s, gate: g, builder: compat.NewBuilder(sem, workers), namer: namer}
}

// RunClustering computes meeting zones for the event. A fresh-enough
// previous set is reused unless force is set; a new set atomically replaces
// the old one.
func (s *ZoneService) RunClustering(ctx context.Context, eventID string, force bool) ([]*model.Cluster, error) {
	enabled, err := s.gate.MatchmakingEnabled(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !enabled {
		log.Info().Str("eventId", eventID).Msg("clustering disabled for event tier")
		return []*model.Cluster{}, nil
	}

	now := time.Now().UTC()
	if !force {
		oldest, err := s.store.Clusters().OldestCreation(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if oldest != nil && !cluster.Stale(*oldest, now) {
			return s.store.Clusters().ListByEvent(ctx, eventID)
		}
	}

	if _, err := s.store.Events().GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	roster, err := s.store.Participants().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	eligible := visibility.EligibleForAlgorithm(roster)

	matrix, err := s.builder.Build(ctx, eligible)
	if err != nil {
		return nil, err
	}

	zones := cluster.NewEngine(matrix, eligible).Run()
	out := make([]*model.Cluster, 0, len(zones))
	for i, z := range zones {
		summary := namegen.ZoneSummary{
			Intents:    z.SharedIntents,
			Industries: z.SharedIndustries,
			Size:       len(z.Members),
		}
		out = append(out, &model.Cluster{
			ClusterID:        uuid.New().String(),
			EventID:          eventID,
			Name:             namegen.NameZone(ctx, s.namer, summary, i+1),
			Members:          z.Members,
			Cohesion:         z.Cohesion,
			SharedIntents:    z.SharedIntents,
			SharedIndustries: z.SharedIndustries,
			CreationTime:     now,
		})
	}

	if err := s.store.Clusters().ReplaceForEvent(ctx, eventID, out); err != nil {
		return nil, err
	}

	metrics.RecordClusteringRun()
	log.Info().Str("eventId", eventID).
		Int("eligible", len(eligible)).
		Int("zones", len(out)).
		Msg("clustering run complete")
	return out, nil
}

// Zones returns the current persisted zone set for the event.
func (s *ZoneService) Zones(ctx context.Context, eventID string) ([]*model.Cluster, error) {
	return s.store.Clusters().ListByEvent(ctx, eventID)
}
